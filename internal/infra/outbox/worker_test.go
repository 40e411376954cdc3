package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQueue struct {
	docs   []*EventDocument
	sent   []string
	failed []string
}

func (q *fakeQueue) Claim(context.Context, string, time.Duration) (*EventDocument, error) {
	if len(q.docs) == 0 {
		return nil, nil
	}
	doc := q.docs[0]
	q.docs = q.docs[1:]
	return doc, nil
}

func (q *fakeQueue) MarkSent(_ context.Context, id string) error {
	q.sent = append(q.sent, id)
	return nil
}

func (q *fakeQueue) MarkFailed(_ context.Context, id string, _ time.Time, _ string) error {
	q.failed = append(q.failed, id)
	return nil
}

type published struct {
	topic, key string
	payload    []byte
	headers    map[string]string
}

type fakeProducer struct {
	out  []published
	fail bool
}

func (p *fakeProducer) Publish(_ context.Context, topic, key string, payload []byte, headers map[string]string) error {
	if p.fail {
		return errors.New("broker down")
	}
	p.out = append(p.out, published{topic, key, payload, headers})
	return nil
}

func TestWorkerRelaysCloudEvents(t *testing.T) {
	q := &fakeQueue{docs: []*EventDocument{
		{ID: "e1", Name: "notification.booking_request", Aggregate: "owner", Payload: []byte(`{"recipient_uid":"owner"}`)},
		{ID: "e2", Name: "booking.confirmed", Aggregate: "b-1", Payload: []byte(`{"BookingID":"b-1"}`)},
	}}
	p := &fakeProducer{}
	w := &Worker{Store: q, Producer: p, TopicPrefix: "shareit."}

	sent, err := w.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.Equal(t, []string{"e1", "e2"}, q.sent)

	require.Len(t, p.out, 2)
	assert.Equal(t, "shareit.notifications.v1", p.out[0].topic)
	assert.Equal(t, "owner", p.out[0].key)
	assert.Equal(t, "shareit.booking.events.v1", p.out[1].topic)
	assert.Equal(t, "application/cloudevents+json", p.out[0].headers["content-type"])

	var env struct {
		ID   string         `json:"id"`
		Type string         `json:"type"`
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(p.out[0].payload, &env))
	assert.Equal(t, "e1", env.ID)
	assert.Equal(t, "notification.booking_request.v1", env.Type)
	assert.Equal(t, "owner", env.Data["recipient_uid"])
}

func TestWorkerMarksFailures(t *testing.T) {
	q := &fakeQueue{docs: []*EventDocument{{ID: "e1", Name: "booking.requested", Payload: []byte(`{}`)}}}
	w := &Worker{Store: q, Producer: &fakeProducer{fail: true}}

	sent, err := w.Drain(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Equal(t, []string{"e1"}, q.failed)
	assert.Empty(t, q.sent)
}

func TestWorkerRequiresDependencies(t *testing.T) {
	assert.ErrorIs(t, (&Worker{}).Run(context.Background()), ErrWorkerNotConfigured)
}
