package outbox

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shareit/internal/domain/booking"
	"shareit/internal/domain/shared/events"
)

type sliceBox struct{ records []EventRecord }

func (b *sliceBox) Add(_ context.Context, r EventRecord) error {
	b.records = append(b.records, r)
	return nil
}

func (b *sliceBox) Flush(context.Context) error { return nil }

func TestRecordNotification(t *testing.T) {
	box := &sliceBox{}
	n := booking.Notification{
		RecipientUID: "owner",
		ActorUID:     "renter",
		Kind:         booking.KindBookingRequest,
		BookingID:    "b-1",
		Title:        "New booking request",
		At:           time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	enc := JSONEventEncoder{IDGenerator: func() string { return "evt-1" }}
	require.NoError(t, RecordDomainEvents(context.Background(), box, enc, []events.DomainEvent{n}))

	require.Len(t, box.records, 1)
	rec := box.records[0]
	assert.Equal(t, "evt-1", rec.ID)
	assert.True(t, rec.IsNotification())
	assert.Equal(t, "owner", rec.Aggregate)

	var decoded booking.Notification
	require.NoError(t, json.Unmarshal(rec.Payload, &decoded))
	assert.Equal(t, n, decoded)
}

func TestRecordNothing(t *testing.T) {
	assert.NoError(t, RecordDomainEvents(context.Background(), nil, nil, nil))
}
