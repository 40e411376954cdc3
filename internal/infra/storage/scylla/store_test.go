package scylla

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"shareit/internal/domain/booking"
)

func TestFeedLimit(t *testing.T) {
	assert.Equal(t, defaultFeedLimit, feedLimit(0))
	assert.Equal(t, 7, feedLimit(7))
	assert.Equal(t, maxFeedLimit, feedLimit(5000))
}

func TestStoreWithoutSession(t *testing.T) {
	s := NewStore(nil, nil)
	assert.ErrorIs(t, s.Publish(context.Background(), booking.Notification{RecipientUID: "u"}), errSessionMissing)
	_, err := s.Recent(context.Background(), "u", 5)
	assert.ErrorIs(t, err, errSessionMissing)
}

func TestKeyspaceNameIsChecked(t *testing.T) {
	_, err := NewSession(context.Background(), Config{Keyspace: "bad-name; DROP"}, nil)
	assert.Error(t, err)
}
