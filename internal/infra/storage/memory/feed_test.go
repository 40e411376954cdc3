package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shareit/internal/domain/booking"
)

func TestFeedRecentNewestFirst(t *testing.T) {
	feed := NewFeed()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, feed.Publish(ctx, booking.Notification{
			RecipientUID: "owner",
			BookingID:    booking.BookingID(string(rune('a' + i))),
			At:           base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, feed.Publish(ctx, booking.Notification{RecipientUID: "renter", At: base}))

	got, err := feed.Recent(ctx, "owner", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, booking.BookingID("c"), got[0].BookingID)
	assert.Equal(t, booking.BookingID("b"), got[1].BookingID)

	none, err := feed.Recent(ctx, "nobody", 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}
