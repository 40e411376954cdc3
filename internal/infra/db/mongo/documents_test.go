package mongo

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"shareit/internal/app/uow"
	"shareit/internal/domain/booking"
	"shareit/internal/domain/calendar"
	"shareit/internal/domain/items"
)

func TestBookingDocumentRoundTrip(t *testing.T) {
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	b := &booking.Booking{
		ID:               "b-1",
		ItemID:           "drill",
		ItemTitle:        "Drill",
		OwnerUID:         "owner",
		RenterUID:        "renter",
		Days:             []calendar.Day{calendar.MustParseDay("2026-03-10"), calendar.MustParseDay("2026-03-11")},
		PricePerDayCents: 1500,
		TotalCents:       3000,
		Status:           booking.StatusCompleted,
		Rating:           &booking.Rating{Score: 4, RaterUID: "renter", CreatedAt: created},
		CreatedAt:        created,
		UpdatedAt:        created,
		ExpiresAt:        created.Add(booking.RequestTTL),
		Version:          3,
	}
	doc := newBookingDocument(b)
	assert.Equal(t, []string{"2026-03-10", "2026-03-11"}, doc.Days)

	got, err := doc.toAggregate()
	require.NoError(t, err)
	assert.Equal(t, b.Days, got.Days)
	assert.Equal(t, b.Rating, got.Rating)
	assert.Equal(t, b.ExpiresAt, got.ExpiresAt)
	assert.Equal(t, int64(3), got.Version)
}

func TestLegacyStatusDocumentsDecode(t *testing.T) {
	doc := bookingDocument{ID: "b", ItemID: "i", Days: []string{"2026-03-10"}, Status: "Accepted"}
	got, err := doc.toAggregate()
	require.NoError(t, err)
	assert.Equal(t, booking.StatusConfirmed, got.Status)

	assert.ElementsMatch(t, []string{"confirmed", "Accepted"}, booking.StoredNames([]booking.Status{booking.StatusConfirmed}))
}

func TestItemDocumentKeepsWindow(t *testing.T) {
	window, err := calendar.NewWindow("2026-03-01", "2026-06-30")
	require.NoError(t, err)
	doc := newItemDocument(&items.Item{ID: "drill", OwnerUID: "o", Title: "Drill", Window: window, State: items.ItemActive})
	got, err := doc.toAggregate()
	require.NoError(t, err)
	assert.Equal(t, window, got.Window)
}

func TestTranslate(t *testing.T) {
	dup := mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000, Message: "E11000 duplicate key"}}}
	assert.ErrorIs(t, translate(dup), uow.ErrConcurrentUpdate)

	conflict := mongo.CommandError{Code: writeConflictCode, Name: "WriteConflict"}
	assert.ErrorIs(t, translate(conflict), uow.ErrConcurrentUpdate)

	other := errors.New("boom")
	assert.Equal(t, other, translate(other))
	assert.NoError(t, translate(nil))
	assert.Equal(t, "drill/2026-03-10", claimID("drill", calendar.MustParseDay("2026-03-10")))
}
