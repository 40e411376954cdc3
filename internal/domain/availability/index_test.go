package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shareit/internal/domain/booking"
	"shareit/internal/domain/calendar"
	"shareit/internal/domain/items"
	"shareit/internal/domain/shared/apperr"
)

var now = time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)

func bookingOn(t *testing.T, id string, status booking.Status, start, end string) *booking.Booking {
	t.Helper()
	days, err := calendar.ExpandRange(start, end)
	require.NoError(t, err)
	b, err := booking.NewBooking(booking.CreateParams{
		ID: booking.BookingID(id), ItemID: "drill", OwnerUID: "owner", RenterUID: "renter-" + id,
		Days: days, PricePerDayCents: 1000, CreatedAt: now,
	})
	require.NoError(t, err)
	b.Status = status
	return b
}

func drill(t *testing.T, window calendar.Window) *items.Item {
	t.Helper()
	item, err := items.NewItem(items.CreateParams{ID: "drill", OwnerUID: "owner", Title: "Drill", PricePerDayCents: 1000, Window: window, Now: now})
	require.NoError(t, err)
	return item
}

func days(t *testing.T, start, end string) []calendar.Day {
	t.Helper()
	out, err := calendar.ExpandRange(start, end)
	require.NoError(t, err)
	return out
}

func TestBlockedCountsOnlyLiveBookings(t *testing.T) {
	idx := NewIndex(drill(t, calendar.Window{}), []*booking.Booking{
		bookingOn(t, "a", booking.StatusPending, "2026-03-10", "2026-03-11"),
		bookingOn(t, "b", booking.StatusConfirmed, "2026-03-20", "2026-03-20"),
		bookingOn(t, "c", booking.StatusCancelled, "2026-03-12", "2026-03-13"),
		bookingOn(t, "d", booking.StatusRejected, "2026-03-14", "2026-03-14"),
		bookingOn(t, "e", booking.StatusCompleted, "2026-03-15", "2026-03-15"),
	})

	assert.Equal(t, []string{"2026-03-10", "2026-03-11", "2026-03-20"}, calendar.Strings(idx.Blocked()))
	holder, ok := idx.HeldBy(calendar.MustParseDay("2026-03-20"))
	assert.True(t, ok)
	assert.Equal(t, booking.BookingID("b"), holder)
}

func TestValidateConflict(t *testing.T) {
	idx := NewIndex(drill(t, calendar.Window{}), []*booking.Booking{
		bookingOn(t, "a", booking.StatusConfirmed, "2026-03-10", "2026-03-12"),
	})
	today := calendar.DayOf(now)

	err := idx.Validate(days(t, "2026-03-11", "2026-03-13"), today)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrConflict)
	assert.Contains(t, apperr.ReasonOf(err), "2026-03-11, 2026-03-12")

	assert.NoError(t, idx.Validate(days(t, "2026-03-13", "2026-03-15"), today))
}

func TestValidateOrderOfChecks(t *testing.T) {
	window, err := calendar.NewWindow("2026-03-01", "2026-03-31")
	require.NoError(t, err)
	idx := NewIndex(drill(t, window), nil)
	today := calendar.MustParseDay("2026-03-05")

	assert.ErrorIs(t, idx.Validate(nil, today), apperr.ErrValidation)
	assert.ErrorIs(t, idx.Validate(days(t, "2026-03-04", "2026-03-06"), today), apperr.ErrPastDate)
	assert.NoError(t, idx.Validate(days(t, "2026-03-05", "2026-03-05"), today), "today is bookable")
	assert.ErrorIs(t, idx.Validate(days(t, "2026-03-30", "2026-04-02"), today), apperr.ErrValidation)
}

func TestValidateRejectsOversizedSelection(t *testing.T) {
	idx := NewIndex(drill(t, calendar.Window{}), nil)
	today := calendar.MustParseDay("2026-03-01")
	first := calendar.MustParseDay("2026-03-10")

	year := make([]calendar.Day, 0, calendar.MaxSelectionDays+1)
	for i := 0; i < calendar.MaxSelectionDays; i++ {
		year = append(year, first.AddDays(i))
	}
	assert.NoError(t, idx.Validate(year, today))

	year = append(year, first.AddDays(calendar.MaxSelectionDays))
	err := idx.Validate(year, today)
	assert.ErrorIs(t, err, calendar.ErrSelectionTooLong)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestConflictErrorTruncates(t *testing.T) {
	err := ConflictError(days(t, "2026-03-01", "2026-03-08"))
	assert.ErrorIs(t, err, apperr.ErrConflict)
	assert.Contains(t, apperr.ReasonOf(err), "and 3 more")
}
