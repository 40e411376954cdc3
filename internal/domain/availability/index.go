package availability

import (
	"fmt"

	"shareit/internal/domain/booking"
	"shareit/internal/domain/calendar"
	"shareit/internal/domain/items"
	"shareit/internal/domain/shared/apperr"
)

var (
	ErrEmptySelection = apperr.Validation("choose at least one day")
	ErrPastDay        = apperr.PastDate("dates in the past cannot be booked")
)

// Index is the blocked-day view of one item. Only live bookings block.
type Index struct {
	ItemID items.ItemID
	Window calendar.Window
	holds  map[calendar.Day]booking.BookingID
}

func NewIndex(item *items.Item, bookings []*booking.Booking) *Index {
	idx := &Index{ItemID: item.ID, Window: item.Window, holds: make(map[calendar.Day]booking.BookingID)}
	for _, b := range bookings {
		idx.Hold(b)
	}
	return idx
}

// Hold marks the days of b as blocked when b belongs to the item and is live.
func (x *Index) Hold(b *booking.Booking) {
	if b == nil || b.ItemID != x.ItemID || !b.Status.Live() {
		return
	}
	for _, d := range b.Days {
		x.holds[d] = b.ID
	}
}

func (x *Index) Blocked() []calendar.Day {
	set := make(calendar.Set, len(x.holds))
	for d := range x.holds {
		set.Add(d)
	}
	return set.Sorted()
}

func (x *Index) HeldBy(d calendar.Day) (booking.BookingID, bool) {
	id, ok := x.holds[d]
	return id, ok
}

// Conflicts returns the candidate days already held, in order.
func (x *Index) Conflicts(candidate []calendar.Day) []calendar.Day {
	var hits []calendar.Day
	for _, d := range calendar.Normalize(candidate) {
		if _, ok := x.holds[d]; ok {
			hits = append(hits, d)
		}
	}
	return hits
}

// Validate checks a candidate selection against today and the current holds.
// Checks run in order: empty, too long, past, outside the window, overlap.
func (x *Index) Validate(candidate []calendar.Day, today calendar.Day) error {
	days := calendar.Normalize(candidate)
	if len(days) == 0 {
		return ErrEmptySelection
	}
	if len(days) > calendar.MaxSelectionDays {
		return calendar.ErrSelectionTooLong
	}
	if calendar.IsStrictlyPast(days[0], today) {
		return ErrPastDay
	}
	for _, d := range days {
		if !x.Window.Contains(d) {
			return apperr.Validation(fmt.Sprintf("%s is outside the dates this item can be rented", d))
		}
	}
	if hits := x.Conflicts(days); len(hits) > 0 {
		return ConflictError(hits)
	}
	return nil
}

// ConflictError builds the conflict failure naming the first taken days.
func ConflictError(hits []calendar.Day) error {
	return booking.DatesTaken(hits)
}
