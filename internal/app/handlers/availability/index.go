package availability

import (
	"context"
	"strings"

	"shareit/internal/app/uow"
	domainavailability "shareit/internal/domain/availability"
	"shareit/internal/domain/booking"
	"shareit/internal/domain/items"
	"shareit/internal/domain/shared/apperr"
)

var ErrItemRequired = apperr.Validation("item id is required")

// loadIndex builds the index of a bookable item from its live bookings as stored. Pending
// requests past their deadline keep blocking until a sweep cancels them.
func loadIndex(ctx context.Context, unit uow.UnitOfWork, rawID string) (*domainavailability.Index, error) {
	id := items.ItemID(strings.TrimSpace(rawID))
	if id == "" {
		return nil, ErrItemRequired
	}
	item, err := unit.Items().ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !item.Bookable() {
		return nil, items.ErrItemNotFound
	}
	live, err := unit.Bookings().List(ctx, booking.Filter{
		ItemID:   id,
		Statuses: []booking.Status{booking.StatusPending, booking.StatusConfirmed},
	})
	if err != nil {
		return nil, err
	}
	return domainavailability.NewIndex(item, live), nil
}
