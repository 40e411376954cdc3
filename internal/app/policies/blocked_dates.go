package policies

import (
	"context"

	"shareit/internal/domain/calendar"
	"shareit/internal/domain/items"
)

// BlockedDatesCache keeps read-through copies of an item's blocked days. Entries must be
// invalidated after every committed change to the item's bookings.
//
// Entries are tagged with a generation that Invalidate advances. A miss reports the current
// generation and Set only stores under the generation it is given, so a reader that loaded
// the store before a concurrent commit cannot publish its stale result after the invalidation.
type BlockedDatesCache interface {
	Get(ctx context.Context, itemID items.ItemID) (days []calendar.Day, gen uint64, ok bool, err error)
	Set(ctx context.Context, itemID items.ItemID, gen uint64, days []calendar.Day) error
	Invalidate(ctx context.Context, itemID items.ItemID) error
}

// NoopBlockedDatesCache never hits.
type NoopBlockedDatesCache struct{}

func (NoopBlockedDatesCache) Get(context.Context, items.ItemID) ([]calendar.Day, uint64, bool, error) {
	return nil, 0, false, nil
}

func (NoopBlockedDatesCache) Set(context.Context, items.ItemID, uint64, []calendar.Day) error {
	return nil
}

func (NoopBlockedDatesCache) Invalidate(context.Context, items.ItemID) error { return nil }
