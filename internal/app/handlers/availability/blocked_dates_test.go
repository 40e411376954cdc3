package availability_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	availabilityapp "shareit/internal/app/handlers/availability"
	"shareit/internal/app/uow"
	"shareit/internal/domain/calendar"
	"shareit/internal/domain/items"
	"shareit/internal/infra/storage/memory"
)

type cacheWrite struct {
	gen  uint64
	days []calendar.Day
}

type stubCache struct {
	gen     uint64
	readErr error
	writes  []cacheWrite
}

func (c *stubCache) Get(context.Context, items.ItemID) ([]calendar.Day, uint64, bool, error) {
	if c.readErr != nil {
		return nil, 0, false, c.readErr
	}
	return nil, c.gen, false, nil
}

func (c *stubCache) Set(_ context.Context, _ items.ItemID, gen uint64, days []calendar.Day) error {
	c.writes = append(c.writes, cacheWrite{gen: gen, days: days})
	return nil
}

func (c *stubCache) Invalidate(context.Context, items.ItemID) error {
	c.gen++
	return nil
}

func seededStore(t *testing.T) *memory.Store {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore(nil)
	unit, err := store.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	item, err := items.NewItem(items.CreateParams{ID: "drill", OwnerUID: "owner", Title: "Drill", PricePerDayCents: 1000, Now: time.Now()})
	require.NoError(t, err)
	require.NoError(t, unit.Items().Save(ctx, item))
	require.NoError(t, unit.Commit(ctx))
	return store
}

func TestBlockedDatesWritesBackUnderMissGeneration(t *testing.T) {
	cache := &stubCache{gen: 7}
	h := &availabilityapp.BlockedDatesHandler{UoWFactory: seededStore(t), Cache: cache}

	out, err := h.Handle(context.Background(), availabilityapp.BlockedDatesQuery{ItemID: "drill"})
	require.NoError(t, err)
	assert.Empty(t, out.Days)
	require.Len(t, cache.writes, 1)
	assert.Equal(t, uint64(7), cache.writes[0].gen)
}

func TestBlockedDatesSkipsWriteBackAfterCacheError(t *testing.T) {
	cache := &stubCache{readErr: errors.New("connection refused")}
	h := &availabilityapp.BlockedDatesHandler{UoWFactory: seededStore(t), Cache: cache}

	_, err := h.Handle(context.Background(), availabilityapp.BlockedDatesQuery{ItemID: "drill"})
	require.NoError(t, err)
	assert.Empty(t, cache.writes)
}
