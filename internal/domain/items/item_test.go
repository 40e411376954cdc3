package items

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shareit/internal/domain/calendar"
	"shareit/internal/domain/shared/apperr"
)

var now = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

func newDrill(t *testing.T) *Item {
	t.Helper()
	item, err := NewItem(CreateParams{ID: "drill", OwnerUID: "owner-1", Title: " Drill ", PricePerDayCents: 1500, Now: now})
	require.NoError(t, err)
	return item
}

func TestNewItemValidation(t *testing.T) {
	_, err := NewItem(CreateParams{ID: "x", OwnerUID: "o", Title: "  ", Now: now})
	assert.True(t, errors.Is(err, ErrTitleRequired))

	_, err = NewItem(CreateParams{ID: "x", Title: "Saw", Now: now})
	assert.True(t, errors.Is(err, ErrOwnerRequired))

	_, err = NewItem(CreateParams{ID: "x", OwnerUID: "o", Title: "Saw", PricePerDayCents: -1, Now: now})
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	item := newDrill(t)
	assert.Equal(t, "Drill", item.Title)
	assert.True(t, item.Bookable())
}

func TestFoldRatingKeepsRunningMean(t *testing.T) {
	item := newDrill(t)
	item.RatingAvg = 4.0
	item.RatingCount = 2

	require.NoError(t, item.FoldRating(5, now))

	assert.InDelta(t, 13.0/3.0, item.RatingAvg, 1e-9)
	assert.Equal(t, 3, item.RatingCount)
	assert.Len(t, item.PendingEvents(), 1)
}

func TestFoldRatingFromEmpty(t *testing.T) {
	item := newDrill(t)
	for _, s := range []int{5, 4, 3, 1} {
		require.NoError(t, item.FoldRating(s, now))
	}
	assert.InDelta(t, 3.25, item.RatingAvg, 1e-9)
	assert.Equal(t, 4, item.RatingCount)
}

func TestFoldRatingRejectsOutOfRange(t *testing.T) {
	item := newDrill(t)
	for _, s := range []int{0, 6, -3} {
		err := item.FoldRating(s, now)
		assert.True(t, errors.Is(err, ErrInvalidScore), "score %d", s)
	}
	assert.Zero(t, item.RatingCount)
	assert.Zero(t, item.RatingAvg)
}

func TestDeleteBlocksUpdates(t *testing.T) {
	item := newDrill(t)
	require.NoError(t, item.Delete(now))
	assert.False(t, item.Bookable())
	assert.ErrorIs(t, item.Delete(now), ErrAlreadyDeleted)
	assert.ErrorIs(t, item.UpdateDetails("Drill", 100, calendar.Window{}, now), ErrItemNotFound)
}

func TestUpdateDetailsLeavesRating(t *testing.T) {
	item := newDrill(t)
	require.NoError(t, item.FoldRating(4, now))
	w, err := calendar.NewWindow("2026-04-01", "2026-04-30")
	require.NoError(t, err)

	require.NoError(t, item.UpdateDetails("Cordless drill", 2000, w, now))
	assert.Equal(t, int64(2000), item.PricePerDayCents)
	assert.Equal(t, 1, item.RatingCount)
	assert.InDelta(t, 4.0, item.RatingAvg, 1e-9)
}
