package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shareit/internal/app/uow"
	"shareit/internal/domain/booking"
	"shareit/internal/domain/calendar"
	"shareit/internal/domain/items"
	"shareit/internal/domain/shared/apperr"
)

var now = time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)

func newBooking(t *testing.T, id string, start, end string) *booking.Booking {
	t.Helper()
	days, err := calendar.ExpandRange(start, end)
	require.NoError(t, err)
	b, err := booking.NewBooking(booking.CreateParams{
		ID: booking.BookingID(id), ItemID: "drill", ItemTitle: "Drill", OwnerUID: "owner",
		RenterUID: "renter", Days: days, PricePerDayCents: 100, CreatedAt: now,
	})
	require.NoError(t, err)
	return b
}

func commit(t *testing.T, s *Store, fn func(ctx context.Context, u uow.UnitOfWork) error) error {
	t.Helper()
	ctx := context.Background()
	u, err := s.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	if err := fn(ctx, u); err != nil {
		require.NoError(t, u.Rollback(ctx))
		return err
	}
	return u.Commit(ctx)
}

func TestCreateClaimsDays(t *testing.T) {
	s := NewStore(nil)
	require.NoError(t, commit(t, s, func(ctx context.Context, u uow.UnitOfWork) error {
		return u.Bookings().Create(ctx, newBooking(t, "a", "2026-03-10", "2026-03-12"))
	}))
	assert.Len(t, s.Claims("drill"), 3)

	err := commit(t, s, func(ctx context.Context, u uow.UnitOfWork) error {
		return u.Bookings().Create(ctx, newBooking(t, "b", "2026-03-12", "2026-03-14"))
	})
	assert.ErrorIs(t, err, apperr.ErrConflict)
	assert.Contains(t, apperr.ReasonOf(err), "2026-03-12")
	assert.Len(t, s.Claims("drill"), 3)
}

func TestReleasedDaysCanBeRebookedInSameUnit(t *testing.T) {
	s := NewStore(nil)
	require.NoError(t, commit(t, s, func(ctx context.Context, u uow.UnitOfWork) error {
		return u.Bookings().Create(ctx, newBooking(t, "a", "2026-03-10", "2026-03-12"))
	}))

	require.NoError(t, commit(t, s, func(ctx context.Context, u uow.UnitOfWork) error {
		a, err := u.Bookings().ByID(ctx, "a")
		if err != nil {
			return err
		}
		if _, err := a.Transition(booking.StatusCancelled, booking.Actor{UID: "renter"}, now); err != nil {
			return err
		}
		if err := u.Bookings().Save(ctx, a); err != nil {
			return err
		}
		return u.Bookings().Create(ctx, newBooking(t, "b", "2026-03-11", "2026-03-11"))
	}))

	claims := s.Claims("drill")
	assert.Equal(t, map[calendar.Day]booking.BookingID{calendar.MustParseDay("2026-03-11"): "b"}, claims)
}

func TestRollbackDiscards(t *testing.T) {
	s := NewStore(nil)
	ctx := context.Background()
	u, err := s.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	require.NoError(t, u.Bookings().Create(ctx, newBooking(t, "a", "2026-03-10", "2026-03-10")))
	require.NoError(t, u.Rollback(ctx))

	ro, err := s.Begin(ctx, uow.TxOptions{ReadOnly: true})
	require.NoError(t, err)
	defer ro.Rollback(ctx)
	_, err = ro.Bookings().ByID(ctx, "a")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.ErrorIs(t, ro.Bookings().Save(ctx, newBooking(t, "a", "2026-03-10", "2026-03-10")), uow.ErrReadOnly)
}

func TestItemSaveIsVersionChecked(t *testing.T) {
	s := NewStore(nil)
	item, err := items.NewItem(items.CreateParams{ID: "drill", OwnerUID: "owner", Title: "Drill", Now: now})
	require.NoError(t, err)
	require.NoError(t, commit(t, s, func(ctx context.Context, u uow.UnitOfWork) error {
		return u.Items().Save(ctx, item)
	}))
	assert.Equal(t, int64(1), item.Version)

	stale := *item
	stale.Version = 0
	err = commit(t, s, func(ctx context.Context, u uow.UnitOfWork) error {
		return u.Items().Save(ctx, &stale)
	})
	assert.ErrorIs(t, err, uow.ErrConcurrentUpdate)
}

func TestWriteUnitsAreSerialized(t *testing.T) {
	s := NewStore(nil)
	ctx := context.Background()
	first, err := s.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)

	waitCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err = s.Begin(waitCtx, uow.TxOptions{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, first.Commit(ctx))
	second, err := s.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	require.NoError(t, second.Rollback(ctx))
}
