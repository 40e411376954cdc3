package booking

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shareit/internal/domain/calendar"
	"shareit/internal/domain/shared/apperr"
)

var created = time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)

func pendingBooking(t *testing.T) *Booking {
	t.Helper()
	days, err := calendar.ExpandRange("2026-03-12", "2026-03-10")
	require.NoError(t, err)
	b, err := NewBooking(CreateParams{
		ID:               "b-1",
		ItemID:           "drill",
		ItemTitle:        "Drill",
		OwnerUID:         "owner",
		RenterUID:        "renter",
		Days:             days,
		PricePerDayCents: 1500,
		CreatedAt:        created,
	})
	require.NoError(t, err)
	return b
}

func TestNewBooking(t *testing.T) {
	b := pendingBooking(t)
	assert.Equal(t, StatusPending, b.Status)
	assert.Equal(t, int64(4500), b.TotalCents)
	assert.Equal(t, created.Add(24*time.Hour), b.ExpiresAt)
	assert.Equal(t, []string{"2026-03-10", "2026-03-11", "2026-03-12"}, calendar.Strings(b.Days))
	require.Len(t, b.PendingEvents(), 1)

	n := b.RequestNotification()
	assert.Equal(t, "owner", n.RecipientUID)
	assert.Equal(t, "renter", n.ActorUID)
	assert.Equal(t, KindBookingRequest, n.Kind)
	assert.Contains(t, n.Text, "3 days")
}

func TestNewBookingRejects(t *testing.T) {
	day := calendar.MustParseDay("2026-03-10")
	cases := []struct {
		name   string
		params CreateParams
		kind   error
	}{
		{"anonymous", CreateParams{OwnerUID: "owner", Days: []calendar.Day{day}}, apperr.ErrNotAuthenticated},
		{"own item", CreateParams{OwnerUID: "owner", RenterUID: "owner", Days: []calendar.Day{day}}, apperr.ErrForbidden},
		{"no days", CreateParams{OwnerUID: "owner", RenterUID: "renter"}, apperr.ErrValidation},
		{"negative price", CreateParams{OwnerUID: "owner", RenterUID: "renter", Days: []calendar.Day{day}, PricePerDayCents: -5}, apperr.ErrValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewBooking(tc.params)
			assert.True(t, errors.Is(err, tc.kind), "got %v", err)
		})
	}
}

func TestParseStatusLegacy(t *testing.T) {
	for raw, want := range map[string]Status{
		"Pending":   StatusPending,
		"Accepted":  StatusConfirmed,
		"confirmed": StatusConfirmed,
		"Returned":  StatusCompleted,
		"Rejected":  StatusRejected,
		"Cancelled": StatusCancelled,
	} {
		got, err := ParseStatus(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}
	_, err := ParseStatus("lost")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestTransitionMatrix(t *testing.T) {
	allowed := map[string]bool{
		"owner:pending->confirmed":    true,
		"owner:pending->rejected":     true,
		"owner:confirmed->completed":  true,
		"renter:pending->cancelled":   true,
		"renter:confirmed->cancelled": true,
		"renter:confirmed->completed": true,
		"system:pending->cancelled":   true,
	}
	actors := map[Role]Actor{
		RoleOwner:  {UID: "owner"},
		RoleRenter: {UID: "renter"},
		RoleSystem: SystemActor,
	}
	expired := created.Add(RequestTTL)

	for role, actor := range actors {
		for _, from := range AllStatuses {
			for _, to := range AllStatuses {
				key := fmt.Sprintf("%s:%s->%s", role, from, to)
				t.Run(key, func(t *testing.T) {
					b := pendingBooking(t)
					b.Status = from
					b.ClearEvents()

					n, err := b.Transition(to, actor, expired)
					if !allowed[key] {
						assert.ErrorIs(t, err, apperr.ErrForbiddenTransition)
						assert.Equal(t, from, b.Status)
						assert.Empty(t, b.PendingEvents())
						return
					}
					require.NoError(t, err)
					assert.Equal(t, to, b.Status)
					assert.Equal(t, KindBookingStatus, n.Kind)
					assert.NotEqual(t, actor.UID, n.RecipientUID)
					assert.Len(t, b.PendingEvents(), 1)
				})
			}
		}
	}
}

func TestTransitionStranger(t *testing.T) {
	b := pendingBooking(t)
	_, err := b.Transition(StatusConfirmed, Actor{UID: "stranger"}, created)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = b.Transition(StatusConfirmed, Actor{}, created)
	assert.ErrorIs(t, err, apperr.ErrNotAuthenticated)
	assert.Equal(t, StatusPending, b.Status)
}

func TestSystemCancelWaitsForExpiry(t *testing.T) {
	b := pendingBooking(t)

	_, err := b.Transition(StatusCancelled, SystemActor, b.ExpiresAt.Add(-time.Second))
	assert.ErrorIs(t, err, ErrNotExpired)
	assert.Equal(t, StatusPending, b.Status)

	n, err := b.Transition(StatusCancelled, SystemActor, b.ExpiresAt)
	require.NoError(t, err)
	assert.Equal(t, "renter", n.RecipientUID)
	assert.Equal(t, SystemUID, n.ActorUID)
	assert.Contains(t, n.Text, "expired")

	_, err = b.Transition(StatusCancelled, SystemActor, b.ExpiresAt)
	assert.ErrorIs(t, err, apperr.ErrForbiddenTransition)
}

func TestStatusNotificationText(t *testing.T) {
	texts := map[string]struct{}{}
	for _, step := range []struct {
		to    Status
		actor Actor
		from  Status
	}{
		{StatusConfirmed, Actor{UID: "owner"}, StatusPending},
		{StatusRejected, Actor{UID: "owner"}, StatusPending},
		{StatusCompleted, Actor{UID: "owner"}, StatusConfirmed},
		{StatusCancelled, Actor{UID: "renter"}, StatusPending},
	} {
		b := pendingBooking(t)
		b.Status = step.from
		n, err := b.Transition(step.to, step.actor, created)
		require.NoError(t, err)
		texts[n.Text] = struct{}{}
	}
	assert.Len(t, texts, 4)
}

func TestRate(t *testing.T) {
	b := pendingBooking(t)
	assert.ErrorIs(t, b.Rate(5, "", "renter", created), ErrNotCompleted)

	b.Status = StatusCompleted
	assert.ErrorIs(t, b.Rate(0, "", "renter", created), apperr.ErrValidation)
	assert.ErrorIs(t, b.Rate(6, "", "renter", created), apperr.ErrValidation)
	assert.ErrorIs(t, b.Rate(5, "", "owner", created), ErrNotRenter)

	require.NoError(t, b.Rate(4, "  solid tool ", "renter", created))
	require.NotNil(t, b.Rating)
	assert.Equal(t, "solid tool", b.Rating.Comment)

	err := b.Rate(5, "", "renter", created)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	assert.Equal(t, 4, b.Rating.Score)
}

func TestFilterMatches(t *testing.T) {
	b := pendingBooking(t)
	assert.True(t, Filter{}.Matches(b))
	assert.True(t, Filter{RenterUID: "renter", Statuses: []Status{StatusPending, StatusConfirmed}}.Matches(b))
	assert.False(t, Filter{OwnerUID: "renter"}.Matches(b))
	assert.False(t, Filter{Statuses: []Status{StatusCompleted}}.Matches(b))
	assert.False(t, Filter{ItemID: "saw"}.Matches(b))
}

func TestStoredNamesIncludeLegacySpellings(t *testing.T) {
	assert.Equal(t, []string{"confirmed", "Accepted", "completed", "Returned"},
		StoredNames([]Status{StatusConfirmed, StatusCompleted}))
}
