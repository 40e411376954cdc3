package booking

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"shareit/internal/app/dto"
	handlersupport "shareit/internal/app/handlers/support"
	"shareit/internal/app/middleware"
	"shareit/internal/app/queries"
	"shareit/internal/app/uow"
	domainbooking "shareit/internal/domain/booking"
	"shareit/internal/domain/shared/apperr"
)

const listBookingsKey = "booking.list"

type Role string

const (
	RoleRenter Role = "renter"
	RoleOwner  Role = "owner"
)

// ListBookingsQuery lists the actor's bookings as renter (default) or owner. Status filters
// by one status; empty lists all.
type ListBookingsQuery struct {
	Actor  string
	Role   Role
	Status string
}

func (q ListBookingsQuery) Key() string      { return listBookingsKey }
func (q ListBookingsQuery) ActorUID() string { return strings.TrimSpace(q.Actor) }

func (q ListBookingsQuery) Validate() error {
	switch q.Role {
	case "", RoleRenter, RoleOwner:
	default:
		return apperr.Validation("role must be renter or owner")
	}
	if strings.TrimSpace(q.Status) == "" {
		return nil
	}
	_, err := domainbooking.ParseStatus(q.Status)
	return err
}

// ListBookingsHandler sweeps the actor's expired requests before reading, so a list never
// shows a request that is already past its deadline.
type ListBookingsHandler struct {
	UoWFactory uow.UoWFactory
	Sweeper    *SweepHandler
	Logger     *slog.Logger
}

func (h *ListBookingsHandler) Handle(ctx context.Context, q ListBookingsQuery) (dto.BookingCollection, error) {
	actor := q.ActorUID()
	if actor == "" {
		return dto.BookingCollection{}, domainbooking.ErrSignInRequired
	}
	filter := domainbooking.Filter{RenterUID: actor}
	scope := SweepCommand{RenterUID: actor}
	if q.Role == RoleOwner {
		filter = domainbooking.Filter{OwnerUID: actor}
		scope = SweepCommand{OwnerUID: actor}
	}
	if raw := strings.TrimSpace(q.Status); raw != "" {
		status, err := domainbooking.ParseStatus(raw)
		if err != nil {
			return dto.BookingCollection{}, err
		}
		filter.Statuses = []domainbooking.Status{status}
	}

	if h.Sweeper != nil {
		if _, err := h.Sweeper.Handle(ctx, scope); err != nil && h.Logger != nil {
			h.Logger.Warn("sweep before listing failed", "actor_uid", actor, "error", err)
		}
	}

	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	bookings, err := unit.Bookings().List(execCtx, filter)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	sort.SliceStable(bookings, func(i, j int) bool {
		return bookings[i].CreatedAt.After(bookings[j].CreatedAt)
	})

	if h.Logger != nil {
		h.Logger.Debug("bookings listed", "actor_uid", actor, "role", q.Role, "count", len(bookings))
	}
	return dto.BookingCollection{Items: dto.MapBookings(bookings)}, nil
}

var (
	_ queries.Handler[ListBookingsQuery, dto.BookingCollection] = (*ListBookingsHandler)(nil)
	_ middleware.ActorBound                                     = ListBookingsQuery{}
)
