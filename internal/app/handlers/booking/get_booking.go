package booking

import (
	"context"
	"strings"

	"shareit/internal/app/dto"
	handlersupport "shareit/internal/app/handlers/support"
	"shareit/internal/app/queries"
	"shareit/internal/app/uow"
	domainbooking "shareit/internal/domain/booking"
)

const getBookingKey = "booking.get"

type GetBookingQuery struct {
	BookingID string
	Actor     string
}

func (q GetBookingQuery) Key() string      { return getBookingKey }
func (q GetBookingQuery) ActorUID() string { return strings.TrimSpace(q.Actor) }

// GetBookingHandler shows a booking to its owner or renter only.
type GetBookingHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetBookingHandler) Handle(ctx context.Context, q GetBookingQuery) (dto.Booking, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Booking{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	b, err := unit.Bookings().ByID(execCtx, domainbooking.BookingID(strings.TrimSpace(q.BookingID)))
	if err != nil {
		return dto.Booking{}, err
	}
	if _, ok := b.RoleOf(domainbooking.Actor{UID: q.ActorUID()}); !ok {
		return dto.Booking{}, domainbooking.ErrNotParty
	}
	return dto.MapBooking(b), nil
}

var _ queries.Handler[GetBookingQuery, dto.Booking] = (*GetBookingHandler)(nil)
