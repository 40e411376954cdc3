package booking

import (
	"context"
	"log/slog"
	"strings"

	"shareit/internal/app/commands"
	"shareit/internal/app/dto"
	handlersupport "shareit/internal/app/handlers/support"
	"shareit/internal/app/middleware"
	"shareit/internal/app/outbox"
	"shareit/internal/app/policies"
	"shareit/internal/app/uow"
	domainbooking "shareit/internal/domain/booking"
	"shareit/internal/domain/shared/apperr"
)

const transitionBookingKey = "booking.transition"

var ErrBookingRequired = apperr.Validation("booking id is required")

// TransitionBookingCommand moves a booking on behalf of its owner or renter. Status accepts
// the legacy vocabulary too.
type TransitionBookingCommand struct {
	BookingID string
	Status    string
	Actor     string
}

func (c TransitionBookingCommand) Key() string      { return transitionBookingKey }
func (c TransitionBookingCommand) ActorUID() string { return strings.TrimSpace(c.Actor) }

func (c TransitionBookingCommand) Validate() error {
	if strings.TrimSpace(c.BookingID) == "" {
		return ErrBookingRequired
	}
	_, err := domainbooking.ParseStatus(c.Status)
	return err
}

type TransitionResult struct {
	Booking      dto.Booking                `json:"booking"`
	Notification domainbooking.Notification `json:"notification"`

	invalidate func(ctx context.Context)
}

func (r *TransitionResult) AfterCommit(ctx context.Context) {
	if r.invalidate != nil {
		r.invalidate(ctx)
	}
}

type TransitionBookingHandler struct {
	UoWFactory uow.UoWFactory
	Clock      policies.Clock
	Cache      policies.BlockedDatesCache
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

func (h *TransitionBookingHandler) Handle(ctx context.Context, cmd TransitionBookingCommand) (*TransitionResult, error) {
	actor := cmd.ActorUID()
	if actor == "" {
		return nil, domainbooking.ErrSignInRequired
	}
	to, err := domainbooking.ParseStatus(cmd.Status)
	if err != nil {
		return nil, err
	}
	unit, err := handlersupport.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer unit.Close()
	ctx = unit.Ctx

	b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(strings.TrimSpace(cmd.BookingID)))
	if err != nil {
		return nil, err
	}
	from := b.Status
	now := policies.ClockOrSystem(h.Clock).Now()
	notification, err := b.Transition(to, domainbooking.Actor{UID: actor}, now)
	if err != nil {
		return nil, err
	}
	if err := unit.Bookings().Save(ctx, b); err != nil {
		return nil, err
	}
	if err := handlersupport.RecordEvents(ctx, unit, h.Encoder, b); err != nil {
		return nil, err
	}
	if err := handlersupport.RecordNotifications(ctx, unit, h.Encoder, notification); err != nil {
		return nil, err
	}

	result := &TransitionResult{
		Booking:      dto.MapBooking(b),
		Notification: notification,
		invalidate:   invalidator(h.Cache, h.Logger, b.ItemID),
	}
	if unit.Owned() {
		if err := unit.CommitOwned(); err != nil {
			return nil, err
		}
		result.AfterCommit(ctx)
	}

	if h.Logger != nil {
		h.Logger.Info("booking transitioned", "booking_id", b.ID, "item_id", b.ItemID, "from", from, "to", to, "actor_uid", actor)
	}
	return result, nil
}

var (
	_ commands.Handler[TransitionBookingCommand, *TransitionResult] = (*TransitionBookingHandler)(nil)
	_ middleware.ActorBound                                         = TransitionBookingCommand{}
	_ middleware.SelfValidating                                     = TransitionBookingCommand{}
)
