package booking

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"shareit/internal/app/commands"
	handlersupport "shareit/internal/app/handlers/support"
	"shareit/internal/app/middleware"
	"shareit/internal/app/outbox"
	"shareit/internal/app/policies"
	"shareit/internal/app/uow"
	domainbooking "shareit/internal/domain/booking"
	"shareit/internal/domain/items"
)

const sweepKey = "booking.sweep"

// SweepCommand cancels expired pending requests. Populated fields narrow the scope; an
// empty command sweeps every pending booking.
type SweepCommand struct {
	RenterUID string
	OwnerUID  string
	ItemID    string
}

func (c SweepCommand) Key() string { return sweepKey }

// ManagesOwnUnits is true: every booking is cancelled in its own unit of work.
func (c SweepCommand) ManagesOwnUnits() bool { return true }

func (c SweepCommand) filter() domainbooking.Filter {
	return domainbooking.Filter{
		RenterUID: strings.TrimSpace(c.RenterUID),
		OwnerUID:  strings.TrimSpace(c.OwnerUID),
		ItemID:    items.ItemID(strings.TrimSpace(c.ItemID)),
		Statuses:  []domainbooking.Status{domainbooking.StatusPending},
	}
}

type SweepResult struct {
	Scanned       int                          `json:"scanned"`
	Cancelled     int                          `json:"cancelled"`
	Skipped       int                          `json:"skipped"`
	Failed        int                          `json:"failed"`
	Notifications []domainbooking.Notification `json:"notifications"`
}

type SweepHandler struct {
	UoWFactory uow.UoWFactory
	Clock      policies.Clock
	Cache      policies.BlockedDatesCache
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

var errNothingToCancel = errors.New("booking: nothing to cancel")

// Handle is best effort: a booking that fails is logged and left for the next sweep.
func (h *SweepHandler) Handle(ctx context.Context, cmd SweepCommand) (*SweepResult, error) {
	now := policies.ClockOrSystem(h.Clock).Now()
	candidates, err := h.expired(ctx, cmd.filter(), now)
	if err != nil {
		return nil, err
	}
	result := &SweepResult{Scanned: len(candidates), Notifications: []domainbooking.Notification{}}
	for _, b := range candidates {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		n, err := h.cancel(ctx, b.ID)
		switch {
		case err == nil:
			result.Cancelled++
			result.Notifications = append(result.Notifications, n)
			if inv := invalidator(h.Cache, h.Logger, b.ItemID); inv != nil {
				inv(ctx)
			}
		case errors.Is(err, errNothingToCancel), errors.Is(err, uow.ErrConcurrentUpdate):
			result.Skipped++
		default:
			result.Failed++
			if h.Logger != nil {
				h.Logger.Warn("expired booking not cancelled", "booking_id", b.ID, "error", err)
			}
		}
	}
	if h.Logger != nil && result.Scanned > 0 {
		h.Logger.Info("expired bookings swept", "scanned", result.Scanned, "cancelled", result.Cancelled, "skipped", result.Skipped, "failed", result.Failed)
	}
	return result, nil
}

func (h *SweepHandler) expired(ctx context.Context, filter domainbooking.Filter, now time.Time) ([]*domainbooking.Booking, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	pending, err := unit.Bookings().List(execCtx, filter)
	if err != nil {
		return nil, err
	}
	out := pending[:0]
	for _, b := range pending {
		if b.Expired(now) {
			out = append(out, b)
		}
	}
	return out, nil
}

// cancel re-reads the booking in a fresh unit so a request answered since the scan is left alone.
func (h *SweepHandler) cancel(ctx context.Context, id domainbooking.BookingID) (domainbooking.Notification, error) {
	if h.UoWFactory == nil {
		return domainbooking.Notification{}, uow.ErrUnitOfWorkMissing
	}
	unit, err := h.UoWFactory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return domainbooking.Notification{}, err
	}
	ctx = uow.Bind(ctx, unit)
	committed := false
	defer func() {
		if !committed {
			_ = unit.Rollback(ctx)
		}
	}()

	b, err := unit.Bookings().ByID(ctx, id)
	if err != nil {
		return domainbooking.Notification{}, err
	}
	now := policies.ClockOrSystem(h.Clock).Now()
	if !b.Expired(now) {
		return domainbooking.Notification{}, errNothingToCancel
	}
	n, err := b.Transition(domainbooking.StatusCancelled, domainbooking.SystemActor, now)
	if err != nil {
		return domainbooking.Notification{}, err
	}
	if err := unit.Bookings().Save(ctx, b); err != nil {
		return domainbooking.Notification{}, err
	}
	if err := handlersupport.RecordEvents(ctx, unit, h.Encoder, b); err != nil {
		return domainbooking.Notification{}, err
	}
	if err := handlersupport.RecordNotifications(ctx, unit, h.Encoder, n); err != nil {
		return domainbooking.Notification{}, err
	}
	if err := unit.Commit(ctx); err != nil {
		return domainbooking.Notification{}, err
	}
	committed = true
	return n, nil
}

var (
	_ commands.Handler[SweepCommand, *SweepResult] = (*SweepHandler)(nil)
	_ middleware.NonTransactional                  = SweepCommand{}
)
