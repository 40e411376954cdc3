package booking

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"shareit/internal/app/commands"
	"shareit/internal/app/dto"
	handlersupport "shareit/internal/app/handlers/support"
	"shareit/internal/app/middleware"
	"shareit/internal/app/outbox"
	"shareit/internal/app/policies"
	"shareit/internal/app/uow"
	domainavailability "shareit/internal/domain/availability"
	domainbooking "shareit/internal/domain/booking"
	"shareit/internal/domain/calendar"
	"shareit/internal/domain/items"
	"shareit/internal/domain/shared/apperr"
)

const createBookingKey = "booking.create"

var (
	ErrItemRequired = apperr.Validation("item id is required")
	ErrPriceChanged = apperr.Validation("the price of this item has changed, please review the booking")
)

// CreateBookingCommand requests the given days of an item. PricePerDayCents is the price the
// renter saw; zero skips the check.
type CreateBookingCommand struct {
	BookingID        string
	ItemID           string
	RenterUID        string
	Days             []string
	PricePerDayCents int64
	IdempotencyKeyV  string
}

func (c CreateBookingCommand) Key() string            { return createBookingKey }
func (c CreateBookingCommand) ActorUID() string       { return strings.TrimSpace(c.RenterUID) }
func (c CreateBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }
func (c CreateBookingCommand) ResultPrototype() any   { return &CreateBookingResult{} }

func (c CreateBookingCommand) Validate() error {
	if strings.TrimSpace(c.ItemID) == "" {
		return ErrItemRequired
	}
	if len(c.Days) == 0 {
		return domainavailability.ErrEmptySelection
	}
	if len(c.Days) > calendar.MaxSelectionDays {
		return calendar.ErrSelectionTooLong
	}
	return nil
}

type CreateBookingResult struct {
	Booking      dto.Booking                `json:"booking"`
	Notification domainbooking.Notification `json:"notification"`

	invalidate func(ctx context.Context)
}

func (r *CreateBookingResult) AfterCommit(ctx context.Context) {
	if r.invalidate != nil {
		r.invalidate(ctx)
	}
}

type CreateBookingHandler struct {
	UoWFactory uow.UoWFactory
	Clock      policies.Clock
	Cache      policies.BlockedDatesCache
	Encoder    outbox.EventEncoder
	NewID      func() string
	Logger     *slog.Logger
}

func (h *CreateBookingHandler) Handle(ctx context.Context, cmd CreateBookingCommand) (*CreateBookingResult, error) {
	renter := cmd.ActorUID()
	if renter == "" {
		return nil, domainbooking.ErrSignInRequired
	}
	days, err := calendar.ParseDays(cmd.Days)
	if err != nil {
		return nil, err
	}
	unit, err := handlersupport.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer unit.Close()
	ctx = unit.Ctx

	item, err := unit.Items().ByID(ctx, items.ItemID(strings.TrimSpace(cmd.ItemID)))
	if err != nil {
		return nil, err
	}
	if !item.Bookable() {
		return nil, items.ErrItemNotFound
	}
	if renter == item.OwnerUID {
		return nil, domainbooking.ErrOwnItem
	}
	if cmd.PricePerDayCents != 0 && cmd.PricePerDayCents != item.PricePerDayCents {
		return nil, ErrPriceChanged
	}

	live, err := unit.Bookings().List(ctx, liveBookingsOf(item.ID))
	if err != nil {
		return nil, err
	}
	now := policies.ClockOrSystem(h.Clock).Now()
	index := domainavailability.NewIndex(item, live)
	if err := index.Validate(days, calendar.DayOf(now)); err != nil {
		return nil, err
	}

	b, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:               domainbooking.BookingID(h.bookingID(cmd)),
		ItemID:           item.ID,
		ItemTitle:        item.Title,
		OwnerUID:         item.OwnerUID,
		RenterUID:        renter,
		Days:             days,
		PricePerDayCents: item.PricePerDayCents,
		CreatedAt:        now,
	})
	if err != nil {
		return nil, err
	}
	if err := unit.Bookings().Create(ctx, b); err != nil {
		return nil, err
	}

	notification := b.RequestNotification()
	if err := handlersupport.RecordEvents(ctx, unit, h.Encoder, b); err != nil {
		return nil, err
	}
	if err := handlersupport.RecordNotifications(ctx, unit, h.Encoder, notification); err != nil {
		return nil, err
	}

	result := &CreateBookingResult{
		Booking:      dto.MapBooking(b),
		Notification: notification,
		invalidate:   invalidator(h.Cache, h.Logger, item.ID),
	}
	if unit.Owned() {
		if err := unit.CommitOwned(); err != nil {
			return nil, err
		}
		result.AfterCommit(ctx)
	}

	if h.Logger != nil {
		h.Logger.Info("booking requested", "booking_id", b.ID, "item_id", item.ID, "renter_uid", renter, "days", len(b.Days), "total_cents", b.TotalCents)
	}
	return result, nil
}

func (h *CreateBookingHandler) bookingID(cmd CreateBookingCommand) string {
	if id := strings.TrimSpace(cmd.BookingID); id != "" {
		return id
	}
	if h.NewID != nil {
		return h.NewID()
	}
	return uuid.NewString()
}

func liveBookingsOf(id items.ItemID) domainbooking.Filter {
	return domainbooking.Filter{
		ItemID:   id,
		Statuses: []domainbooking.Status{domainbooking.StatusPending, domainbooking.StatusConfirmed},
	}
}

// invalidator drops the cached blocked days of an item. A failed drop leaves an entry that
// expires on its own, so it is only logged.
func invalidator(cache policies.BlockedDatesCache, logger *slog.Logger, id items.ItemID) func(context.Context) {
	if cache == nil {
		return nil
	}
	return func(ctx context.Context) {
		if err := cache.Invalidate(ctx, id); err != nil && logger != nil {
			logger.Warn("blocked dates cache invalidation failed", "item_id", id, "error", err)
		}
	}
}

var (
	_ commands.Handler[CreateBookingCommand, *CreateBookingResult] = (*CreateBookingHandler)(nil)
	_ middleware.IdempotentCommand                                 = CreateBookingCommand{}
	_ middleware.ActorBound                                        = CreateBookingCommand{}
	_ middleware.SelfValidating                                    = CreateBookingCommand{}
	_ middleware.AfterCommit                                       = (*CreateBookingResult)(nil)
)
