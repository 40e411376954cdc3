package ratings

import (
	"context"
	"log/slog"
	"strings"

	"shareit/internal/app/commands"
	handlersupport "shareit/internal/app/handlers/support"
	"shareit/internal/app/middleware"
	"shareit/internal/app/outbox"
	"shareit/internal/app/policies"
	"shareit/internal/app/uow"
	domainbooking "shareit/internal/domain/booking"
	"shareit/internal/domain/items"
	"shareit/internal/domain/shared/apperr"
)

const submitRatingKey = "ratings.submit"

var (
	ErrBookingRequired = apperr.Validation("booking id is required")
	ErrItemMismatch    = apperr.Validation("the rating does not match the booked item")
)

// SubmitRatingCommand rates the item of a completed booking. ItemID is optional and, when
// given, must be the booked item.
type SubmitRatingCommand struct {
	BookingID string
	ItemID    string
	Score     int
	Comment   string
	Rater     string
}

func (c SubmitRatingCommand) Key() string      { return submitRatingKey }
func (c SubmitRatingCommand) ActorUID() string { return strings.TrimSpace(c.Rater) }

func (c SubmitRatingCommand) Validate() error {
	if c.Score < items.MinScore || c.Score > items.MaxScore {
		return items.ErrInvalidScore
	}
	if strings.TrimSpace(c.BookingID) == "" {
		return ErrBookingRequired
	}
	return nil
}

type RatingResult struct {
	BookingID   string  `json:"booking_id"`
	ItemID      string  `json:"item_id"`
	Score       int     `json:"score"`
	RatingAvg   float64 `json:"rating_avg"`
	RatingCount int     `json:"rating_count"`
}

// SubmitRatingHandler writes the rating and folds it into the item in one unit. Both saves
// are version checked; a lost race surfaces as uow.ErrConcurrentUpdate and the command is
// retried from the start.
type SubmitRatingHandler struct {
	UoWFactory uow.UoWFactory
	Clock      policies.Clock
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

func (h *SubmitRatingHandler) Handle(ctx context.Context, cmd SubmitRatingCommand) (*RatingResult, error) {
	if err := cmd.Validate(); err != nil {
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
	if id := strings.TrimSpace(cmd.ItemID); id != "" && items.ItemID(id) != b.ItemID {
		return nil, ErrItemMismatch
	}
	now := policies.ClockOrSystem(h.Clock).Now()
	if err := b.Rate(cmd.Score, cmd.Comment, cmd.ActorUID(), now); err != nil {
		return nil, err
	}
	if err := unit.Bookings().Save(ctx, b); err != nil {
		return nil, err
	}

	item, err := unit.Items().ByID(ctx, b.ItemID)
	if err != nil {
		return nil, err
	}
	if err := item.FoldRating(cmd.Score, now); err != nil {
		return nil, err
	}
	if err := unit.Items().Save(ctx, item); err != nil {
		return nil, err
	}
	if err := handlersupport.RecordEvents(ctx, unit, h.Encoder, b, item); err != nil {
		return nil, err
	}
	if err := unit.CommitOwned(); err != nil {
		return nil, err
	}

	if h.Logger != nil {
		h.Logger.Info("rating submitted", "booking_id", b.ID, "item_id", item.ID, "score", cmd.Score, "rating_count", item.RatingCount)
	}
	return &RatingResult{
		BookingID:   string(b.ID),
		ItemID:      string(item.ID),
		Score:       cmd.Score,
		RatingAvg:   item.RatingAvg,
		RatingCount: item.RatingCount,
	}, nil
}

var (
	_ commands.Handler[SubmitRatingCommand, *RatingResult] = (*SubmitRatingHandler)(nil)
	_ middleware.ActorBound                                = SubmitRatingCommand{}
	_ middleware.SelfValidating                            = SubmitRatingCommand{}
)
