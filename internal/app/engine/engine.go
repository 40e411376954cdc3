// Package engine exposes the booking operations over the command and query buses with
// the standard middleware chain applied.
package engine

import (
	"context"
	"log/slog"
	"time"

	"shareit/internal/app/commands"
	"shareit/internal/app/dto"
	availabilityapp "shareit/internal/app/handlers/availability"
	bookingapp "shareit/internal/app/handlers/booking"
	itemsapp "shareit/internal/app/handlers/items"
	ratingsapp "shareit/internal/app/handlers/ratings"
	"shareit/internal/app/middleware"
	"shareit/internal/app/outbox"
	"shareit/internal/app/policies"
	"shareit/internal/app/queries"
	"shareit/internal/app/uow"
)

const (
	defaultRetryAttempts = 5
	defaultRetryBackoff  = 10 * time.Millisecond
)

type Deps struct {
	UoW         uow.UoWFactory
	Clock       policies.Clock
	Identity    policies.IdentityAccessor
	Cache       policies.BlockedDatesCache
	Idempotency middleware.IdempotencyStore
	// Relay is flushed after every successful command. Optional.
	Relay         outbox.Outbox
	Encoder       outbox.EventEncoder
	NewID         func() string
	RetryAttempts int
	RetryBackoff  time.Duration
	Logger        *slog.Logger
}

type Engine struct {
	commands commands.Bus
	queries  queries.Bus
}

func New(d Deps) *Engine {
	if d.UoW == nil {
		panic("engine: uow factory required")
	}
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := policies.ClockOrSystem(d.Clock)
	cache := d.Cache
	if cache == nil {
		cache = policies.NoopBlockedDatesCache{}
	}
	encoder := d.Encoder
	if encoder == nil {
		encoder = outbox.JSONEventEncoder{}
	}
	attempts := d.RetryAttempts
	if attempts <= 0 {
		attempts = defaultRetryAttempts
	}
	backoff := d.RetryBackoff
	if backoff < 0 {
		backoff = 0
	} else if backoff == 0 {
		backoff = defaultRetryBackoff
	}

	sweeper := &bookingapp.SweepHandler{UoWFactory: d.UoW, Clock: clock, Cache: cache, Encoder: encoder, Logger: logger}

	commandBus := commands.NewInMemoryBus()
	commands.RegisterHandler[bookingapp.CreateBookingCommand, *bookingapp.CreateBookingResult](commandBus, &bookingapp.CreateBookingHandler{
		UoWFactory: d.UoW, Clock: clock, Cache: cache, Encoder: encoder, NewID: d.NewID, Logger: logger,
	})
	commands.RegisterHandler[bookingapp.TransitionBookingCommand, *bookingapp.TransitionResult](commandBus, &bookingapp.TransitionBookingHandler{
		UoWFactory: d.UoW, Clock: clock, Cache: cache, Encoder: encoder, Logger: logger,
	})
	commands.RegisterHandler[bookingapp.SweepCommand, *bookingapp.SweepResult](commandBus, sweeper)
	commands.RegisterHandler[ratingsapp.SubmitRatingCommand, *ratingsapp.RatingResult](commandBus, &ratingsapp.SubmitRatingHandler{
		UoWFactory: d.UoW, Clock: clock, Encoder: encoder, Logger: logger,
	})
	commands.RegisterHandler[itemsapp.CreateItemCommand, *dto.Item](commandBus, &itemsapp.CreateItemHandler{Clock: clock, Logger: logger})
	commands.RegisterHandler[itemsapp.UpdateItemCommand, *dto.Item](commandBus, &itemsapp.UpdateItemHandler{Clock: clock, Logger: logger})
	commands.RegisterHandler[itemsapp.DeleteItemCommand, *dto.Item](commandBus, &itemsapp.DeleteItemHandler{Clock: clock, Encoder: encoder, Logger: logger})

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler[bookingapp.ListBookingsQuery, dto.BookingCollection](queryBus, &bookingapp.ListBookingsHandler{
		UoWFactory: d.UoW, Sweeper: sweeper, Logger: logger,
	})
	queries.RegisterHandler[bookingapp.GetBookingQuery, dto.Booking](queryBus, &bookingapp.GetBookingHandler{UoWFactory: d.UoW})
	queries.RegisterHandler[availabilityapp.BlockedDatesQuery, dto.BlockedDates](queryBus, &availabilityapp.BlockedDatesHandler{
		UoWFactory: d.UoW, Cache: cache, Logger: logger,
	})
	queries.RegisterHandler[availabilityapp.ValidateCandidateQuery, availabilityapp.CandidateResult](queryBus, &availabilityapp.ValidateCandidateHandler{
		UoWFactory: d.UoW, Clock: clock,
	})
	queries.RegisterHandler[itemsapp.GetItemQuery, dto.Item](queryBus, &itemsapp.GetItemHandler{UoWFactory: d.UoW})
	queries.RegisterHandler[itemsapp.ListOwnerItemsQuery, []dto.Item](queryBus, &itemsapp.ListOwnerItemsHandler{UoWFactory: d.UoW})

	authz := middleware.ActorAuthorizer{Identity: d.Identity}
	chain := []middleware.CommandMiddleware{
		middleware.Classify(),
		middleware.Logging(logger),
		middleware.Retry(attempts, backoff),
	}
	if d.Idempotency != nil {
		chain = append(chain, middleware.Idempotency(d.Idempotency, nil))
	}
	chain = append(chain,
		middleware.Authorization(authz),
		middleware.Validation(middleware.SelfValidator{}),
	)
	if d.Relay != nil {
		chain = append(chain, middleware.OutboxFlush(d.Relay, logger))
	}
	chain = append(chain, middleware.Transaction(d.UoW, nil))

	return &Engine{
		commands: middleware.ChainCommands(commandBus, chain...),
		queries: middleware.ChainQueries(queryBus,
			middleware.QueryClassify(),
			middleware.QueryLogging(logger),
			middleware.QueryAuthorization(authz),
			middleware.QueryValidation(middleware.SelfValidator{}),
		),
	}
}

// Commands exposes the wrapped command bus for adapters that dispatch directly.
func (e *Engine) Commands() commands.Bus { return e.commands }

func (e *Engine) Queries() queries.Bus { return e.queries }

func (e *Engine) CreateBooking(ctx context.Context, cmd bookingapp.CreateBookingCommand) (*bookingapp.CreateBookingResult, error) {
	return commands.Dispatch[bookingapp.CreateBookingCommand, *bookingapp.CreateBookingResult](ctx, e.commands, cmd)
}

func (e *Engine) Transition(ctx context.Context, cmd bookingapp.TransitionBookingCommand) (*bookingapp.TransitionResult, error) {
	return commands.Dispatch[bookingapp.TransitionBookingCommand, *bookingapp.TransitionResult](ctx, e.commands, cmd)
}

func (e *Engine) Sweep(ctx context.Context, cmd bookingapp.SweepCommand) (*bookingapp.SweepResult, error) {
	return commands.Dispatch[bookingapp.SweepCommand, *bookingapp.SweepResult](ctx, e.commands, cmd)
}

func (e *Engine) SubmitRating(ctx context.Context, cmd ratingsapp.SubmitRatingCommand) (*ratingsapp.RatingResult, error) {
	return commands.Dispatch[ratingsapp.SubmitRatingCommand, *ratingsapp.RatingResult](ctx, e.commands, cmd)
}

func (e *Engine) CreateItem(ctx context.Context, cmd itemsapp.CreateItemCommand) (*dto.Item, error) {
	return commands.Dispatch[itemsapp.CreateItemCommand, *dto.Item](ctx, e.commands, cmd)
}

func (e *Engine) UpdateItem(ctx context.Context, cmd itemsapp.UpdateItemCommand) (*dto.Item, error) {
	return commands.Dispatch[itemsapp.UpdateItemCommand, *dto.Item](ctx, e.commands, cmd)
}

func (e *Engine) DeleteItem(ctx context.Context, cmd itemsapp.DeleteItemCommand) (*dto.Item, error) {
	return commands.Dispatch[itemsapp.DeleteItemCommand, *dto.Item](ctx, e.commands, cmd)
}

func (e *Engine) BlockedDates(ctx context.Context, itemID string) (dto.BlockedDates, error) {
	return queries.Ask[availabilityapp.BlockedDatesQuery, dto.BlockedDates](ctx, e.queries, availabilityapp.BlockedDatesQuery{ItemID: itemID})
}

func (e *Engine) ValidateCandidate(ctx context.Context, q availabilityapp.ValidateCandidateQuery) (availabilityapp.CandidateResult, error) {
	return queries.Ask[availabilityapp.ValidateCandidateQuery, availabilityapp.CandidateResult](ctx, e.queries, q)
}

func (e *Engine) ListBookings(ctx context.Context, q bookingapp.ListBookingsQuery) (dto.BookingCollection, error) {
	return queries.Ask[bookingapp.ListBookingsQuery, dto.BookingCollection](ctx, e.queries, q)
}

func (e *Engine) Booking(ctx context.Context, q bookingapp.GetBookingQuery) (dto.Booking, error) {
	return queries.Ask[bookingapp.GetBookingQuery, dto.Booking](ctx, e.queries, q)
}

func (e *Engine) Item(ctx context.Context, itemID string) (dto.Item, error) {
	return queries.Ask[itemsapp.GetItemQuery, dto.Item](ctx, e.queries, itemsapp.GetItemQuery{ItemID: itemID})
}

func (e *Engine) OwnerItems(ctx context.Context, ownerUID string) ([]dto.Item, error) {
	return queries.Ask[itemsapp.ListOwnerItemsQuery, []dto.Item](ctx, e.queries, itemsapp.ListOwnerItemsQuery{OwnerUID: ownerUID})
}
