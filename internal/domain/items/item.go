package items

import (
	"context"
	"errors"
	"strings"
	"time"

	"shareit/internal/domain/calendar"
	"shareit/internal/domain/shared/apperr"
	"shareit/internal/domain/shared/events"
)

var (
	ErrItemNotFound   = apperr.NotFound("item not found")
	ErrTitleRequired  = apperr.Validation("item title is required")
	ErrOwnerRequired  = apperr.Validation("item owner is required")
	ErrNegativePrice  = apperr.Validation("price per day must not be negative")
	ErrInvalidScore   = apperr.Validation("rating must be between 1 and 5")
	ErrAlreadyDeleted = errors.New("items: item already deleted")
)

const (
	MinScore = 1
	MaxScore = 5
)

type ItemID string

type ItemState string

const (
	ItemActive  ItemState = "active"
	ItemDeleted ItemState = "deleted"
)

type Item struct {
	ID               ItemID
	OwnerUID         string
	Title            string
	Category         string
	City             string
	PricePerDayCents int64
	Window           calendar.Window
	RatingAvg        float64
	RatingCount      int
	State            ItemState
	Version          int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id ItemID) (*Item, error)
	// Save writes the item if its stored version still equals item.Version and bumps it.
	Save(ctx context.Context, item *Item) error
	ListByOwner(ctx context.Context, ownerUID string) ([]*Item, error)
}

type CreateParams struct {
	ID               ItemID
	OwnerUID         string
	Title            string
	Category         string
	City             string
	PricePerDayCents int64
	Window           calendar.Window
	Now              time.Time
}

func NewItem(params CreateParams) (*Item, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, apperr.Validation("item id is required")
	}
	if strings.TrimSpace(params.OwnerUID) == "" {
		return nil, ErrOwnerRequired
	}
	if strings.TrimSpace(params.Title) == "" {
		return nil, ErrTitleRequired
	}
	if params.PricePerDayCents < 0 {
		return nil, ErrNegativePrice
	}
	now := params.Now.UTC()
	return &Item{
		ID:               params.ID,
		OwnerUID:         strings.TrimSpace(params.OwnerUID),
		Title:            strings.TrimSpace(params.Title),
		Category:         strings.TrimSpace(params.Category),
		City:             strings.TrimSpace(params.City),
		PricePerDayCents: params.PricePerDayCents,
		Window:           params.Window,
		State:            ItemActive,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// Bookable reports whether new bookings may reference the item.
func (i *Item) Bookable() bool {
	return i.State == ItemActive
}

// FoldRating folds one score into the running average. It is the only writer of the rating fields.
func (i *Item) FoldRating(score int, now time.Time) error {
	if score < MinScore || score > MaxScore {
		return ErrInvalidScore
	}
	count := float64(i.RatingCount)
	i.RatingAvg = (i.RatingAvg*count + float64(score)) / (count + 1)
	i.RatingCount++
	i.UpdatedAt = now.UTC()
	i.Record(RatingFolded{ItemID: i.ID, Score: score, Average: i.RatingAvg, Count: i.RatingCount, At: i.UpdatedAt})
	return nil
}

// UpdateDetails edits owner-controlled fields. Rating fields are left alone.
func (i *Item) UpdateDetails(title string, pricePerDayCents int64, window calendar.Window, now time.Time) error {
	if i.State == ItemDeleted {
		return ErrItemNotFound
	}
	if strings.TrimSpace(title) == "" {
		return ErrTitleRequired
	}
	if pricePerDayCents < 0 {
		return ErrNegativePrice
	}
	i.Title = strings.TrimSpace(title)
	i.PricePerDayCents = pricePerDayCents
	i.Window = window
	i.UpdatedAt = now.UTC()
	return nil
}

// Delete hides the item from new bookings. Existing bookings are not touched.
func (i *Item) Delete(now time.Time) error {
	if i.State == ItemDeleted {
		return ErrAlreadyDeleted
	}
	i.State = ItemDeleted
	i.UpdatedAt = now.UTC()
	i.Record(ItemDeletedEvent{ItemID: i.ID, At: i.UpdatedAt})
	return nil
}

type RatingFolded struct {
	ItemID  ItemID
	Score   int
	Average float64
	Count   int
	At      time.Time
}

func (e RatingFolded) EventName() string     { return "item.rating_folded" }
func (e RatingFolded) AggregateID() string   { return string(e.ItemID) }
func (e RatingFolded) OccurredAt() time.Time { return e.At }

type ItemDeletedEvent struct {
	ItemID ItemID
	At     time.Time
}

func (e ItemDeletedEvent) EventName() string     { return "item.deleted" }
func (e ItemDeletedEvent) AggregateID() string   { return string(e.ItemID) }
func (e ItemDeletedEvent) OccurredAt() time.Time { return e.At }
