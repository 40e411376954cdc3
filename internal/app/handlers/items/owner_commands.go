package items

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
	"shareit/internal/domain/calendar"
	domainitems "shareit/internal/domain/items"
)

const (
	createItemKey = "items.create"
	updateItemKey = "items.update"
	deleteItemKey = "items.delete"
)

var ErrNotItemOwner = domainitems.ErrItemNotFound

// ItemPayload carries owner-editable fields. AvailableFrom and AvailableTo are optional
// YYYY-MM-DD bounds of the rentable period.
type ItemPayload struct {
	Title            string
	Category         string
	City             string
	PricePerDayCents int64
	AvailableFrom    string
	AvailableTo      string
}

func (p ItemPayload) window() (calendar.Window, error) {
	return calendar.NewWindow(strings.TrimSpace(p.AvailableFrom), strings.TrimSpace(p.AvailableTo))
}

type CreateItemCommand struct {
	ItemID   string
	OwnerUID string
	Payload  ItemPayload
}

func (c CreateItemCommand) Key() string      { return createItemKey }
func (c CreateItemCommand) ActorUID() string { return strings.TrimSpace(c.OwnerUID) }

type CreateItemHandler struct {
	Clock  policies.Clock
	Logger *slog.Logger
}

func (h *CreateItemHandler) Handle(ctx context.Context, cmd CreateItemCommand) (*dto.Item, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, uow.ErrUnitOfWorkMissing
	}
	window, err := cmd.Payload.window()
	if err != nil {
		return nil, err
	}
	id := strings.TrimSpace(cmd.ItemID)
	if id == "" {
		id = uuid.NewString()
	}
	item, err := domainitems.NewItem(domainitems.CreateParams{
		ID:               domainitems.ItemID(id),
		OwnerUID:         cmd.ActorUID(),
		Title:            cmd.Payload.Title,
		Category:         cmd.Payload.Category,
		City:             cmd.Payload.City,
		PricePerDayCents: cmd.Payload.PricePerDayCents,
		Window:           window,
		Now:              policies.ClockOrSystem(h.Clock).Now(),
	})
	if err != nil {
		return nil, err
	}
	if err := unit.Items().Save(ctx, item); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("item created", "item_id", item.ID, "owner_uid", item.OwnerUID)
	}
	result := dto.MapItem(item)
	return &result, nil
}

type UpdateItemCommand struct {
	ItemID   string
	OwnerUID string
	Payload  ItemPayload
}

func (c UpdateItemCommand) Key() string      { return updateItemKey }
func (c UpdateItemCommand) ActorUID() string { return strings.TrimSpace(c.OwnerUID) }

type UpdateItemHandler struct {
	Clock  policies.Clock
	Logger *slog.Logger
}

func (h *UpdateItemHandler) Handle(ctx context.Context, cmd UpdateItemCommand) (*dto.Item, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, uow.ErrUnitOfWorkMissing
	}
	item, err := ownedItem(ctx, unit, cmd.ItemID, cmd.ActorUID())
	if err != nil {
		return nil, err
	}
	window, err := cmd.Payload.window()
	if err != nil {
		return nil, err
	}
	now := policies.ClockOrSystem(h.Clock).Now()
	if err := item.UpdateDetails(cmd.Payload.Title, cmd.Payload.PricePerDayCents, window, now); err != nil {
		return nil, err
	}
	if err := unit.Items().Save(ctx, item); err != nil {
		return nil, err
	}
	result := dto.MapItem(item)
	return &result, nil
}

// DeleteItemCommand hides an item from new bookings. Its bookings stay as they are.
type DeleteItemCommand struct {
	ItemID   string
	OwnerUID string
}

func (c DeleteItemCommand) Key() string      { return deleteItemKey }
func (c DeleteItemCommand) ActorUID() string { return strings.TrimSpace(c.OwnerUID) }

type DeleteItemHandler struct {
	Clock   policies.Clock
	Encoder outbox.EventEncoder
	Logger  *slog.Logger
}

func (h *DeleteItemHandler) Handle(ctx context.Context, cmd DeleteItemCommand) (*dto.Item, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, uow.ErrUnitOfWorkMissing
	}
	item, err := ownedItem(ctx, unit, cmd.ItemID, cmd.ActorUID())
	if err != nil {
		return nil, err
	}
	if err := item.Delete(policies.ClockOrSystem(h.Clock).Now()); err != nil {
		return nil, domainitems.ErrItemNotFound
	}
	if err := unit.Items().Save(ctx, item); err != nil {
		return nil, err
	}
	if err := handlersupport.RecordEvents(ctx, unit, h.Encoder, item); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("item deleted", "item_id", item.ID, "owner_uid", item.OwnerUID)
	}
	result := dto.MapItem(item)
	return &result, nil
}

// ownedItem loads an item for its owner. Other users get not-found so ids do not leak.
func ownedItem(ctx context.Context, unit uow.UnitOfWork, id, ownerUID string) (*domainitems.Item, error) {
	item, err := unit.Items().ByID(ctx, domainitems.ItemID(strings.TrimSpace(id)))
	if err != nil {
		return nil, err
	}
	if item.OwnerUID != ownerUID {
		return nil, ErrNotItemOwner
	}
	return item, nil
}

var (
	_ commands.Handler[CreateItemCommand, *dto.Item] = (*CreateItemHandler)(nil)
	_ commands.Handler[UpdateItemCommand, *dto.Item] = (*UpdateItemHandler)(nil)
	_ commands.Handler[DeleteItemCommand, *dto.Item] = (*DeleteItemHandler)(nil)
	_ middleware.ActorBound                          = CreateItemCommand{}
)
