package items

import (
	"context"
	"strings"

	"shareit/internal/app/dto"
	handlersupport "shareit/internal/app/handlers/support"
	"shareit/internal/app/queries"
	"shareit/internal/app/uow"
	domainitems "shareit/internal/domain/items"
)

const (
	getItemKey        = "items.get"
	listOwnerItemsKey = "items.list_owner"
)

type GetItemQuery struct {
	ItemID string
}

func (q GetItemQuery) Key() string { return getItemKey }

type GetItemHandler struct {
	UoWFactory uow.UoWFactory
}

// Handle resolves a bookable item. Deleted items are reported as not found.
func (h *GetItemHandler) Handle(ctx context.Context, q GetItemQuery) (dto.Item, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Item{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	item, err := unit.Items().ByID(execCtx, domainitems.ItemID(strings.TrimSpace(q.ItemID)))
	if err != nil {
		return dto.Item{}, err
	}
	if !item.Bookable() {
		return dto.Item{}, domainitems.ErrItemNotFound
	}
	return dto.MapItem(item), nil
}

type ListOwnerItemsQuery struct {
	OwnerUID string
}

func (q ListOwnerItemsQuery) Key() string      { return listOwnerItemsKey }
func (q ListOwnerItemsQuery) ActorUID() string { return strings.TrimSpace(q.OwnerUID) }

type ListOwnerItemsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListOwnerItemsHandler) Handle(ctx context.Context, q ListOwnerItemsQuery) ([]dto.Item, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	list, err := unit.Items().ListByOwner(execCtx, q.ActorUID())
	if err != nil {
		return nil, err
	}
	out := make([]dto.Item, 0, len(list))
	for _, item := range list {
		if item.Bookable() {
			out = append(out, dto.MapItem(item))
		}
	}
	return out, nil
}

var (
	_ queries.Handler[GetItemQuery, dto.Item]          = (*GetItemHandler)(nil)
	_ queries.Handler[ListOwnerItemsQuery, []dto.Item] = (*ListOwnerItemsHandler)(nil)
)
