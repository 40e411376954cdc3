package availability

import (
	"context"
	"log/slog"
	"strings"

	"shareit/internal/app/dto"
	handlersupport "shareit/internal/app/handlers/support"
	"shareit/internal/app/policies"
	"shareit/internal/app/queries"
	"shareit/internal/app/uow"
	"shareit/internal/domain/items"
)

const blockedDatesKey = "availability.blocked_dates"

type BlockedDatesQuery struct {
	ItemID string
}

func (q BlockedDatesQuery) Key() string { return blockedDatesKey }

// BlockedDatesHandler serves the blocked days of an item, reading through Cache when set.
type BlockedDatesHandler struct {
	UoWFactory uow.UoWFactory
	Cache      policies.BlockedDatesCache
	Logger     *slog.Logger
}

func (h *BlockedDatesHandler) Handle(ctx context.Context, q BlockedDatesQuery) (dto.BlockedDates, error) {
	id := items.ItemID(strings.TrimSpace(q.ItemID))
	if id == "" {
		return dto.BlockedDates{}, ErrItemRequired
	}
	var (
		gen       uint64
		cacheable bool
	)
	if h.Cache != nil {
		days, current, ok, err := h.Cache.Get(ctx, id)
		gen, cacheable = current, err == nil
		switch {
		case err != nil:
			h.warn("blocked dates cache read failed", id, err)
		case ok:
			return dto.MapBlockedDates(id, days), nil
		}
	}

	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.BlockedDates{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	index, err := loadIndex(execCtx, unit, string(id))
	if err != nil {
		return dto.BlockedDates{}, err
	}
	blocked := index.Blocked()
	if cacheable {
		if err := h.Cache.Set(ctx, id, gen, blocked); err != nil {
			h.warn("blocked dates cache write failed", id, err)
		}
	}
	return dto.MapBlockedDates(id, blocked), nil
}

func (h *BlockedDatesHandler) warn(msg string, id items.ItemID, err error) {
	if h.Logger != nil {
		h.Logger.Warn(msg, "item_id", id, "error", err)
	}
}

var _ queries.Handler[BlockedDatesQuery, dto.BlockedDates] = (*BlockedDatesHandler)(nil)
