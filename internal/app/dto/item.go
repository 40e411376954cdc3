package dto

import (
	"time"

	"shareit/internal/domain/calendar"
	"shareit/internal/domain/items"
	"shareit/internal/domain/shared/money"
)

type Item struct {
	ID          string    `json:"id"`
	OwnerUID    string    `json:"owner_uid"`
	Title       string    `json:"title"`
	Category    string    `json:"category,omitempty"`
	City        string    `json:"city,omitempty"`
	PricePerDay MoneyDTO  `json:"price_per_day"`
	From        string    `json:"available_from,omitempty"`
	To          string    `json:"available_to,omitempty"`
	RatingAvg   float64   `json:"rating_avg"`
	RatingCount int       `json:"rating_count"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func MapItem(item *items.Item) Item {
	out := Item{
		ID:          string(item.ID),
		OwnerUID:    item.OwnerUID,
		Title:       item.Title,
		Category:    item.Category,
		City:        item.City,
		PricePerDay: MapMoney(money.Cents(item.PricePerDayCents)),
		RatingAvg:   item.RatingAvg,
		RatingCount: item.RatingCount,
		UpdatedAt:   item.UpdatedAt,
	}
	if item.Window.From != nil {
		out.From = item.Window.From.String()
	}
	if item.Window.To != nil {
		out.To = item.Window.To.String()
	}
	return out
}

type BlockedDates struct {
	ItemID string   `json:"item_id"`
	Days   []string `json:"days"`
}

func MapBlockedDates(id items.ItemID, days []calendar.Day) BlockedDates {
	return BlockedDates{ItemID: string(id), Days: calendar.Strings(days)}
}
