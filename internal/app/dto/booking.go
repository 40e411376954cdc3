package dto

import (
	"time"

	"shareit/internal/domain/booking"
	"shareit/internal/domain/calendar"
	"shareit/internal/domain/shared/money"
)

type MoneyDTO struct {
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Formatted string `json:"formatted"`
}

func MapMoney(value money.Money) MoneyDTO {
	return MoneyDTO{Amount: value.Amount, Currency: value.Currency, Formatted: value.String()}
}

type Rating struct {
	Score     int       `json:"score"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Booking struct {
	ID          string    `json:"id"`
	ItemID      string    `json:"item_id"`
	ItemTitle   string    `json:"item_title"`
	OwnerUID    string    `json:"owner_uid"`
	RenterUID   string    `json:"renter_uid"`
	Days        []string  `json:"days"`
	PricePerDay MoneyDTO  `json:"price_per_day"`
	Total       MoneyDTO  `json:"total"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	ExpiresAt   time.Time `json:"expires_at"`
	Rating      *Rating   `json:"rating,omitempty"`
	CanRate     bool      `json:"can_rate"`
}

func MapBooking(b *booking.Booking) Booking {
	out := Booking{
		ID:          string(b.ID),
		ItemID:      string(b.ItemID),
		ItemTitle:   b.ItemTitle,
		OwnerUID:    b.OwnerUID,
		RenterUID:   b.RenterUID,
		Days:        calendar.Strings(b.Days),
		PricePerDay: MapMoney(money.Cents(b.PricePerDayCents)),
		Total:       MapMoney(money.Cents(b.TotalCents)),
		Status:      string(b.Status),
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
		ExpiresAt:   b.ExpiresAt,
		CanRate:     b.Status == booking.StatusCompleted && b.Rating == nil,
	}
	if b.Rating != nil {
		out.Rating = &Rating{Score: b.Rating.Score, Comment: b.Rating.Comment, CreatedAt: b.Rating.CreatedAt}
	}
	return out
}

func MapBookings(bs []*booking.Booking) []Booking {
	out := make([]Booking, 0, len(bs))
	for _, b := range bs {
		out = append(out, MapBooking(b))
	}
	return out
}

type BookingCollection struct {
	Items []Booking `json:"items"`
}
