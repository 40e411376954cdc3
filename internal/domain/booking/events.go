package booking

import (
	"time"

	"shareit/internal/domain/items"
)

type BookingRequested struct {
	BookingID  BookingID
	ItemID     items.ItemID
	RenterUID  string
	Days       []string
	TotalCents int64
	At         time.Time
}

func (e BookingRequested) EventName() string     { return "booking.requested" }
func (e BookingRequested) AggregateID() string   { return string(e.BookingID) }
func (e BookingRequested) OccurredAt() time.Time { return e.At }

type StatusChanged struct {
	BookingID BookingID
	ItemID    items.ItemID
	From      Status
	To        Status
	ActorUID  string
	At        time.Time
}

func (e StatusChanged) EventName() string     { return "booking." + string(e.To) }
func (e StatusChanged) AggregateID() string   { return string(e.BookingID) }
func (e StatusChanged) OccurredAt() time.Time { return e.At }

type BookingRated struct {
	BookingID BookingID
	ItemID    items.ItemID
	Score     int
	At        time.Time
}

func (e BookingRated) EventName() string     { return "booking.rated" }
func (e BookingRated) AggregateID() string   { return string(e.BookingID) }
func (e BookingRated) OccurredAt() time.Time { return e.At }
