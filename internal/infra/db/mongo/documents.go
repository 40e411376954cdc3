package mongo

import (
	"time"

	"shareit/internal/domain/booking"
	"shareit/internal/domain/calendar"
	"shareit/internal/domain/items"
)

type itemDocument struct {
	ID               string  `bson:"_id"`
	OwnerUID         string  `bson:"owner_uid"`
	Title            string  `bson:"title"`
	Category         string  `bson:"category,omitempty"`
	City             string  `bson:"city,omitempty"`
	PricePerDayCents int64   `bson:"price_per_day_cents"`
	AvailableFrom    string  `bson:"available_from,omitempty"`
	AvailableTo      string  `bson:"available_to,omitempty"`
	RatingAvg        float64 `bson:"rating_avg"`
	RatingCount      int     `bson:"rating_count"`
	State            string  `bson:"state"`
	CreatedAt        int64   `bson:"created_at"`
	UpdatedAt        int64   `bson:"updated_at"`
	Version          int64   `bson:"version"`
}

func newItemDocument(item *items.Item) itemDocument {
	doc := itemDocument{
		ID:               string(item.ID),
		OwnerUID:         item.OwnerUID,
		Title:            item.Title,
		Category:         item.Category,
		City:             item.City,
		PricePerDayCents: item.PricePerDayCents,
		RatingAvg:        item.RatingAvg,
		RatingCount:      item.RatingCount,
		State:            string(item.State),
		CreatedAt:        item.CreatedAt.UnixMilli(),
		UpdatedAt:        item.UpdatedAt.UnixMilli(),
		Version:          item.Version,
	}
	if item.Window.From != nil {
		doc.AvailableFrom = item.Window.From.String()
	}
	if item.Window.To != nil {
		doc.AvailableTo = item.Window.To.String()
	}
	return doc
}

func (d itemDocument) toAggregate() (*items.Item, error) {
	window, err := calendar.NewWindow(d.AvailableFrom, d.AvailableTo)
	if err != nil {
		return nil, err
	}
	return &items.Item{
		ID:               items.ItemID(d.ID),
		OwnerUID:         d.OwnerUID,
		Title:            d.Title,
		Category:         d.Category,
		City:             d.City,
		PricePerDayCents: d.PricePerDayCents,
		Window:           window,
		RatingAvg:        d.RatingAvg,
		RatingCount:      d.RatingCount,
		State:            items.ItemState(d.State),
		CreatedAt:        timestampToTime(d.CreatedAt),
		UpdatedAt:        timestampToTime(d.UpdatedAt),
		Version:          d.Version,
	}, nil
}

type bookingDocument struct {
	ID               string          `bson:"_id"`
	ItemID           string          `bson:"item_id"`
	ItemTitle        string          `bson:"item_title"`
	OwnerUID         string          `bson:"owner_uid"`
	RenterUID        string          `bson:"renter_uid"`
	Days             []string        `bson:"days"`
	PricePerDayCents int64           `bson:"price_per_day_cents"`
	TotalCents       int64           `bson:"total_cents"`
	Status           string          `bson:"status"`
	Rating           *ratingDocument `bson:"rating,omitempty"`
	CreatedAt        int64           `bson:"created_at"`
	UpdatedAt        int64           `bson:"updated_at"`
	ExpiresAt        int64           `bson:"expires_at"`
	Version          int64           `bson:"version"`
}

type ratingDocument struct {
	Score     int    `bson:"score"`
	Comment   string `bson:"comment,omitempty"`
	RaterUID  string `bson:"rater_uid"`
	CreatedAt int64  `bson:"created_at"`
}

func newBookingDocument(b *booking.Booking) bookingDocument {
	doc := bookingDocument{
		ID:               string(b.ID),
		ItemID:           string(b.ItemID),
		ItemTitle:        b.ItemTitle,
		OwnerUID:         b.OwnerUID,
		RenterUID:        b.RenterUID,
		Days:             calendar.Strings(b.Days),
		PricePerDayCents: b.PricePerDayCents,
		TotalCents:       b.TotalCents,
		Status:           string(b.Status),
		CreatedAt:        b.CreatedAt.UnixMilli(),
		UpdatedAt:        b.UpdatedAt.UnixMilli(),
		ExpiresAt:        b.ExpiresAt.UnixMilli(),
		Version:          b.Version,
	}
	if b.Rating != nil {
		doc.Rating = &ratingDocument{
			Score:     b.Rating.Score,
			Comment:   b.Rating.Comment,
			RaterUID:  b.Rating.RaterUID,
			CreatedAt: b.Rating.CreatedAt.UnixMilli(),
		}
	}
	return doc
}

// toAggregate accepts documents written with the legacy status vocabulary.
func (d bookingDocument) toAggregate() (*booking.Booking, error) {
	days, err := calendar.ParseDays(d.Days)
	if err != nil {
		return nil, err
	}
	status, err := booking.ParseStatus(d.Status)
	if err != nil {
		return nil, err
	}
	agg := &booking.Booking{
		ID:               booking.BookingID(d.ID),
		ItemID:           items.ItemID(d.ItemID),
		ItemTitle:        d.ItemTitle,
		OwnerUID:         d.OwnerUID,
		RenterUID:        d.RenterUID,
		Days:             days,
		PricePerDayCents: d.PricePerDayCents,
		TotalCents:       d.TotalCents,
		Status:           status,
		CreatedAt:        timestampToTime(d.CreatedAt),
		UpdatedAt:        timestampToTime(d.UpdatedAt),
		ExpiresAt:        timestampToTime(d.ExpiresAt),
		Version:          d.Version,
	}
	if d.Rating != nil {
		agg.Rating = &booking.Rating{
			Score:     d.Rating.Score,
			Comment:   d.Rating.Comment,
			RaterUID:  d.Rating.RaterUID,
			CreatedAt: timestampToTime(d.Rating.CreatedAt),
		}
	}
	return agg, nil
}

// dayClaimDocument is one (item, day) slot held by a live booking.
type dayClaimDocument struct {
	ID        string `bson:"_id"`
	ItemID    string `bson:"item_id"`
	Day       string `bson:"day"`
	BookingID string `bson:"booking_id"`
}

func claimID(item items.ItemID, day calendar.Day) string {
	return string(item) + "/" + day.String()
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
