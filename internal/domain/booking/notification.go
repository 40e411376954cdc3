package booking

import (
	"fmt"
	"time"
)

type NotificationKind string

const (
	KindBookingRequest NotificationKind = "booking_request"
	KindBookingStatus  NotificationKind = "booking_status"
)

// Notification is a message owed to one party of a booking. Delivery belongs to the caller.
type Notification struct {
	RecipientUID string           `json:"recipient_uid"`
	ActorUID     string           `json:"actor_uid"`
	Kind         NotificationKind `json:"kind"`
	BookingID    BookingID        `json:"booking_id"`
	Title        string           `json:"title"`
	Text         string           `json:"text"`
	At           time.Time        `json:"at"`
}

func (n Notification) EventName() string     { return "notification." + string(n.Kind) }
func (n Notification) AggregateID() string   { return n.RecipientUID }
func (n Notification) OccurredAt() time.Time { return n.At }

// RequestNotification tells the owner about a new request.
func (b *Booking) RequestNotification() Notification {
	return Notification{
		RecipientUID: b.OwnerUID,
		ActorUID:     b.RenterUID,
		Kind:         KindBookingRequest,
		BookingID:    b.ID,
		Title:        "New booking request",
		Text:         fmt.Sprintf("You received a booking request for %q (%s)", b.ItemTitle, dayCount(len(b.Days))),
		At:           b.CreatedAt,
	}
}

func (b *Booking) statusNotification(role Role, actor Actor, to Status) Notification {
	n := Notification{
		ActorUID:  actor.UID,
		Kind:      KindBookingStatus,
		BookingID: b.ID,
		Title:     "Booking status",
		Text:      fmt.Sprintf("Item %q: %s", b.ItemTitle, to.Label()),
		At:        b.UpdatedAt,
	}
	switch role {
	case RoleOwner:
		n.RecipientUID = b.RenterUID
	case RoleRenter:
		n.RecipientUID = b.OwnerUID
		if to == StatusCompleted {
			n.Text = fmt.Sprintf("Item %q: Returned by the renter", b.ItemTitle)
		}
	case RoleSystem:
		n.RecipientUID = b.RenterUID
		n.Text = fmt.Sprintf("Item %q: Request expired without an answer", b.ItemTitle)
	}
	return n
}

func dayCount(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}
