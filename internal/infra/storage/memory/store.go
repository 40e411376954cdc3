package memory

import (
	"sort"
	"sync"

	"shareit/internal/domain/booking"
	"shareit/internal/domain/calendar"
	"shareit/internal/domain/items"
	"shareit/internal/domain/shared/events"
)

type claimKey struct {
	item items.ItemID
	day  calendar.Day
}

// Store keeps items, bookings and day claims in process memory. Write units are serialized,
// so a unit sees every committed write and no concurrent ones.
type Store struct {
	mu       sync.RWMutex
	items    map[items.ItemID]*items.Item
	bookings map[booking.BookingID]*booking.Booking
	claims   map[claimKey]booking.BookingID
	outbox   *Outbox

	writer chan struct{}
}

func NewStore(box *Outbox) *Store {
	if box == nil {
		box = NewOutbox(nil)
	}
	return &Store{
		items:    make(map[items.ItemID]*items.Item),
		bookings: make(map[booking.BookingID]*booking.Booking),
		claims:   make(map[claimKey]booking.BookingID),
		outbox:   box,
		writer:   make(chan struct{}, 1),
	}
}

func (s *Store) Outbox() *Outbox { return s.outbox }

// Claims returns the committed day claims of an item, for inspection in tests.
func (s *Store) Claims(id items.ItemID) map[calendar.Day]booking.BookingID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[calendar.Day]booking.BookingID)
	for k, holder := range s.claims {
		if k.item == id {
			out[k.day] = holder
		}
	}
	return out
}

func cloneItem(in *items.Item) *items.Item {
	out := *in
	out.EventRecorder = events.EventRecorder{}
	if in.Window.From != nil {
		from := *in.Window.From
		out.Window.From = &from
	}
	if in.Window.To != nil {
		to := *in.Window.To
		out.Window.To = &to
	}
	return &out
}

func cloneBooking(in *booking.Booking) *booking.Booking {
	out := *in
	out.EventRecorder = events.EventRecorder{}
	out.Days = append([]calendar.Day(nil), in.Days...)
	if in.Rating != nil {
		r := *in.Rating
		out.Rating = &r
	}
	return &out
}

// newestFirst orders by creation time descending, then id for a stable order.
func newestFirst(list []*booking.Booking) {
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID > list[j].ID
	})
}
