package memory

import (
	"context"
	"errors"

	appoutbox "shareit/internal/app/outbox"
	"shareit/internal/app/uow"
	"shareit/internal/domain/booking"
	"shareit/internal/domain/items"
)

var ErrUnitClosed = errors.New("memory: unit of work already finished")

// Begin opens a unit. Write units wait for the previous write unit to finish.
func (s *Store) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if !opts.ReadOnly {
		select {
		case s.writer <- struct{}{}:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return &Unit{
		store:    s,
		readOnly: opts.ReadOnly,
		items:    make(map[items.ItemID]*items.Item),
		bookings: make(map[booking.BookingID]*booking.Booking),
		created:  make(map[booking.BookingID]bool),
	}, nil
}

// Unit stages writes and applies them all at commit.
type Unit struct {
	store    *Store
	readOnly bool
	done     bool

	items    map[items.ItemID]*items.Item
	bookings map[booking.BookingID]*booking.Booking
	created  map[booking.BookingID]bool
	records  []appoutbox.EventRecord
}

func (u *Unit) Items() items.Repository      { return itemRepository{u} }
func (u *Unit) Bookings() booking.Repository { return bookingRepository{u} }
func (u *Unit) Outbox() appoutbox.Outbox     { return unitOutbox{u} }

func (u *Unit) Commit(ctx context.Context) error {
	if u.done {
		return ErrUnitClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	defer u.finish()
	if u.readOnly {
		return nil
	}

	s := u.store
	s.mu.Lock()
	for id, item := range u.items {
		s.items[id] = cloneItem(item)
	}
	for id, b := range u.bookings {
		s.bookings[id] = cloneBooking(b)
		if b.Status.Live() {
			for _, d := range b.Days {
				s.claims[claimKey{b.ItemID, d}] = id
			}
			continue
		}
		for _, d := range b.Days {
			key := claimKey{b.ItemID, d}
			if s.claims[key] == id {
				delete(s.claims, key)
			}
		}
	}
	s.mu.Unlock()

	s.outbox.append(u.records...)
	return nil
}

func (u *Unit) Rollback(context.Context) error {
	if u.done {
		return nil
	}
	u.finish()
	return nil
}

func (u *Unit) finish() {
	u.done = true
	u.items, u.bookings, u.created, u.records = nil, nil, nil, nil
	if !u.readOnly {
		<-u.store.writer
	}
}

func (u *Unit) writable() error {
	if u.done {
		return ErrUnitClosed
	}
	if u.readOnly {
		return uow.ErrReadOnly
	}
	return nil
}

var (
	_ uow.UoWFactory = (*Store)(nil)
	_ uow.UnitOfWork = (*Unit)(nil)
)
