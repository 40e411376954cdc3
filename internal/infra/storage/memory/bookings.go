package memory

import (
	"context"

	"shareit/internal/app/uow"
	"shareit/internal/domain/booking"
	"shareit/internal/domain/calendar"
)

type bookingRepository struct{ u *Unit }

func (u *Unit) readable() error {
	if u.done {
		return ErrUnitClosed
	}
	return nil
}

func (r bookingRepository) ByID(_ context.Context, id booking.BookingID) (*booking.Booking, error) {
	if err := r.u.readable(); err != nil {
		return nil, err
	}
	if staged, ok := r.u.bookings[id]; ok {
		return cloneBooking(staged), nil
	}
	s := r.u.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, booking.ErrBookingNotFound
	}
	return cloneBooking(b), nil
}

// Create claims every day of b for its item or fails with the taken days.
func (r bookingRepository) Create(ctx context.Context, b *booking.Booking) error {
	if err := r.u.writable(); err != nil {
		return err
	}
	if _, err := r.ByID(ctx, b.ID); err == nil {
		return uow.ErrConcurrentUpdate
	}
	var taken []calendar.Day
	for _, d := range b.Days {
		if _, held := r.u.holder(b, d); held {
			taken = append(taken, d)
		}
	}
	if len(taken) > 0 {
		return booking.DatesTaken(taken)
	}
	b.Version = 1
	r.u.bookings[b.ID] = cloneBooking(b)
	r.u.created[b.ID] = true
	return nil
}

func (r bookingRepository) Save(ctx context.Context, b *booking.Booking) error {
	if err := r.u.writable(); err != nil {
		return err
	}
	current, err := r.ByID(ctx, b.ID)
	if err != nil {
		return err
	}
	if current.Version != b.Version {
		return uow.ErrConcurrentUpdate
	}
	b.Version++
	r.u.bookings[b.ID] = cloneBooking(b)
	return nil
}

func (r bookingRepository) List(_ context.Context, filter booking.Filter) ([]*booking.Booking, error) {
	if err := r.u.readable(); err != nil {
		return nil, err
	}
	s := r.u.store
	var out []*booking.Booking
	s.mu.RLock()
	for id, b := range s.bookings {
		if _, staged := r.u.bookings[id]; staged {
			continue
		}
		if filter.Matches(b) {
			out = append(out, cloneBooking(b))
		}
	}
	s.mu.RUnlock()
	for _, b := range r.u.bookings {
		if filter.Matches(b) {
			out = append(out, cloneBooking(b))
		}
	}
	newestFirst(out)
	return out, nil
}

// holder reports which live booking other than b holds day d of b's item, looking at
// staged writes before committed claims.
func (u *Unit) holder(b *booking.Booking, d calendar.Day) (booking.BookingID, bool) {
	for id, staged := range u.bookings {
		if id == b.ID || staged.ItemID != b.ItemID || !staged.Status.Live() {
			continue
		}
		for _, sd := range staged.Days {
			if sd == d {
				return id, true
			}
		}
	}
	s := u.store
	s.mu.RLock()
	id, ok := s.claims[claimKey{b.ItemID, d}]
	s.mu.RUnlock()
	if !ok || id == b.ID {
		return "", false
	}
	if staged, isStaged := u.bookings[id]; isStaged && !staged.Status.Live() {
		return "", false
	}
	return id, true
}

var _ booking.Repository = bookingRepository{}
