package uow

import (
	"context"
	"errors"

	"shareit/internal/app/outbox"
	"shareit/internal/domain/booking"
	"shareit/internal/domain/items"
)

// ErrConcurrentUpdate is returned by repositories when a conditional write lost a race.
// The whole unit may be retried.
var ErrConcurrentUpdate = errors.New("uow: concurrent update detected")

// ErrReadOnly is returned by writes attempted through a read-only unit.
var ErrReadOnly = errors.New("uow: unit of work is read-only")

// UnitOfWork coordinates repositories inside a transaction boundary.
type UnitOfWork interface {
	Items() items.Repository
	Bookings() booking.Repository
	// Outbox records messages that become visible only if the unit commits.
	Outbox() outbox.Outbox

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UoWFactory starts unit of work instances.
type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

// TxOptions configure transaction boundaries.
type TxOptions struct {
	ReadOnly bool
}
