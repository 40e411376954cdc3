package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	appoutbox "shareit/internal/app/outbox"
	"shareit/internal/app/uow"
	"shareit/internal/domain/booking"
	"shareit/internal/domain/items"
)

var ErrUnitOfWorkNotConfigured = errors.New("postgres: unit of work factory missing pool")

// Factory opens one pgx transaction per unit.
type Factory struct {
	Pool *pgxpool.Pool
}

func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.Pool == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	txOpts := pgx.TxOptions{IsoLevel: pgx.ReadCommitted}
	if opts.ReadOnly {
		txOpts.AccessMode = pgx.ReadOnly
	}
	tx, err := f.Pool.BeginTx(ctx, txOpts)
	if err != nil {
		return nil, err
	}
	return &Unit{tx: tx, readOnly: opts.ReadOnly}, nil
}

type Unit struct {
	tx       pgx.Tx
	readOnly bool
}

func (u *Unit) Items() items.Repository      { return itemRepository{tx: u.tx, readOnly: u.readOnly} }
func (u *Unit) Bookings() booking.Repository { return bookingRepository{tx: u.tx, readOnly: u.readOnly} }
func (u *Unit) Outbox() appoutbox.Outbox     { return unitOutbox{tx: u.tx, readOnly: u.readOnly} }

func (u *Unit) Commit(ctx context.Context) error {
	return translate(u.tx.Commit(ctx))
}

// Rollback is safe after Commit.
func (u *Unit) Rollback(ctx context.Context) error {
	err := u.tx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}

var (
	_ uow.UoWFactory = Factory{}
	_ uow.UnitOfWork = (*Unit)(nil)
)
