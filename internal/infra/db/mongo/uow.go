package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	appoutbox "shareit/internal/app/outbox"
	"shareit/internal/app/uow"
	"shareit/internal/domain/booking"
	"shareit/internal/domain/items"
)

// Factory wires Mongo transactions into the generic UnitOfWork interface. Outbox records
// added through a unit are written inside its transaction.
type Factory struct {
	DB     *mongo.Database
	Outbox appoutbox.Outbox
}

var ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")

func NewFactory(db *mongo.Database, box appoutbox.Outbox) Factory {
	return Factory{DB: db, Outbox: box}
}

// Begin starts a session transaction for write units. Read-only units read outside a
// transaction and reject writes.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	unit := &Unit{
		items:    NewItemRepository(f.DB).withReadOnly(opts.ReadOnly),
		bookings: NewBookingRepository(f.DB).withReadOnly(opts.ReadOnly),
		outbox:   f.Outbox,
		readOnly: opts.ReadOnly,
	}
	if opts.ReadOnly {
		return unit, nil
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, err
	}
	txnOpts := options.Transaction().SetReadConcern(f.DB.ReadConcern()).SetWriteConcern(f.DB.WriteConcern())
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, err
	}
	unit.session = session
	return unit, nil
}

type Unit struct {
	session  mongo.Session
	readOnly bool

	items    *ItemRepository
	bookings *BookingRepository
	outbox   appoutbox.Outbox
}

func (u *Unit) Items() items.Repository      { return u.items }
func (u *Unit) Bookings() booking.Repository { return u.bookings }

func (u *Unit) Outbox() appoutbox.Outbox {
	if u.readOnly || u.outbox == nil {
		return readOnlyOutbox{}
	}
	return u.outbox
}

func (u *Unit) Commit(ctx context.Context) error {
	if u.session == nil {
		return nil
	}
	defer u.session.EndSession(ctx)
	return translate(u.session.CommitTransaction(ctx))
}

func (u *Unit) Rollback(ctx context.Context) error {
	if u.session == nil {
		return nil
	}
	defer u.session.EndSession(ctx)
	return u.session.AbortTransaction(ctx)
}

// InjectContext ensures the Mongo session is available in context for downstream repos.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	if u.session == nil {
		return ctx
	}
	return mongo.NewSessionContext(ctx, u.session)
}

type readOnlyOutbox struct{}

func (readOnlyOutbox) Add(context.Context, appoutbox.EventRecord) error { return uow.ErrReadOnly }
func (readOnlyOutbox) Flush(context.Context) error                      { return nil }

var (
	_ uow.UoWFactory = Factory{}
	_ uow.UnitOfWork = (*Unit)(nil)
)
