package support

import (
	"context"

	"shareit/internal/app/outbox"
	"shareit/internal/app/uow"
	"shareit/internal/domain/shared/events"
)

// BeginReadOnlyUnit reuses the unit on ctx or opens a read-only one. cleanup is nil when
// the unit was reused.
func BeginReadOnlyUnit(ctx context.Context, factory uow.UoWFactory) (uow.UnitOfWork, context.Context, func(), error) {
	if unit, ok := uow.FromContext(ctx); ok {
		return unit, ctx, nil, nil
	}
	if factory == nil {
		return nil, ctx, nil, uow.ErrUnitOfWorkMissing
	}
	unit, err := factory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, ctx, nil, err
	}
	execCtx := uow.Bind(ctx, unit)
	return unit, execCtx, func() { _ = unit.Rollback(execCtx) }, nil
}

// ManagedUnit is a write unit that is either borrowed from the context or owned by the
// handler. Only owned units are committed or rolled back here.
type ManagedUnit struct {
	uow.UnitOfWork
	Ctx       context.Context
	owned     bool
	committed bool
}

func BeginUnit(ctx context.Context, factory uow.UoWFactory) (*ManagedUnit, error) {
	if unit, ok := uow.FromContext(ctx); ok {
		return &ManagedUnit{UnitOfWork: unit, Ctx: ctx}, nil
	}
	if factory == nil {
		return nil, uow.ErrUnitOfWorkMissing
	}
	unit, err := factory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return nil, err
	}
	return &ManagedUnit{UnitOfWork: unit, Ctx: uow.Bind(ctx, unit), owned: true}, nil
}

// Owned reports whether the handler controls the unit's commit.
func (m *ManagedUnit) Owned() bool { return m.owned }

// CommitOwned commits an owned unit once. Borrowed units are committed by their owner.
func (m *ManagedUnit) CommitOwned() error {
	if !m.owned || m.committed {
		return nil
	}
	if err := m.UnitOfWork.Commit(m.Ctx); err != nil {
		return err
	}
	m.committed = true
	return nil
}

// Close rolls back an owned unit that was not committed.
func (m *ManagedUnit) Close() {
	if m.owned && !m.committed {
		_ = m.UnitOfWork.Rollback(m.Ctx)
	}
}

type eventSource interface {
	PullEvents() []events.DomainEvent
}

// RecordEvents moves pending events of every source into the unit's outbox.
func RecordEvents(ctx context.Context, unit uow.UnitOfWork, encoder outbox.EventEncoder, sources ...eventSource) error {
	for _, src := range sources {
		if err := outbox.RecordDomainEvents(ctx, unit.Outbox(), encoder, src.PullEvents()); err != nil {
			return err
		}
	}
	return nil
}

// RecordNotifications adds notifications to the unit's outbox for delivery.
func RecordNotifications[N events.DomainEvent](ctx context.Context, unit uow.UnitOfWork, encoder outbox.EventEncoder, ns ...N) error {
	evs := make([]events.DomainEvent, 0, len(ns))
	for _, n := range ns {
		evs = append(evs, n)
	}
	return outbox.RecordDomainEvents(ctx, unit.Outbox(), encoder, evs)
}
