package memory

import (
	"context"
	"sort"

	"shareit/internal/app/uow"
	"shareit/internal/domain/items"
)

type itemRepository struct{ u *Unit }

func (r itemRepository) ByID(_ context.Context, id items.ItemID) (*items.Item, error) {
	if err := r.u.readable(); err != nil {
		return nil, err
	}
	if staged, ok := r.u.items[id]; ok {
		return cloneItem(staged), nil
	}
	s := r.u.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[id]
	if !ok {
		return nil, items.ErrItemNotFound
	}
	return cloneItem(item), nil
}

func (r itemRepository) Save(ctx context.Context, item *items.Item) error {
	if err := r.u.writable(); err != nil {
		return err
	}
	current, err := r.ByID(ctx, item.ID)
	switch {
	case err == nil:
		if current.Version != item.Version {
			return uow.ErrConcurrentUpdate
		}
	case item.Version != 0:
		return uow.ErrConcurrentUpdate
	}
	item.Version++
	r.u.items[item.ID] = cloneItem(item)
	return nil
}

func (r itemRepository) ListByOwner(_ context.Context, ownerUID string) ([]*items.Item, error) {
	if err := r.u.readable(); err != nil {
		return nil, err
	}
	s := r.u.store
	merged := make(map[items.ItemID]*items.Item)
	s.mu.RLock()
	for id, item := range s.items {
		merged[id] = item
	}
	s.mu.RUnlock()
	for id, item := range r.u.items {
		merged[id] = item
	}
	out := make([]*items.Item, 0)
	for _, item := range merged {
		if item.OwnerUID == ownerUID {
			out = append(out, cloneItem(item))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

var _ items.Repository = itemRepository{}
