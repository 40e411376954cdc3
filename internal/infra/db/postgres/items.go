package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"shareit/internal/app/uow"
	"shareit/internal/domain/calendar"
	"shareit/internal/domain/items"
)

const itemColumns = `id, owner_uid, title, category, city, price_per_day_cents, available_from, available_to,
	rating_avg, rating_count, state, created_at, updated_at, version`

type itemRepository struct {
	tx       pgx.Tx
	readOnly bool
}

func (r itemRepository) ByID(ctx context.Context, id items.ItemID) (*items.Item, error) {
	row := r.tx.QueryRow(ctx, `SELECT `+itemColumns+` FROM items WHERE id = $1`, string(id))
	item, err := scanItem(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, items.ErrItemNotFound
	}
	return item, err
}

func (r itemRepository) Save(ctx context.Context, item *items.Item) error {
	if r.readOnly {
		return uow.ErrReadOnly
	}
	from, to := windowColumns(item.Window)
	next := item.Version + 1
	if item.Version == 0 {
		_, err := r.tx.Exec(ctx, `INSERT INTO items (`+itemColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
			string(item.ID), item.OwnerUID, item.Title, item.Category, item.City, item.PricePerDayCents, from, to,
			item.RatingAvg, item.RatingCount, string(item.State), item.CreatedAt, item.UpdatedAt, next)
		if err != nil {
			return translate(err)
		}
		item.Version = next
		return nil
	}
	tag, err := r.tx.Exec(ctx, `UPDATE items SET title = $3, category = $4, city = $5, price_per_day_cents = $6,
		available_from = $7, available_to = $8, rating_avg = $9, rating_count = $10, state = $11, updated_at = $12, version = $13
		WHERE id = $1 AND version = $2`,
		string(item.ID), item.Version, item.Title, item.Category, item.City, item.PricePerDayCents, from, to,
		item.RatingAvg, item.RatingCount, string(item.State), item.UpdatedAt, next)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return uow.ErrConcurrentUpdate
	}
	item.Version = next
	return nil
}

func (r itemRepository) ListByOwner(ctx context.Context, ownerUID string) ([]*items.Item, error) {
	rows, err := r.tx.Query(ctx, `SELECT `+itemColumns+` FROM items WHERE owner_uid = $1 ORDER BY created_at DESC`, ownerUID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*items.Item, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func scanItem(row pgx.Row) (*items.Item, error) {
	var (
		item      items.Item
		id, state string
		from, to  *int32
		created   time.Time
		updated   time.Time
	)
	err := row.Scan(&id, &item.OwnerUID, &item.Title, &item.Category, &item.City, &item.PricePerDayCents, &from, &to,
		&item.RatingAvg, &item.RatingCount, &state, &created, &updated, &item.Version)
	if err != nil {
		return nil, err
	}
	item.ID = items.ItemID(id)
	item.State = items.ItemState(state)
	item.CreatedAt = created.UTC()
	item.UpdatedAt = updated.UTC()
	item.Window = windowFromColumns(from, to)
	return &item, nil
}

func windowColumns(w calendar.Window) (from, to *int32) {
	if w.From != nil {
		v := int32(*w.From)
		from = &v
	}
	if w.To != nil {
		v := int32(*w.To)
		to = &v
	}
	return from, to
}

func windowFromColumns(from, to *int32) calendar.Window {
	var w calendar.Window
	if from != nil {
		d := calendar.Day(*from)
		w.From = &d
	}
	if to != nil {
		d := calendar.Day(*to)
		w.To = &d
	}
	return w
}

var _ items.Repository = itemRepository{}
