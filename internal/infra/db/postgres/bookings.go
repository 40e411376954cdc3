package postgres

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"

	"shareit/internal/app/uow"
	"shareit/internal/domain/booking"
	"shareit/internal/domain/calendar"
	"shareit/internal/domain/items"
)

const bookingColumns = `id, item_id, item_title, owner_uid, renter_uid, days, price_per_day_cents, total_cents, status,
	rating_score, rating_comment, rating_rater_uid, rating_created_at, created_at, updated_at, expires_at, version`

type bookingRepository struct {
	tx       pgx.Tx
	readOnly bool
}

func (r bookingRepository) ByID(ctx context.Context, id booking.BookingID) (*booking.Booking, error) {
	row := r.tx.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, string(id))
	b, err := scanBooking(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, booking.ErrBookingNotFound
	}
	return b, err
}

// Create checks the claims it can see, then inserts the booking and one booking_days row
// per day. A claim committed in between trips the primary key and the unit is retried.
func (r bookingRepository) Create(ctx context.Context, b *booking.Booking) error {
	if r.readOnly {
		return uow.ErrReadOnly
	}
	days := dayColumns(b.Days)
	rows, err := r.tx.Query(ctx, `SELECT day FROM booking_days WHERE item_id = $1 AND day = ANY($2) ORDER BY day`, string(b.ItemID), days)
	if err != nil {
		return err
	}
	taken, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (calendar.Day, error) {
		var d int32
		err := row.Scan(&d)
		return calendar.Day(d), err
	})
	if err != nil {
		return err
	}
	if len(taken) > 0 {
		return booking.DatesTaken(taken)
	}

	score, comment, rater, ratedAt := ratingColumns(b.Rating)
	_, err = r.tx.Exec(ctx, `INSERT INTO bookings (`+bookingColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,1)`,
		string(b.ID), string(b.ItemID), b.ItemTitle, b.OwnerUID, b.RenterUID, days, b.PricePerDayCents, b.TotalCents, string(b.Status),
		score, comment, rater, ratedAt, b.CreatedAt, b.UpdatedAt, b.ExpiresAt)
	if err != nil {
		return translate(err)
	}
	_, err = r.tx.Exec(ctx, `INSERT INTO booking_days (item_id, day, booking_id) SELECT $1, d, $3 FROM unnest($2::integer[]) AS d`,
		string(b.ItemID), days, string(b.ID))
	if err != nil {
		return translate(err)
	}
	b.Version = 1
	return nil
}

func (r bookingRepository) Save(ctx context.Context, b *booking.Booking) error {
	if r.readOnly {
		return uow.ErrReadOnly
	}
	score, comment, rater, ratedAt := ratingColumns(b.Rating)
	next := b.Version + 1
	tag, err := r.tx.Exec(ctx, `UPDATE bookings SET status = $3, rating_score = $4, rating_comment = $5, rating_rater_uid = $6,
		rating_created_at = $7, updated_at = $8, version = $9 WHERE id = $1 AND version = $2`,
		string(b.ID), b.Version, string(b.Status), score, comment, rater, ratedAt, b.UpdatedAt, next)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		if _, lookupErr := r.ByID(ctx, b.ID); errors.Is(lookupErr, booking.ErrBookingNotFound) {
			return lookupErr
		}
		return uow.ErrConcurrentUpdate
	}
	if !b.Status.Live() {
		if _, err := r.tx.Exec(ctx, `DELETE FROM booking_days WHERE booking_id = $1`, string(b.ID)); err != nil {
			return translate(err)
		}
	}
	b.Version = next
	return nil
}

func (r bookingRepository) List(ctx context.Context, filter booking.Filter) ([]*booking.Booking, error) {
	query, args := listQuery(filter)
	rows, err := r.tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*booking.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func listQuery(filter booking.Filter) (string, []any) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE true`
	var args []any
	add := func(clause string, v any) {
		args = append(args, v)
		query += " AND " + clause + " $" + strconv.Itoa(len(args))
	}
	if filter.ItemID != "" {
		add("item_id =", string(filter.ItemID))
	}
	if filter.RenterUID != "" {
		add("renter_uid =", filter.RenterUID)
	}
	if filter.OwnerUID != "" {
		add("owner_uid =", filter.OwnerUID)
	}
	if len(filter.Statuses) > 0 {
		args = append(args, booking.StoredNames(filter.Statuses))
		query += " AND status = ANY($" + strconv.Itoa(len(args)) + ")"
	}
	return query + " ORDER BY created_at DESC", args
}

func scanBooking(row pgx.Row) (*booking.Booking, error) {
	var (
		b                         booking.Booking
		id, itemID, status        string
		days                      []int32
		score                     *int32
		comment, rater            *string
		ratedAt                   *time.Time
		created, updated, expires time.Time
	)
	err := row.Scan(&id, &itemID, &b.ItemTitle, &b.OwnerUID, &b.RenterUID, &days, &b.PricePerDayCents, &b.TotalCents, &status,
		&score, &comment, &rater, &ratedAt, &created, &updated, &expires, &b.Version)
	if err != nil {
		return nil, err
	}
	parsed, err := booking.ParseStatus(status)
	if err != nil {
		return nil, err
	}
	b.ID = booking.BookingID(id)
	b.ItemID = items.ItemID(itemID)
	b.Status = parsed
	b.Days = make([]calendar.Day, len(days))
	for i, d := range days {
		b.Days[i] = calendar.Day(d)
	}
	b.CreatedAt, b.UpdatedAt, b.ExpiresAt = created.UTC(), updated.UTC(), expires.UTC()
	if score != nil {
		b.Rating = &booking.Rating{Score: int(*score)}
		if comment != nil {
			b.Rating.Comment = *comment
		}
		if rater != nil {
			b.Rating.RaterUID = *rater
		}
		if ratedAt != nil {
			b.Rating.CreatedAt = ratedAt.UTC()
		}
	}
	return &b, nil
}

func dayColumns(days []calendar.Day) []int32 {
	out := make([]int32, len(days))
	for i, d := range days {
		out[i] = int32(d)
	}
	return out
}

func ratingColumns(r *booking.Rating) (score *int32, comment, rater *string, at *time.Time) {
	if r == nil {
		return nil, nil, nil, nil
	}
	s := int32(r.Score)
	c, u, t := r.Comment, r.RaterUID, r.CreatedAt
	return &s, &c, &u, &t
}

var _ booking.Repository = bookingRepository{}
