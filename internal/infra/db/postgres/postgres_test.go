package postgres

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"shareit/internal/app/uow"
	"shareit/internal/domain/booking"
	"shareit/internal/domain/calendar"
)

func TestTranslate(t *testing.T) {
	assert.ErrorIs(t, translate(&pgconn.PgError{Code: uniqueViolation}), uow.ErrConcurrentUpdate)
	assert.ErrorIs(t, translate(&pgconn.PgError{Code: serializationFailure}), uow.ErrConcurrentUpdate)
	other := &pgconn.PgError{Code: "23502"}
	assert.Equal(t, error(other), translate(other))
	assert.NoError(t, translate(nil))
	plain := errors.New("down")
	assert.Equal(t, plain, translate(plain))
}

func TestListQuery(t *testing.T) {
	q, args := listQuery(booking.Filter{OwnerUID: "owner", Statuses: []booking.Status{booking.StatusPending}})
	assert.Contains(t, q, "owner_uid = $1")
	assert.Contains(t, q, "status = ANY($2)")
	assert.Contains(t, q, "ORDER BY created_at DESC")
	assert.Equal(t, []any{"owner", []string{"pending", "Pending"}}, args)

	q, args = listQuery(booking.Filter{})
	assert.NotContains(t, q, "$1")
	assert.Empty(t, args)
}

func TestColumnMapping(t *testing.T) {
	days := []calendar.Day{calendar.MustParseDay("2026-03-10"), calendar.MustParseDay("2026-03-11")}
	cols := dayColumns(days)
	assert.Equal(t, int32(days[1]), cols[1])

	window, err := calendar.NewWindow("2026-03-01", "")
	assert.NoError(t, err)
	from, to := windowColumns(window)
	assert.Nil(t, to)
	assert.Equal(t, window, windowFromColumns(from, to))

	score, comment, rater, at := ratingColumns(nil)
	assert.Nil(t, score)
	assert.Nil(t, comment)
	assert.Nil(t, rater)
	assert.Nil(t, at)
}
