package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"shareit/internal/app/uow"
)

const (
	uniqueViolation      = "23505"
	serializationFailure = "40001"
	deadlockDetected     = "40P01"
)

// translate maps lost races onto uow.ErrConcurrentUpdate. The transaction is aborted
// either way, so the whole unit is retried.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolation, serializationFailure, deadlockDetected:
			return uow.ErrConcurrentUpdate
		}
	}
	return err
}
