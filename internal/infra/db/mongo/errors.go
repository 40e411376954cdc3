package mongo

import (
	"errors"

	"go.mongodb.org/mongo-driver/mongo"

	"shareit/internal/app/uow"
)

const (
	writeConflictCode         = 112
	transientTransactionLabel = "TransientTransactionError"
)

// translate maps driver failures that mean "another writer got there first" onto
// uow.ErrConcurrentUpdate so the command is retried from the start.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if mongo.IsDuplicateKeyError(err) {
		return uow.ErrConcurrentUpdate
	}
	var se mongo.ServerError
	if errors.As(err, &se) && (se.HasErrorCode(writeConflictCode) || se.HasErrorLabel(transientTransactionLabel)) {
		return uow.ErrConcurrentUpdate
	}
	return err
}
