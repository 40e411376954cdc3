package middleware

import (
	"context"
	"errors"
	"time"

	"shareit/internal/app/commands"
	"shareit/internal/app/uow"
)

// Retry re-dispatches a command whose unit lost an optimistic race. Every attempt runs
// in a fresh unit, so Retry must wrap Transaction.
func Retry(attempts int, backoff time.Duration) CommandMiddleware {
	if attempts < 1 {
		attempts = 1
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			var lastErr error
			for i := 0; i < attempts; i++ {
				if i > 0 && backoff > 0 {
					select {
					case <-ctx.Done():
						return nil, ctx.Err()
					case <-time.After(backoff * time.Duration(i)):
					}
				}
				res, err := nextFn(ctx, cmd)
				if err == nil || !errors.Is(err, uow.ErrConcurrentUpdate) {
					return res, err
				}
				lastErr = err
			}
			return nil, lastErr
		})
	}
}
