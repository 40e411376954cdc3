package middleware

import (
	"context"

	"shareit/internal/app/commands"
	"shareit/internal/app/queries"
	"shareit/internal/domain/shared/apperr"
)

// Classify makes every failure leaving the bus an *apperr.Error. Untyped faults from
// stores and brokers become transient.
func Classify() CommandMiddleware {
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			res, err := nextFn(ctx, cmd)
			if err != nil {
				return nil, apperr.Classify(err)
			}
			return res, nil
		})
	}
}

func QueryClassify() QueryMiddleware {
	return func(next queries.Bus) queries.Bus {
		nextFn := wrapQuery(next)
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			res, err := nextFn(ctx, q)
			if err != nil {
				return nil, apperr.Classify(err)
			}
			return res, nil
		})
	}
}
