package middleware

import (
	"context"

	"shareit/internal/app/commands"
	"shareit/internal/app/uow"
)

type TxOptionsProvider func(cmd commands.Command) uow.TxOptions

// NonTransactional marks commands that manage their own units, such as batch sweeps
// that commit every item separately.
type NonTransactional interface {
	ManagesOwnUnits() bool
}

func Transaction(factory uow.UoWFactory, optsProvider TxOptionsProvider) CommandMiddleware {
	if factory == nil {
		panic("middleware: uow factory required")
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			if nt, ok := cmd.(NonTransactional); ok && nt.ManagesOwnUnits() {
				return nextFn(ctx, cmd)
			}
			opts := uow.TxOptions{}
			if optsProvider != nil {
				opts = optsProvider(cmd)
			}
			unit, err := factory.Begin(ctx, opts)
			if err != nil {
				return nil, err
			}
			execCtx := uow.Bind(ctx, unit)
			committed := false
			defer func() {
				if !committed {
					_ = unit.Rollback(execCtx)
				}
			}()

			res, err := nextFn(execCtx, cmd)
			if err != nil {
				return nil, err
			}
			if err := unit.Commit(execCtx); err != nil {
				return nil, err
			}
			committed = true
			if hook, ok := res.(AfterCommit); ok {
				hook.AfterCommit(ctx)
			}
			return res, nil
		})
	}
}

// AfterCommit is implemented by results that need work done once their unit is durable,
// such as cache invalidation.
type AfterCommit interface {
	AfterCommit(ctx context.Context)
}
