package middleware

import (
	"context"
	"log/slog"

	"shareit/internal/app/commands"
	"shareit/internal/app/outbox"
)

// OutboxFlush nudges the relay after a successful command. It sits outside Transaction, so
// records are already committed; a failed nudge is logged and the relay catches up later.
func OutboxFlush(box outbox.Outbox, logger *slog.Logger) CommandMiddleware {
	if box == nil {
		panic("middleware: outbox required")
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			res, err := nextFn(ctx, cmd)
			if err != nil {
				return nil, err
			}
			if err := box.Flush(ctx); err != nil && logger != nil {
				logger.WarnContext(ctx, "outbox flush failed", "command", cmd.Key(), "error", err)
			}
			return res, nil
		})
	}
}
