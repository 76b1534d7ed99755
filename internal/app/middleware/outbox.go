package middleware

import (
	"context"
	"log/slog"

	"condobook/internal/app/commands"
	"condobook/internal/app/outbox"
)

// OutboxFlush compacts the outbox after a successful command. It sits outside
// Transaction, so the command has already committed when it runs: a flush
// failure is logged and the result still returned.
func OutboxFlush(box outbox.Outbox, logger *slog.Logger) CommandMiddleware {
	if box == nil {
		panic("middleware: outbox required")
	}
	logger = orDefault(logger)
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			res, err := next.Dispatch(ctx, cmd)
			if err != nil {
				return nil, err
			}
			if err := box.Flush(ctx); err != nil {
				logger.WarnContext(ctx, "outbox flush failed", "command", cmd.Key(), "error", err)
			}
			return res, nil
		})
	}
}
