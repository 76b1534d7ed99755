package middleware

import (
	"context"
	"log/slog"
	"time"

	"condobook/internal/app/commands"
	"condobook/internal/app/queries"
)

// Logging records every dispatched command with its latency. Rejections are
// logged at info.
func Logging(logger *slog.Logger) CommandMiddleware {
	logger = orDefault(logger)
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			started := time.Now()
			res, err := next.Dispatch(ctx, cmd)
			attrs := []any{"command", cmd.Key(), "duration", time.Since(started)}
			if err != nil {
				logger.InfoContext(ctx, "command rejected", append(attrs, "error", err)...)
				return nil, err
			}
			logger.DebugContext(ctx, "command handled", attrs...)
			return res, nil
		})
	}
}

// QueryLogging logs failed queries only.
func QueryLogging(logger *slog.Logger) QueryMiddleware {
	logger = orDefault(logger)
	return func(next queries.Bus) queries.Bus {
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			res, err := next.Ask(ctx, q)
			if err != nil {
				logger.DebugContext(ctx, "query failed", "query", q.Key(), "error", err)
			}
			return res, err
		})
	}
}

func orDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
