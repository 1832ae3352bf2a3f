package middleware

import (
	"context"
	"log/slog"
	"time"

	"lajuana/internal/app/commands"
	"lajuana/internal/app/queries"
)

func Logging(logger *slog.Logger) CommandMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			started := time.Now()
			res, err := nextFn(ctx, cmd)
			if err != nil {
				logger.Error("command failed", "command", cmd.Key(), "duration", time.Since(started), "error", err)
				return nil, err
			}
			logger.Info("command handled", "command", cmd.Key(), "duration", time.Since(started))
			return res, nil
		})
	}
}

func QueryLogging(logger *slog.Logger) QueryMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next queries.Bus) queries.Bus {
		nextFn := wrapQuery(next)
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			started := time.Now()
			res, err := nextFn(ctx, q)
			if err != nil {
				logger.Warn("query failed", "query", q.Key(), "duration", time.Since(started), "error", err)
				return nil, err
			}
			logger.Debug("query handled", "query", q.Key(), "duration", time.Since(started))
			return res, nil
		})
	}
}
