package middleware

import (
	"context"
	"log/slog"

	"lajuana/internal/app/commands"
	"lajuana/internal/app/policies"
	"lajuana/internal/domain/shared/events"
)

// Publish hands the events of a successful command to the notifier. The
// provider already accepted the write, so a notifier failure is logged and the
// result still returned.
func Publish(notifier policies.ChangeNotifier, encoder events.Encoder, logger *slog.Logger) CommandMiddleware {
	if notifier == nil {
		panic("middleware: notifier required")
	}
	if encoder == nil {
		encoder = events.JSONEncoder{}
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			res, err := nextFn(ctx, cmd)
			if err != nil {
				return nil, err
			}
			src, ok := res.(events.Source)
			if !ok {
				return res, nil
			}
			evs := src.DomainEvents()
			if len(evs) == 0 {
				return res, nil
			}
			records, encErr := events.EncodeAll(encoder, evs)
			if encErr == nil {
				encErr = notifier.Notify(ctx, records)
			}
			if encErr != nil && logger != nil {
				logger.Warn("change notification failed", "command", cmd.Key(), "events", len(evs), "error", encErr)
			}
			return res, nil
		})
	}
}
