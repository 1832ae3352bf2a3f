package memory

import (
	"context"
	"log/slog"
	"sync"

	"lajuana/internal/app/policies"
	"lajuana/internal/domain/shared/events"
)

// Notifier keeps published change records in memory and logs them. It stands
// in for the broker when none is configured.
type Notifier struct {
	mu      sync.Mutex
	records []events.Record
	logger  *slog.Logger
	limit   int
}

func NewNotifier(logger *slog.Logger) *Notifier {
	return &Notifier{logger: logger, limit: 256}
}

func (n *Notifier) Notify(ctx context.Context, records []events.Record) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.records = append(n.records, records...)
	if over := len(n.records) - n.limit; over > 0 {
		n.records = append([]events.Record(nil), n.records[over:]...)
	}
	if n.logger != nil {
		for _, rec := range records {
			n.logger.Info("change recorded", "event", rec.Name, "aggregate", rec.Aggregate, "id", rec.ID)
		}
	}
	return nil
}

// Records returns a copy of the retained records, oldest first.
func (n *Notifier) Records() []events.Record {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]events.Record, len(n.records))
	copy(out, n.records)
	return out
}

var _ policies.ChangeNotifier = (*Notifier)(nil)
