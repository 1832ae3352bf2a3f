package policies

import (
	"context"

	"lajuana/internal/domain/shared/events"
)

// ChangeNotifier tells downstream systems that the provider's calendar or
// reservations changed through this service.
type ChangeNotifier interface {
	Notify(ctx context.Context, records []events.Record) error
}
