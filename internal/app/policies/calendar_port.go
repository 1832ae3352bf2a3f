package policies

import (
	"context"

	"lajuana/internal/domain/calendar"
	"lajuana/internal/domain/shared/daterange"
)

// CalendarProvider is the property-management system that owns the calendar.
// Bodies are returned raw; normalization happens in the domain.
type CalendarProvider interface {
	FetchCalendar(ctx context.Context, rng daterange.DateRange) ([]byte, error)
	FetchReservations(ctx context.Context, rng daterange.DateRange) ([]byte, error)
	UpdateCalendar(ctx context.Context, req calendar.DayUpdateRequest) ([]byte, error)
	CancelReservation(ctx context.Context, reservationID string) ([]byte, error)
	CreateReservation(ctx context.Context, payload map[string]any) ([]byte, error)
}
