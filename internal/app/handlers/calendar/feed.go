package calendar

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sourcegraph/conc/pool"

	"lajuana/internal/app/policies"
	domaincal "lajuana/internal/domain/calendar"
	"lajuana/internal/domain/shared/daterange"
)

// snapshot is the provider state for one range after normalization.
type snapshot struct {
	Days         domaincal.DaySet
	Reservations []domaincal.ReservationRecord
	Warnings     []string
}

// fetchSnapshot loads reservations and day status concurrently and waits for
// both. Either fetch failing fails the whole load. A body that cannot be
// normalized only empties its own half of the snapshot.
func fetchSnapshot(ctx context.Context, provider policies.CalendarProvider, rng daterange.DateRange, logger *slog.Logger) (snapshot, error) {
	var resBody, dayBody []byte
	p := pool.New().WithContext(ctx)
	p.Go(func(ctx context.Context) error {
		body, err := provider.FetchReservations(ctx, rng)
		if err != nil {
			return fmt.Errorf("reservations: %w", err)
		}
		resBody = body
		return nil
	})
	p.Go(func(ctx context.Context) error {
		body, err := provider.FetchCalendar(ctx, rng)
		if err != nil {
			return fmt.Errorf("calendar: %w", err)
		}
		dayBody = body
		return nil
	})
	if err := p.Wait(); err != nil {
		return snapshot{}, err
	}

	var snap snapshot
	reservations, err := domaincal.NormalizeReservations(resBody)
	if err != nil {
		warn(logger, "reservations unreadable", rng, err)
		snap.Warnings = append(snap.Warnings, "reservations: "+err.Error())
	}
	snap.Reservations = reservations

	days, err := domaincal.NormalizeDays(dayBody)
	if err != nil {
		warn(logger, "calendar days unreadable", rng, err)
		snap.Warnings = append(snap.Warnings, "calendar: "+err.Error())
	}
	snap.Days = days
	return snap, nil
}

// fetchDays loads only the day feed, for the guest-facing views. An unreadable
// body yields an empty set and a warning, never an error.
func fetchDays(ctx context.Context, provider policies.CalendarProvider, rng daterange.DateRange, logger *slog.Logger) (domaincal.DaySet, []string, error) {
	body, err := provider.FetchCalendar(ctx, rng)
	if err != nil {
		return nil, nil, fmt.Errorf("calendar: %w", err)
	}
	days, err := domaincal.NormalizeDays(body)
	if err != nil {
		warn(logger, "calendar days unreadable", rng, err)
		return days, []string{"calendar: " + err.Error()}, nil
	}
	return days, nil, nil
}

func warn(logger *slog.Logger, msg string, rng daterange.DateRange, err error) {
	if logger != nil {
		logger.Warn(msg, "range", rng.String(), "error", err)
	}
}
