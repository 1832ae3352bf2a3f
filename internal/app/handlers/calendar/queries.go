package calendar

import (
	"context"
	"log/slog"
	"time"

	"lajuana/internal/app/dto"
	"lajuana/internal/app/policies"
	"lajuana/internal/app/queries"
	domaincal "lajuana/internal/domain/calendar"
	"lajuana/internal/domain/shared/daterange"
)

const (
	GetCalendarKey  = "calendar.admin_view"
	GetOccupancyKey = "calendar.occupancy"
	QuoteStayKey    = "calendar.quote"
)

type GetCalendarQuery struct {
	Range daterange.DateRange
}

func (GetCalendarQuery) Key() string     { return GetCalendarKey }
func (GetCalendarQuery) AdminOnly() bool { return true }

type GetCalendarHandler struct {
	Provider policies.CalendarProvider
	Logger   *slog.Logger
}

func (h *GetCalendarHandler) Handle(ctx context.Context, q GetCalendarQuery) (dto.CalendarView, error) {
	if err := q.Range.Validate(); err != nil {
		return dto.CalendarView{}, err
	}
	snap, err := fetchSnapshot(ctx, h.Provider, q.Range, h.Logger)
	if err != nil {
		return dto.CalendarView{}, err
	}
	return dto.CalendarView{
		Range:        q.Range,
		Events:       domaincal.AssembleEvents(snap.Reservations, domaincal.Blocks(snap.Days)),
		PricesByDate: domaincal.PriceIndex(snap.Days),
		Warnings:     snap.Warnings,
	}, nil
}

// GetOccupancyQuery asks for occupied ranges and, when Nights is set, the
// first stay of that length that fits.
type GetOccupancyQuery struct {
	Range  daterange.DateRange
	Nights int `validate:"gte=0,lte=60"`
}

func (GetOccupancyQuery) Key() string { return GetOccupancyKey }

type GetOccupancyHandler struct {
	Provider policies.CalendarProvider
	Logger   *slog.Logger
	Now      func() time.Time
}

func (h *GetOccupancyHandler) Handle(ctx context.Context, q GetOccupancyQuery) (dto.Occupancy, error) {
	if err := q.Range.Validate(); err != nil {
		return dto.Occupancy{}, err
	}
	days, warnings, err := fetchDays(ctx, h.Provider, q.Range, h.Logger)
	if err != nil {
		return dto.Occupancy{}, err
	}
	occupied := domaincal.CollapseOccupied(days.Sorted())
	view := dto.Occupancy{
		Range:        q.Range,
		Occupied:     occupied,
		PricesByDate: domaincal.PriceIndex(days),
		Warnings:     warnings,
	}
	if q.Nights > 0 {
		from := q.Range.Start
		if today := daterange.Day(h.now()); today.After(from) {
			from = today
		}
		if stay, ok := domaincal.FirstFreeStay(occupied, from, q.Nights, q.Range.End); ok {
			view.SuggestedStay = &stay
		}
	}
	return view, nil
}

func (h *GetOccupancyHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

type QuoteStayQuery struct {
	Stay daterange.DateRange
}

func (QuoteStayQuery) Key() string { return QuoteStayKey }

type QuoteStayHandler struct {
	Provider    policies.CalendarProvider
	Logger      *slog.Logger
	DefaultRate int64
	Currency    string
}

func (h *QuoteStayHandler) Handle(ctx context.Context, q QuoteStayQuery) (dto.StayQuote, error) {
	if err := q.Stay.Validate(); err != nil {
		return dto.StayQuote{}, err
	}
	days, warnings, err := fetchDays(ctx, h.Provider, q.Stay, h.Logger)
	if err != nil {
		return dto.StayQuote{}, err
	}
	conflicts := domaincal.StayConflicts(domaincal.CollapseOccupied(days.Sorted()), q.Stay)
	quote := domaincal.QuoteStay(q.Stay, domaincal.PriceIndex(days), h.DefaultRate)
	view := dto.MapStayQuote(q.Stay, conflicts, quote, h.Currency)
	if len(warnings) > 0 {
		// an unreadable feed proves nothing about the stay being free
		view.Available = false
		view.Warnings = warnings
	}
	return view, nil
}

var (
	_ queries.Handler[GetCalendarQuery, dto.CalendarView] = (*GetCalendarHandler)(nil)
	_ queries.Handler[GetOccupancyQuery, dto.Occupancy]   = (*GetOccupancyHandler)(nil)
	_ queries.Handler[QuoteStayQuery, dto.StayQuote]      = (*QuoteStayHandler)(nil)
)
