package dto

import (
	"lajuana/internal/domain/calendar"
	"lajuana/internal/domain/shared/daterange"
)

// CalendarView is the admin calendar for one requested range. Range is echoed
// so a client can drop a response that no longer matches what it displays.
type CalendarView struct {
	Range        daterange.DateRange       `json:"range"`
	Events       []calendar.CalendarEvent  `json:"events"`
	PricesByDate map[string]calendar.Price `json:"prices_by_date"`
	Warnings     []string                  `json:"warnings,omitempty"`
}

type Occupancy struct {
	Range         daterange.DateRange       `json:"range"`
	Occupied      []calendar.OccupiedRange  `json:"occupied"`
	SuggestedStay *daterange.DateRange      `json:"suggested_stay,omitempty"`
	PricesByDate  map[string]calendar.Price `json:"prices_by_date"`
	Warnings      []string                  `json:"warnings,omitempty"`
}

type StayQuote struct {
	Stay      daterange.DateRange      `json:"stay"`
	Available bool                     `json:"available"`
	Conflicts []calendar.OccupiedRange `json:"conflicts"`
	Nights    int                      `json:"nights"`
	Nightly   []calendar.NightPrice    `json:"nightly"`
	Total     int64                    `json:"total"`
	Currency  string                   `json:"currency"`
	Warnings  []string                 `json:"warnings,omitempty"`
}

func MapStayQuote(stay daterange.DateRange, conflicts []calendar.OccupiedRange, q calendar.Quote, currency string) StayQuote {
	if conflicts == nil {
		conflicts = []calendar.OccupiedRange{}
	}
	return StayQuote{
		Stay:      stay,
		Available: len(conflicts) == 0,
		Conflicts: conflicts,
		Nights:    q.Nights,
		Nightly:   q.Nightly,
		Total:     q.Total,
		Currency:  currency,
	}
}
