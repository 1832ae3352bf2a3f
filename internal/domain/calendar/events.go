package calendar

import (
	"sort"
	"strings"
)

type EventType string

const (
	EventReservation EventType = "reservation"
	EventBlock       EventType = "block"
)

const (
	DisplayAuto       = "auto"
	DisplayBackground = "background"

	BlockColor         = "#9a7d45"
	EventTextColor     = "#ffffff"
	BlockFallbackTitle = "Bloqueado"
)

// PlatformColors is keyed by lowercased platform. Unknown platforms render as manual.
var PlatformColors = map[string]string{
	"airbnb":   "#FF5A5F",
	"booking":  "#003580",
	"homeaway": "#333D47",
	"vrbo":     "#333D47",
	"direct":   "#1a3c34",
	"manual":   "#1a3c34",
}

// PlatformColor looks up the display colour for a booking channel.
func PlatformColor(platform string) string {
	if c, ok := PlatformColors[strings.ToLower(strings.TrimSpace(platform))]; ok {
		return c
	}
	return PlatformColors[PlatformManual]
}

// CalendarEvent is a presentation-ready entry; exactly one of Reservation or Block is set.
type CalendarEvent struct {
	Type        EventType          `json:"type"`
	ID          string             `json:"id"`
	Title       string             `json:"title"`
	Start       string             `json:"start"`
	End         string             `json:"end,omitempty"`
	AllDay      bool               `json:"all_day"`
	Color       string             `json:"color"`
	TextColor   string             `json:"text_color"`
	Display     string             `json:"display"`
	Interactive bool               `json:"interactive"`
	Cancelled   bool               `json:"cancelled"`
	Reservation *ReservationRecord `json:"reservation,omitempty"`
	Block       *DayRecord         `json:"block,omitempty"`
}

// AssembleEvents turns reservations and block days into one sorted event list.
func AssembleEvents(reservations []ReservationRecord, blocks []DayRecord) []CalendarEvent {
	out := make([]CalendarEvent, 0, len(reservations)+len(blocks))
	for i := range reservations {
		r := reservations[i]
		out = append(out, CalendarEvent{
			Type:        EventReservation,
			ID:          r.ID,
			Title:       r.GuestName,
			Start:       r.ArrivalDate,
			End:         r.DepartureDate,
			Color:       PlatformColor(r.Platform),
			TextColor:   EventTextColor,
			Display:     DisplayAuto,
			Interactive: true,
			Cancelled:   r.IsCancelled,
			Reservation: &r,
		})
	}
	for i := range blocks {
		b := blocks[i]
		title := strings.TrimSpace(b.Reason)
		if title == "" {
			title = BlockFallbackTitle
		}
		out = append(out, CalendarEvent{
			Type:      EventBlock,
			ID:        "block-" + b.Date,
			Title:     title,
			Start:     b.Date,
			AllDay:    true,
			Color:     BlockColor,
			TextColor: EventTextColor,
			Display:   DisplayBackground,
			Block:     &b,
		})
	}
	SortEvents(out)
	return out
}

// SortEvents orders by start date, active before cancelled, then title. Type and
// id break remaining ties so the order is total.
func SortEvents(events []CalendarEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		if a.Cancelled != b.Cancelled {
			return !a.Cancelled
		}
		if a.Title != b.Title {
			return a.Title < b.Title
		}
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		return a.ID < b.ID
	})
}
