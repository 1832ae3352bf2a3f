// Package ical renders occupied ranges as an iCalendar feed that booking
// channels can subscribe to.
package ical

import (
	"time"

	ics "github.com/arran4/golang-ical"

	"lajuana/internal/domain/calendar"
	"lajuana/internal/domain/shared/daterange"
)

const (
	DefaultName    = "La Juana - Venecia Reservations"
	productID      = "-//La Juana//Booking System//ES"
	eventSummary   = "Reservado"
	uidDomainLabel = "@lajuana"
)

// Feed describes one export.
type Feed struct {
	Name     string
	Occupied []calendar.OccupiedRange
	Stamp    time.Time
}

// Serialize renders one all-day VEVENT per occupied range. UIDs derive from
// the range start so subscribers see stable events across refreshes.
func Serialize(f Feed) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)
	name := f.Name
	if name == "" {
		name = DefaultName
	}
	cal.SetXWRCalName(name)

	stamp := f.Stamp
	if stamp.IsZero() {
		stamp = time.Now()
	}
	for _, r := range f.Occupied {
		event := cal.AddEvent(daterange.Format(r.Start) + uidDomainLabel)
		event.SetDtStampTime(stamp.UTC())
		event.SetAllDayStartAt(r.Start)
		event.SetAllDayEndAt(r.End)
		event.SetSummary(eventSummary)
		event.SetStatus(ics.ObjectStatusConfirmed)
	}
	return cal.Serialize()
}
