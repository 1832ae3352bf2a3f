package calendar

import (
	"sort"
	"time"

	"lajuana/internal/domain/shared/daterange"
)

// OccupiedRange is a maximal run of unbookable dates, [Start, End).
type OccupiedRange struct {
	daterange.DateRange
}

// CollapseOccupied walks days in date order and merges consecutive unavailable
// dates into half-open ranges. A missing date between two unavailable days
// closes the current range; the feed is not guaranteed to be gap-free.
func CollapseOccupied(days []DayRecord) []OccupiedRange {
	ordered := make([]DayRecord, len(days))
	copy(ordered, days)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Date < ordered[j].Date })

	out := []OccupiedRange{}
	var current *daterange.DateRange
	for _, d := range ordered {
		day, err := daterange.ParseDay(d.Date)
		if err != nil {
			continue
		}
		if d.Available {
			if current != nil {
				out = append(out, OccupiedRange{DateRange: *current})
				current = nil
			}
			continue
		}
		switch {
		case current == nil:
			current = &daterange.DateRange{Start: day, End: daterange.NextDay(day)}
		case day.Equal(current.End):
			current.End = daterange.NextDay(day)
		case day.Before(current.End):
			// duplicate date already covered
		default:
			out = append(out, OccupiedRange{DateRange: *current})
			current = &daterange.DateRange{Start: day, End: daterange.NextDay(day)}
		}
	}
	if current != nil {
		out = append(out, OccupiedRange{DateRange: *current})
	}
	return out
}

// UnavailableDays expands ranges back into unavailable day records.
func UnavailableDays(ranges []OccupiedRange) []DayRecord {
	var out []DayRecord
	for _, r := range ranges {
		for _, d := range r.Days() {
			out = append(out, DayRecord{Date: daterange.Format(d)})
		}
	}
	return out
}

// StayConflicts returns the occupied ranges a stay would overlap. The checkout
// day may equal the start of an occupied range.
func StayConflicts(ranges []OccupiedRange, stay daterange.DateRange) []OccupiedRange {
	var out []OccupiedRange
	for _, r := range ranges {
		if r.Overlaps(stay) {
			out = append(out, r)
		}
	}
	return out
}

// FirstFreeStay finds the earliest stay of the given length starting on or after
// from that fits before horizon, skipping past any occupied span in the way.
func FirstFreeStay(ranges []OccupiedRange, from time.Time, nights int, horizon time.Time) (daterange.DateRange, bool) {
	if nights < 1 {
		nights = 1
	}
	start := daterange.Day(from)
	horizon = daterange.Day(horizon)
	for {
		stay := daterange.DateRange{Start: start, End: start.AddDate(0, 0, nights)}
		if stay.End.After(horizon) {
			return daterange.DateRange{}, false
		}
		conflicts := StayConflicts(ranges, stay)
		if len(conflicts) == 0 {
			return stay, true
		}
		next := start
		for _, c := range conflicts {
			if c.End.After(next) {
				next = c.End
			}
		}
		start = next
	}
}
