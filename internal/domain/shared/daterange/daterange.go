package daterange

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// Layout is the calendar-date format used by the property feed and the HTTP API.
const Layout = "2006-01-02"

var (
	ErrInvalidRange = errors.New("daterange: end must be after start")
	ErrInvalidDate  = errors.New("daterange: invalid calendar date")
)

// DateRange represents a half-open interval [Start, End) at day granularity.
type DateRange struct {
	Start time.Time
	End   time.Time
}

func New(start, end time.Time) (DateRange, error) {
	dr := DateRange{Start: Day(start), End: Day(end)}
	if err := dr.Validate(); err != nil {
		return DateRange{}, err
	}
	return dr, nil
}

// Parse builds a range from two ISO dates.
func Parse(start, end string) (DateRange, error) {
	s, err := ParseDay(start)
	if err != nil {
		return DateRange{}, err
	}
	e, err := ParseDay(end)
	if err != nil {
		return DateRange{}, err
	}
	return New(s, e)
}

// ParseDay accepts "2006-01-02" and anything that starts with it (RFC3339 timestamps).
func ParseDay(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if len(value) < len(Layout) {
		return time.Time{}, ErrInvalidDate
	}
	t, err := time.Parse(Layout, value[:len(Layout)])
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func Format(t time.Time) string {
	return t.Format(Layout)
}

func NextDay(t time.Time) time.Time {
	return t.AddDate(0, 0, 1)
}

func (dr DateRange) Validate() error {
	if dr.End.IsZero() || dr.Start.IsZero() {
		return ErrInvalidRange
	}
	if !dr.End.After(dr.Start) {
		return ErrInvalidRange
	}
	return nil
}

func (dr DateRange) Nights() int {
	return int(dr.End.Sub(dr.Start).Hours() / 24)
}

func (dr DateRange) Overlaps(other DateRange) bool {
	return dr.Start.Before(other.End) && other.Start.Before(dr.End)
}

// Days lists every date in the range, End excluded.
func (dr DateRange) Days() []time.Time {
	if dr.Validate() != nil {
		return nil
	}
	out := make([]time.Time, 0, dr.Nights())
	for d := dr.Start; d.Before(dr.End); d = NextDay(d) {
		out = append(out, d)
	}
	return out
}

func (dr DateRange) String() string {
	return Format(dr.Start) + ".." + Format(dr.End)
}

type rangeJSON struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func (dr DateRange) MarshalJSON() ([]byte, error) {
	return json.Marshal(rangeJSON{Start: Format(dr.Start), End: Format(dr.End)})
}

func (dr *DateRange) UnmarshalJSON(data []byte) error {
	var raw rangeJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := Parse(raw.Start, raw.End)
	if err != nil {
		return err
	}
	*dr = parsed
	return nil
}
