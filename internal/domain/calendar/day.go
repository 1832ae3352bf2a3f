// Package calendar reconciles the property-management feeds (reservations and
// day-by-day status) into calendar events, price annotations and occupied ranges.
// Everything here is pure computation over already-fetched payloads.
package calendar

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"sort"
	"strconv"
	"strings"

	"lajuana/internal/domain/shared/daterange"
)

// ErrUnrecognizedShape is returned alongside an empty result when a payload matches
// none of the envelopes the provider is known to send.
var ErrUnrecognizedShape = errors.New("calendar: unrecognized payload shape")

const (
	ReasonReserved        = "RESERVED"
	SourceTypeReservation = "RESERVATION"
)

type Price struct {
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency,omitempty"`
	Formatted string `json:"formatted"`
}

// DayRecord is one calendar date of the property after multi-listing merge.
type DayRecord struct {
	Date              string `json:"date"`
	Available         bool   `json:"available"`
	Reason            string `json:"reason,omitempty"`
	SourceType        string `json:"source_type,omitempty"`
	ReservationID     string `json:"reservation_id,omitempty"`
	Price             *Price `json:"price,omitempty"`
	ClosedForCheckin  bool   `json:"closed_for_checkin"`
	ClosedForCheckout bool   `json:"closed_for_checkout"`
	MinStay           int    `json:"min_stay,omitempty"`
}

// DaySet holds exactly one record per ISO date.
type DaySet map[string]DayRecord

// Sorted returns the records in ascending date order.
func (s DaySet) Sorted() []DayRecord {
	out := make([]DayRecord, 0, len(s))
	for _, d := range s {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// Merge folds another report for the same physical date into the set. A report of
// unavailability always wins over availability and brings its closed flags; the
// first price seen is kept.
func (s DaySet) Merge(d DayRecord) {
	existing, ok := s[d.Date]
	if !ok {
		s[d.Date] = d
		return
	}
	if !d.Available {
		existing.Available = false
		existing.Reason = d.Reason
		existing.SourceType = d.SourceType
		existing.ReservationID = d.ReservationID
		existing.ClosedForCheckin = d.ClosedForCheckin
		existing.ClosedForCheckout = d.ClosedForCheckout
	}
	if existing.Price == nil && d.Price != nil {
		existing.Price = d.Price
	}
	s[d.Date] = existing
}

// NormalizeDays coerces any of the provider's day-status envelopes into a DaySet.
// On error the returned set is empty but usable.
func NormalizeDays(raw []byte) (DaySet, error) {
	set := DaySet{}
	days, err := coerceDays(raw)
	if err != nil {
		return set, err
	}
	for _, rd := range days {
		record, ok := rd.record()
		if !ok {
			continue
		}
		set.Merge(record)
	}
	return set, nil
}

type rawDay struct {
	Date              string     `json:"date"`
	Status            *rawStatus `json:"status"`
	ReservationID     flexString `json:"reservation_id"`
	Price             *rawPrice  `json:"price"`
	ClosedForCheckin  bool       `json:"closed_for_checkin"`
	ClosedForCheckout bool       `json:"closed_for_checkout"`
	MinStay           int        `json:"min_stay"`
}

type rawStatus struct {
	Available  *bool  `json:"available"`
	Reason     string `json:"reason"`
	SourceType string `json:"source_type"`
}

type rawPrice struct {
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
	Formatted string  `json:"formatted"`
}

// record converts a raw entry. Only an explicit available:true counts as available.
func (rd rawDay) record() (DayRecord, bool) {
	day, err := daterange.ParseDay(rd.Date)
	if err != nil {
		return DayRecord{}, false
	}
	out := DayRecord{
		Date:              daterange.Format(day),
		ReservationID:     string(rd.ReservationID),
		ClosedForCheckin:  rd.ClosedForCheckin,
		ClosedForCheckout: rd.ClosedForCheckout,
		MinStay:           rd.MinStay,
	}
	if rd.Status != nil {
		out.Available = rd.Status.Available != nil && *rd.Status.Available
		out.Reason = rd.Status.Reason
		out.SourceType = rd.Status.SourceType
	}
	if rd.Price != nil {
		out.Price = &Price{
			Amount:    int64(math.Round(rd.Price.Amount)),
			Currency:  rd.Price.Currency,
			Formatted: rd.Price.Formatted,
		}
	}
	return out, true
}

// dayItem is anything that can appear in a top-level array: a listing wrapper
// ({data:{days}} or {days}) or a bare day.
type dayItem struct {
	rawDay
	Data json.RawMessage `json:"data"`
	Days json.RawMessage `json:"days"`
}

func coerceDays(raw []byte) ([]rawDay, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, ErrUnrecognizedShape
	}
	switch trimmed[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, err
		}
		var out []rawDay
		for _, elem := range items {
			var item dayItem
			if err := json.Unmarshal(elem, &item); err != nil {
				continue
			}
			if item.Date != "" {
				out = append(out, item.rawDay)
				continue
			}
			out = append(out, listingDays(item.Data, item.Days)...)
		}
		return out, nil
	case '{':
		var env struct {
			Data json.RawMessage `json:"data"`
			Days json.RawMessage `json:"days"`
		}
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, err
		}
		if isJSONArray(env.Data) {
			var listings []json.RawMessage
			if err := json.Unmarshal(env.Data, &listings); err != nil {
				return nil, err
			}
			var out []rawDay
			for _, l := range listings {
				var listing struct {
					Days json.RawMessage `json:"days"`
				}
				if err := json.Unmarshal(l, &listing); err != nil {
					continue
				}
				out = append(out, decodeDayList(listing.Days)...)
			}
			return out, nil
		}
		if isJSONObject(env.Data) {
			var inner struct {
				Days json.RawMessage `json:"days"`
			}
			if err := json.Unmarshal(env.Data, &inner); err == nil && isJSONArray(inner.Days) {
				return decodeDayList(inner.Days), nil
			}
		}
		if isJSONArray(env.Days) {
			return decodeDayList(env.Days), nil
		}
		return nil, ErrUnrecognizedShape
	default:
		return nil, ErrUnrecognizedShape
	}
}

// listingDays resolves item.data.days first, then item.days.
func listingDays(data, days json.RawMessage) []rawDay {
	if isJSONObject(data) {
		var inner struct {
			Days json.RawMessage `json:"days"`
		}
		if err := json.Unmarshal(data, &inner); err == nil && isJSONArray(inner.Days) {
			return decodeDayList(inner.Days)
		}
	}
	return decodeDayList(days)
}

// decodeDayList decodes element by element so one malformed day does not drop its neighbours.
func decodeDayList(raw json.RawMessage) []rawDay {
	if !isJSONArray(raw) {
		return nil
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil
	}
	out := make([]rawDay, 0, len(elems))
	for _, elem := range elems {
		var d rawDay
		if err := json.Unmarshal(elem, &d); err != nil {
			continue
		}
		out = append(out, d)
	}
	return out
}

func isJSONArray(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) > 0 && t[0] == '['
}

func isJSONObject(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) > 0 && t[0] == '{'
}

// flexString accepts JSON strings and numbers; null decodes to "".
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	t := bytes.TrimSpace(data)
	if len(t) == 0 || bytes.Equal(t, []byte("null")) {
		*f = ""
		return nil
	}
	if t[0] == '"' {
		var s string
		if err := json.Unmarshal(t, &s); err != nil {
			return err
		}
		*f = flexString(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(t, &n); err != nil {
		return err
	}
	if _, err := strconv.ParseFloat(n.String(), 64); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}
