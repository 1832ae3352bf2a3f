package calendar

import (
	"errors"
	"testing"
)

const scenarioDays = `[
	{"date":"2026-02-10","status":{"available":false,"reason":"RESERVED"},"reservation_id":"r1"},
	{"date":"2026-02-11","status":{"available":false,"reason":"Maintenance"}},
	{"date":"2026-02-12","status":{"available":true},"price":{"amount":2800000,"formatted":"$2,800,000"}}
]`

func TestNormalizeDays_Shapes(t *testing.T) {
	days := `[{"date":"2026-01-01","status":{"available":true}},{"date":"2026-01-02","status":{"available":false}}]`
	cases := []struct {
		name string
		raw  string
	}{
		{"flat array", days},
		{"array of data wrappers", `[{"data":{"days":` + days + `}}]`},
		{"array of days wrappers", `[{"days":` + days + `}]`},
		{"data listings", `{"data":[{"days":` + days + `}]}`},
		{"data days", `{"data":{"days":` + days + `}}`},
		{"top-level days", `{"days":` + days + `}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			set, err := NormalizeDays([]byte(tc.raw))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(set) != 2 {
				t.Fatalf("expected 2 days, got %d", len(set))
			}
			if !set["2026-01-01"].Available || set["2026-01-02"].Available {
				t.Fatalf("availability not preserved: %+v", set)
			}
		})
	}
}

func TestNormalizeDays_UnrecognizedShapeIsEmpty(t *testing.T) {
	for _, raw := range []string{`{"foo":1}`, `"text"`, ``, `42`, `{"data":{"other":[]}}`} {
		set, err := NormalizeDays([]byte(raw))
		if !errors.Is(err, ErrUnrecognizedShape) {
			t.Fatalf("%q: expected ErrUnrecognizedShape, got %v", raw, err)
		}
		if set == nil || len(set) != 0 {
			t.Fatalf("%q: expected empty usable set, got %#v", raw, set)
		}
	}
}

func TestNormalizeDays_InvalidJSON(t *testing.T) {
	set, err := NormalizeDays([]byte(`{"data":`))
	if err == nil {
		t.Fatalf("expected decode error")
	}
	if set == nil || len(set) != 0 {
		t.Fatalf("expected empty set, got %#v", set)
	}
}

func TestNormalizeDays_MergeUnavailableWins(t *testing.T) {
	raw := `{"data":[
		{"days":[{"date":"2026-03-01","status":{"available":true}}]},
		{"days":[{"date":"2026-03-01","status":{"available":false},"reservation_id":"x"}]}
	]}`
	set, err := NormalizeDays([]byte(raw))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(set) != 1 {
		t.Fatalf("expected one record, got %d", len(set))
	}
	got := set["2026-03-01"]
	if got.Available {
		t.Fatalf("expected unavailable after merge")
	}
	if got.ReservationID != "x" {
		t.Fatalf("expected reservation id x, got %q", got.ReservationID)
	}
}

func TestNormalizeDays_MergeOrderIndependentForAvailability(t *testing.T) {
	raw := `[
		{"date":"2026-03-01","status":{"available":false,"reason":"Maintenance"}},
		{"date":"2026-03-01","status":{"available":true}}
	]`
	set, _ := NormalizeDays([]byte(raw))
	got := set["2026-03-01"]
	if got.Available || got.Reason != "Maintenance" {
		t.Fatalf("later availability must not override unavailability: %+v", got)
	}
}

func TestNormalizeDays_FirstPriceKept(t *testing.T) {
	raw := `[
		{"date":"2026-03-02","status":{"available":true}},
		{"date":"2026-03-02","status":{"available":true},"price":{"amount":100,"formatted":"$100"}},
		{"date":"2026-03-02","status":{"available":false},"price":{"amount":200,"formatted":"$200"}},
		{"date":"2026-03-02","status":{"available":true}}
	]`
	set, _ := NormalizeDays([]byte(raw))
	got := set["2026-03-02"]
	if got.Price == nil || got.Price.Amount != 100 {
		t.Fatalf("expected first supplied price 100, got %+v", got.Price)
	}
	if got.Available {
		t.Fatalf("expected unavailable")
	}
}

func TestNormalizeDays_MissingStatusIsUnavailable(t *testing.T) {
	set, _ := NormalizeDays([]byte(`[{"date":"2026-03-03"}]`))
	if set["2026-03-03"].Available {
		t.Fatalf("a day without explicit availability must not be bookable")
	}
}

func TestNormalizeDays_NumericReservationIDAndBadEntries(t *testing.T) {
	raw := `{"days":[
		{"date":"2026-03-04","status":{"available":false},"reservation_id":12345},
		{"date":"not-a-date","status":{"available":false}},
		{"date":"2026-03-05","status":"broken"},
		{"date":"2026-03-06T00:00:00Z","status":{"available":true}}
	]}`
	set, err := NormalizeDays([]byte(raw))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if set["2026-03-04"].ReservationID != "12345" {
		t.Fatalf("numeric reservation id not kept: %+v", set["2026-03-04"])
	}
	if _, ok := set["2026-03-06"]; !ok {
		t.Fatalf("timestamp date should be truncated to a calendar date")
	}
	if len(set) != 2 {
		t.Fatalf("expected malformed entries to be skipped, got %d records", len(set))
	}
}

func TestDaySetSorted(t *testing.T) {
	set := DaySet{
		"2026-01-03": {Date: "2026-01-03"},
		"2026-01-01": {Date: "2026-01-01"},
		"2026-01-02": {Date: "2026-01-02"},
	}
	sorted := set.Sorted()
	for i, want := range []string{"2026-01-01", "2026-01-02", "2026-01-03"} {
		if sorted[i].Date != want {
			t.Fatalf("position %d: want %s, got %s", i, want, sorted[i].Date)
		}
	}
}

func TestScenarioBlocksRangesPrices(t *testing.T) {
	set, err := NormalizeDays([]byte(scenarioDays))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	blocks := Blocks(set)
	if len(blocks) != 1 || blocks[0].Date != "2026-02-11" {
		t.Fatalf("expected only 2026-02-11 as block, got %+v", blocks)
	}

	ranges := CollapseOccupied(set.Sorted())
	if len(ranges) != 1 {
		t.Fatalf("expected one occupied range, got %+v", ranges)
	}
	if ranges[0].String() != "2026-02-10..2026-02-12" {
		t.Fatalf("unexpected range %s", ranges[0])
	}

	prices := PriceIndex(set)
	if len(prices) != 1 {
		t.Fatalf("expected one price, got %+v", prices)
	}
	if p := prices["2026-02-12"]; p.Formatted != "$2,800,000" || p.Amount != 2800000 {
		t.Fatalf("unexpected price %+v", p)
	}
}

func TestIsBlock(t *testing.T) {
	cases := []struct {
		name string
		day  DayRecord
		want bool
	}{
		{"manual block", DayRecord{Reason: "Maintenance"}, true},
		{"no reason", DayRecord{}, true},
		{"reserved reason", DayRecord{Reason: "RESERVED"}, false},
		{"reservation source", DayRecord{SourceType: "RESERVATION"}, false},
		{"reservation id", DayRecord{ReservationID: "r1"}, false},
		{"available", DayRecord{Available: true}, false},
	}
	for _, tc := range cases {
		if got := tc.day.IsBlock(); got != tc.want {
			t.Errorf("%s: want %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestPriceIndexIgnoresAvailability(t *testing.T) {
	set := DaySet{
		"2026-01-01": {Date: "2026-01-01", Available: false, Price: &Price{Amount: 1, Formatted: "$1"}},
		"2026-01-02": {Date: "2026-01-02", Available: true, Price: &Price{Amount: 2, Formatted: "$2"}},
		"2026-01-03": {Date: "2026-01-03", Available: true},
	}
	prices := PriceIndex(set)
	if len(prices) != 2 {
		t.Fatalf("expected 2 priced days, got %d", len(prices))
	}
	if _, ok := prices["2026-01-03"]; ok {
		t.Fatalf("unpriced day must be absent")
	}
}

func TestNormalizeDays_MergeCarriesClosedFlags(t *testing.T) {
	raw := `{"data":[
		{"days":[{"date":"2026-03-07","status":{"available":true}}]},
		{"days":[{"date":"2026-03-07","status":{"available":false,"reason":"Maintenance"},"closed_for_checkin":true,"closed_for_checkout":true}]}
	]}`
	set, err := NormalizeDays([]byte(raw))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := set["2026-03-07"]
	if got.Available || !got.ClosedForCheckin || !got.ClosedForCheckout {
		t.Fatalf("unavailable report must bring its closed flags: %+v", got)
	}
}
