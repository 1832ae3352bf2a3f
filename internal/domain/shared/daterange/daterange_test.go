package daterange

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	dr, err := Parse("2026-02-10", "2026-02-13T11:00:00-05:00")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if dr.Nights() != 3 || dr.String() != "2026-02-10..2026-02-13" {
		t.Fatalf("unexpected range %s (%d nights)", dr, dr.Nights())
	}
	if _, err := Parse("2026-02-10", "2026-02-10"); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("empty range must be rejected, got %v", err)
	}
	if _, err := Parse("10/02/2026", "2026-02-10"); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("bad date must be rejected, got %v", err)
	}
}

func TestOverlapsIsHalfOpen(t *testing.T) {
	a, _ := Parse("2026-01-01", "2026-01-03")
	b, _ := Parse("2026-01-03", "2026-01-05")
	c, _ := Parse("2026-01-02", "2026-01-04")
	if a.Overlaps(b) {
		t.Fatalf("adjacent ranges must not overlap")
	}
	if !a.Overlaps(c) || !c.Overlaps(b) {
		t.Fatalf("overlap not detected")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	dr, _ := Parse("2026-03-01", "2026-03-04")
	body, _ := json.Marshal(dr)
	if string(body) != `{"start":"2026-03-01","end":"2026-03-04"}` {
		t.Fatalf("unexpected json %s", body)
	}
	var back DateRange
	if err := json.Unmarshal(body, &back); err != nil || back.String() != dr.String() {
		t.Fatalf("round trip failed: %v %s", err, back)
	}
}
