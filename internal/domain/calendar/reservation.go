package calendar

import (
	"bytes"
	"encoding/json"
	"strings"

	"lajuana/internal/domain/shared/daterange"
)

const (
	FallbackGuestName = "Huésped"
	NotAvailable      = "N/A"
	PlatformManual    = "manual"
)

var cancelKeywords = []string{"cancelled", "declined", "denied", "expired"}

// ReservationRecord is one guest stay as reported by the provider.
type ReservationRecord struct {
	ID                string `json:"id"`
	Code              string `json:"code,omitempty"`
	ArrivalDate       string `json:"arrival_date"`
	DepartureDate     string `json:"departure_date"`
	CheckIn           string `json:"check_in,omitempty"`
	CheckOut          string `json:"check_out,omitempty"`
	GuestName         string `json:"guest_name"`
	Phone             string `json:"phone"`
	Platform          string `json:"platform"`
	PlatformID        string `json:"platform_id"`
	StatusCategory    string `json:"status_category"`
	StatusSubcategory string `json:"status_subcategory,omitempty"`
	Status            string `json:"status"`
	IsCancelled       bool   `json:"is_cancelled"`
	Revenue           string `json:"revenue"`
	GuestCount        int    `json:"guest_count"`
}

// NormalizeReservations flattens a bare array, {data:[...]} or [{data:[...]}]
// into reservation records. Entries without usable dates are dropped. On error the
// returned slice is empty but usable.
func NormalizeReservations(raw []byte) ([]ReservationRecord, error) {
	items, err := coerceReservations(raw)
	if err != nil {
		return []ReservationRecord{}, err
	}
	out := make([]ReservationRecord, 0, len(items))
	for _, item := range items {
		var rr rawReservation
		if err := json.Unmarshal(item, &rr); err != nil {
			continue
		}
		record, ok := rr.record()
		if !ok {
			continue
		}
		out = append(out, record)
	}
	return out, nil
}

// CombinedStatus renders "category (subcategory)" or just the category.
func CombinedStatus(category, subcategory string) string {
	category = strings.TrimSpace(category)
	subcategory = strings.TrimSpace(subcategory)
	if subcategory == "" {
		return category
	}
	return category + " (" + subcategory + ")"
}

// IsCancelledStatus matches keywords as substrings since the provider's
// sub-status taxonomy is open-ended.
func IsCancelledStatus(status string) bool {
	s := strings.ToLower(status)
	for _, kw := range cancelKeywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// GuestDisplayName joins given and family names, never returning "".
func GuestDisplayName(first, last string) string {
	full := strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
	if full == "" {
		return FallbackGuestName
	}
	return full
}

func NormalizePlatform(platform string) string {
	p := strings.ToLower(strings.TrimSpace(platform))
	if p == "" {
		return PlatformManual
	}
	return p
}

type rawReservation struct {
	ID                flexString `json:"id"`
	UUID              flexString `json:"uuid"`
	Code              string     `json:"code"`
	Platform          string     `json:"platform"`
	PlatformID        flexString `json:"platform_id"`
	ArrivalDate       string     `json:"arrival_date"`
	DepartureDate     string     `json:"departure_date"`
	CheckIn           string     `json:"check_in"`
	CheckOut          string     `json:"check_out"`
	ReservationStatus struct {
		Current struct {
			Category    string `json:"category"`
			SubCategory string `json:"sub_category"`
		} `json:"current"`
	} `json:"reservation_status"`
	Guest *struct {
		FirstName    string   `json:"first_name"`
		LastName     string   `json:"last_name"`
		PhoneNumbers []string `json:"phone_numbers"`
	} `json:"guest"`
	Guests struct {
		Total int `json:"total"`
	} `json:"guests"`
	Financials struct {
		Host struct {
			Revenue struct {
				Formatted string `json:"formatted"`
			} `json:"revenue"`
		} `json:"host"`
	} `json:"financials"`
}

func (rr rawReservation) record() (ReservationRecord, bool) {
	arrival, err := daterange.ParseDay(rr.ArrivalDate)
	if err != nil {
		return ReservationRecord{}, false
	}
	departure, err := daterange.ParseDay(rr.DepartureDate)
	if err != nil || departure.Before(arrival) {
		return ReservationRecord{}, false
	}

	id := string(rr.ID)
	if id == "" {
		id = string(rr.UUID)
	}
	guestName := FallbackGuestName
	phone := NotAvailable
	if rr.Guest != nil {
		guestName = GuestDisplayName(rr.Guest.FirstName, rr.Guest.LastName)
		if len(rr.Guest.PhoneNumbers) > 0 && strings.TrimSpace(rr.Guest.PhoneNumbers[0]) != "" {
			phone = rr.Guest.PhoneNumbers[0]
		}
	}
	category := rr.ReservationStatus.Current.Category
	subcategory := rr.ReservationStatus.Current.SubCategory
	status := CombinedStatus(category, subcategory)
	cancelled := IsCancelledStatus(status)
	if status == "" {
		status = NotAvailable
	}
	revenue := strings.TrimSpace(rr.Financials.Host.Revenue.Formatted)
	if revenue == "" {
		revenue = NotAvailable
	}
	platformID := string(rr.PlatformID)
	if platformID == "" {
		platformID = NotAvailable
	}
	guests := rr.Guests.Total
	if guests < 0 {
		guests = 0
	}

	return ReservationRecord{
		ID:                id,
		Code:              rr.Code,
		ArrivalDate:       daterange.Format(arrival),
		DepartureDate:     daterange.Format(departure),
		CheckIn:           rr.CheckIn,
		CheckOut:          rr.CheckOut,
		GuestName:         guestName,
		Phone:             phone,
		Platform:          NormalizePlatform(rr.Platform),
		PlatformID:        platformID,
		StatusCategory:    category,
		StatusSubcategory: subcategory,
		Status:            status,
		IsCancelled:       cancelled,
		Revenue:           revenue,
		GuestCount:        guests,
	}, true
}

func coerceReservations(raw []byte) ([]json.RawMessage, error) {
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
		var out []json.RawMessage
		for _, item := range items {
			if inner, ok := dataArray(item); ok {
				out = append(out, inner...)
				continue
			}
			out = append(out, item)
		}
		return out, nil
	case '{':
		if inner, ok := dataArray(trimmed); ok {
			return inner, nil
		}
		return nil, ErrUnrecognizedShape
	default:
		return nil, ErrUnrecognizedShape
	}
}

// dataArray unwraps {data:[...]}.
func dataArray(raw json.RawMessage) ([]json.RawMessage, bool) {
	if !isJSONObject(raw) {
		return nil, false
	}
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err != nil || !isJSONArray(env.Data) {
		return nil, false
	}
	var items []json.RawMessage
	if err := json.Unmarshal(env.Data, &items); err != nil {
		return nil, false
	}
	return items, true
}
