package calendar

// PriceUpdate carries a nightly amount in the property's currency units.
type PriceUpdate struct {
	Amount int64 `json:"amount"`
}

// DayUpdate is one entry of a calendar PUT. The provider replaces every
// attribute of the day, so an update must carry the full intended state.
type DayUpdate struct {
	Date              string       `json:"date"`
	Available         bool         `json:"available"`
	ClosedForCheckout *bool        `json:"closed_for_checkout,omitempty"`
	ClosedForCheckin  *bool        `json:"closed_for_checkin,omitempty"`
	Price             *PriceUpdate `json:"price,omitempty"`
}

type DayUpdateRequest struct {
	Dates []DayUpdate `json:"dates"`
}

// BlockDay closes the date entirely, including check-in and check-out.
func BlockDay(date string) DayUpdate {
	closed := true
	return DayUpdate{
		Date:              date,
		Available:         false,
		ClosedForCheckout: &closed,
		ClosedForCheckin:  &closed,
	}
}

// UnblockDay reopens the date with no restriction flags.
func UnblockDay(date string) DayUpdate {
	return DayUpdate{Date: date, Available: true}
}

// AvailabilityUpdate blocks or unblocks a date, optionally setting its price.
func AvailabilityUpdate(date string, available bool, price *int64) DayUpdate {
	u := BlockDay(date)
	if available {
		u = UnblockDay(date)
	}
	if price != nil {
		u.Price = &PriceUpdate{Amount: *price}
	}
	return u
}

// RepriceUpdate re-sends the day exactly as the provider reported it, closed
// flags included, with a new price.
func RepriceUpdate(current DayRecord, amount int64) DayUpdate {
	closedForCheckout := current.ClosedForCheckout
	closedForCheckin := current.ClosedForCheckin
	return DayUpdate{
		Date:              current.Date,
		Available:         current.Available,
		ClosedForCheckout: &closedForCheckout,
		ClosedForCheckin:  &closedForCheckin,
		Price:             &PriceUpdate{Amount: amount},
	}
}
