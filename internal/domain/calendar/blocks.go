package calendar

// IsBlock reports whether the day is a host block. The feed also marks
// reservation nights unavailable; those are not blocks.
func (d DayRecord) IsBlock() bool {
	return !d.Available &&
		d.Reason != ReasonReserved &&
		d.SourceType != SourceTypeReservation &&
		d.ReservationID == ""
}

// Blocks returns the host-blocked days in date order.
func Blocks(days DaySet) []DayRecord {
	var out []DayRecord
	for _, d := range days.Sorted() {
		if d.IsBlock() {
			out = append(out, d)
		}
	}
	return out
}

// PriceIndex maps every priced date to its price, available or not.
func PriceIndex(days DaySet) map[string]Price {
	out := make(map[string]Price, len(days))
	for date, d := range days {
		if d.Price != nil {
			out[date] = *d.Price
		}
	}
	return out
}
