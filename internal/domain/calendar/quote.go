package calendar

import "lajuana/internal/domain/shared/daterange"

type NightPrice struct {
	Date   string `json:"date"`
	Amount int64  `json:"amount"`
	Listed bool   `json:"listed"`
}

type Quote struct {
	Nights  int          `json:"nights"`
	Nightly []NightPrice `json:"nightly"`
	Total   int64        `json:"total"`
}

// QuoteStay prices every night of the stay from the feed, falling back to
// defaultRate for nights the feed does not price.
func QuoteStay(stay daterange.DateRange, prices map[string]Price, defaultRate int64) Quote {
	q := Quote{Nightly: []NightPrice{}}
	for _, d := range stay.Days() {
		date := daterange.Format(d)
		np := NightPrice{Date: date, Amount: defaultRate}
		if p, ok := prices[date]; ok {
			np.Amount = p.Amount
			np.Listed = true
		}
		q.Nightly = append(q.Nightly, np)
		q.Total += np.Amount
	}
	q.Nights = len(q.Nightly)
	return q
}
