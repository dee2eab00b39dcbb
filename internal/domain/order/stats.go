package order

import "github.com/shopspring/decimal"

// Stats summarizes orders for the admin dashboard.
type Stats struct {
	Total     int
	Pending   int
	Delivered int
	// Revenue counts delivered orders only.
	Revenue decimal.Decimal
}

// Summarize computes Stats over orders.
func Summarize(orders []Order) Stats {
	st := Stats{Total: len(orders), Revenue: decimal.Zero}
	for _, o := range orders {
		switch o.Status {
		case StatusPending:
			st.Pending++
		case StatusDelivered:
			st.Delivered++
			st.Revenue = st.Revenue.Add(o.Total)
		}
	}
	return st
}
