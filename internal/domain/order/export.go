package order

import (
	"encoding/csv"
	"io"
	"time"

	"github.com/go-faster/errors"
)

// CSVHeader is the first row written by WriteCSV.
var CSVHeader = []string{
	"id", "customer", "phone", "wilaya", "delivery", "status",
	"subtotal", "shipping", "total", "created_at",
}

// WriteCSV writes one row per order after CSVHeader.
func WriteCSV(w io.Writer, orders []Order) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return errors.Wrap(err, "write header")
	}
	for _, o := range orders {
		row := []string{
			o.ID,
			o.Customer.Name,
			o.Customer.Phone,
			o.Shipping.Wilaya,
			string(o.Delivery),
			string(o.Status),
			o.Subtotal.StringFixed(2),
			o.ShippingCost.StringFixed(2),
			o.Total.StringFixed(2),
			o.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return errors.Wrapf(err, "write order %s", o.ID)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.Wrap(err, "flush")
	}
	return nil
}
