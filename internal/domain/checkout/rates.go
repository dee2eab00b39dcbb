package checkout

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Rates are the fixed shipping surcharges per delivery method.
type Rates struct {
	Office decimal.Decimal
	Home   decimal.Decimal
}

// DefaultRates are the surcharges in dinars.
var DefaultRates = Rates{
	Office: decimal.NewFromInt(450),
	Home:   decimal.NewFromInt(800),
}

// For returns the surcharge for m.
func (r Rates) For(m DeliveryMethod) (decimal.Decimal, error) {
	switch m {
	case DeliveryOffice:
		return r.Office, nil
	case DeliveryHome:
		return r.Home, nil
	default:
		return decimal.Zero, errors.Errorf("unknown delivery method %q", m)
	}
}
