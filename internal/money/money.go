// Package money holds the pure price and quantity helpers shared by the
// catalog, cart and checkout packages.
package money

import (
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Quantity bounds for a single cart line.
const (
	MinQuantity = 1
	MaxQuantity = 99
)

// DefaultCurrency is the storefront's settlement currency.
const DefaultCurrency = "DZD"

// ErrInvalidQuantity is returned for a line quantity outside [MinQuantity, MaxQuantity].
var ErrInvalidQuantity = errors.New("invalid quantity")

var hundred = decimal.NewFromInt(100)

// ValidateQuantity reports ErrInvalidQuantity when q cannot be stored on a
// cart line. Callers translate a request for zero into a removal before
// calling it.
func ValidateQuantity(q int) error {
	if q < MinQuantity || q > MaxQuantity {
		return errors.Wrapf(ErrInvalidQuantity, "quantity %d outside [%d, %d]", q, MinQuantity, MaxQuantity)
	}
	return nil
}

// DiscountPercent returns the whole-number percentage saved when moving from
// oldPrice to newPrice. A nil or non-positive oldPrice, or one not above
// newPrice, yields zero.
func DiscountPercent(oldPrice *decimal.Decimal, newPrice decimal.Decimal) int {
	if oldPrice == nil || !oldPrice.IsPositive() || oldPrice.LessThanOrEqual(newPrice) {
		return 0
	}
	pct := oldPrice.Sub(newPrice).Div(*oldPrice).Mul(hundred).Round(0)
	return int(pct.IntPart())
}

// LineTotal is price multiplied by quantity.
func LineTotal(price decimal.Decimal, quantity int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(quantity)))
}

var printer = message.NewPrinter(language.English)

// Format renders amount with thousands grouping and no fraction digits,
// followed by the currency code, e.g. "15,000 DZD".
func Format(amount decimal.Decimal, currency string) string {
	if currency == "" {
		currency = DefaultCurrency
	}
	return printer.Sprintf("%d", amount.Round(0).IntPart()) + " " + currency
}

// Parse reverses Format. The currency suffix is optional.
func Parse(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, ' '); i >= 0 {
		s = s[:i]
	}
	s = strings.ReplaceAll(s, ",", "")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "parse amount %q", s)
	}
	return d, nil
}
