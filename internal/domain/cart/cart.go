// Package cart implements the shopper's cart: line items keyed by product,
// bounded quantities, derived totals, and the persistence and notification
// contracts the store drives on every mutation.
package cart

import (
	"slices"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/qualitytime/storefront/internal/domain/product"
	"github.com/qualitytime/storefront/internal/money"
)

var (
	// ErrInvalidQuantity is returned for a quantity that cannot be stored on a line.
	ErrInvalidQuantity = money.ErrInvalidQuantity
	// ErrQuantityLimitReached is returned when a line would exceed money.MaxQuantity.
	ErrQuantityLimitReached = errors.New("quantity limit reached")
	// ErrCartFrozen is returned for mutations attempted while an order is being submitted.
	ErrCartFrozen = errors.New("cart is frozen for checkout")
	// ErrEmptyCart is returned when an empty cart is offered for checkout.
	ErrEmptyCart = errors.New("cart is empty")
)

// Item is the copy of product fields a line needs for display and pricing.
// The price is captured at insertion and never refreshed from the catalog.
type Item struct {
	ID       string
	Name     string
	Brand    string
	Price    decimal.Decimal
	Stock    int
	Images   []string
	Category string
}

// ItemOf copies p into an Item.
func ItemOf(p product.Product) Item {
	return Item{
		ID:       p.ID,
		Name:     p.Name,
		Brand:    p.Brand,
		Price:    p.Price,
		Stock:    p.Stock,
		Images:   slices.Clone(p.Images),
		Category: p.Category,
	}
}

// Line is one product's entry in the cart.
type Line struct {
	Item
	Quantity int
	AddedAt  time.Time
}

// Subtotal is the line's price times its quantity.
func (l Line) Subtotal() decimal.Decimal {
	return money.LineTotal(l.Price, l.Quantity)
}

// Cart is the ordered set of lines. Insertion order is preserved and no two
// lines share a product id.
type Cart struct {
	Lines []Line
}

// Count is the sum of line quantities.
func (c Cart) Count() int {
	n := 0
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}

// Total is the sum of price times quantity over all lines.
func (c Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// IsEmpty reports whether the cart has no lines.
func (c Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// index returns the position of the line for id, or -1.
func (c Cart) index(id string) int {
	return slices.IndexFunc(c.Lines, func(l Line) bool { return l.ID == id })
}

// Line returns the line for id.
func (c Cart) Line(id string) (Line, bool) {
	i := c.index(id)
	if i < 0 {
		return Line{}, false
	}
	return c.Lines[i], true
}

// Clone returns a deep copy safe to hand out of the store.
func (c Cart) Clone() Cart {
	lines := make([]Line, len(c.Lines))
	for i, l := range c.Lines {
		l.Images = slices.Clone(l.Images)
		lines[i] = l
	}
	return Cart{Lines: lines}
}

// validate checks the cart invariants.
func (c Cart) validate() error {
	seen := make(map[string]struct{}, len(c.Lines))
	for _, l := range c.Lines {
		if l.ID == "" {
			return errors.New("line without product id")
		}
		if _, dup := seen[l.ID]; dup {
			return errors.Errorf("duplicate line %q", l.ID)
		}
		seen[l.ID] = struct{}{}
		if err := money.ValidateQuantity(l.Quantity); err != nil {
			return errors.Wrapf(err, "line %q", l.ID)
		}
		if l.Price.IsNegative() {
			return errors.Errorf("line %q has negative price", l.ID)
		}
		if l.Stock < 0 {
			return errors.Errorf("line %q has negative stock", l.ID)
		}
	}
	return nil
}
