package product

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/qualitytime/storefront/internal/money"
)

var (
	// ErrNotFound is returned when a requested product does not exist.
	ErrNotFound = errors.New("product not found")
	// ErrOutOfStock is returned when a product with no stock is offered to the cart.
	ErrOutOfStock = errors.New("product out of stock")
	// ErrExists is returned when a new product reuses an existing id.
	ErrExists = errors.New("product already exists")
)

// Product represents a watch in the catalog. The cart copies it by value.
type Product struct {
	ID          string
	Name        string
	Brand       string
	Description string
	Price       decimal.Decimal
	OldPrice    *decimal.Decimal
	Stock       int
	Images      []string
	Category    string
	CreatedAt   time.Time
}

// ValidationError describes a product field an admin or a seed file got wrong.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// Validate checks the fields every catalog entry needs.
func (p Product) Validate() error {
	switch {
	case p.ID == "":
		return &ValidationError{Field: "id", Reason: "missing id"}
	case p.Name == "":
		return &ValidationError{Field: "name", Reason: "missing name"}
	case !p.Price.IsPositive():
		return &ValidationError{Field: "price", Reason: "price must be positive"}
	case p.OldPrice != nil && p.OldPrice.IsNegative():
		return &ValidationError{Field: "oldPrice", Reason: "old price must not be negative"}
	case p.Stock < 0:
		return &ValidationError{Field: "stock", Reason: "negative stock"}
	}
	return nil
}

// IsOnSale reports whether the product has a previous price above the current one.
func (p Product) IsOnSale() bool {
	return p.OldPrice != nil && p.OldPrice.GreaterThan(p.Price)
}

// DiscountPercent is the rounded saving against OldPrice, or zero.
func (p Product) DiscountPercent() int {
	return money.DiscountPercent(p.OldPrice, p.Price)
}

// Thumbnail returns the first image, or "" when the product has none.
func (p Product) Thumbnail() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// StockLevel classifies the remaining quantity for display.
type StockLevel string

const (
	StockOut StockLevel = "out_of_stock"
	StockLow StockLevel = "low"
	StockIn  StockLevel = "in_stock"
)

// lowStockThreshold is the highest quantity still shown as running low.
const lowStockThreshold = 3

// StockStatus returns the display level for the product's stock.
func (p Product) StockStatus() StockLevel {
	switch {
	case p.Stock <= 0:
		return StockOut
	case p.Stock <= lowStockThreshold:
		return StockLow
	default:
		return StockIn
	}
}

// Repository defines catalog operations.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
	Upsert(ctx context.Context, p Product) error
	// Delete removes the product or returns ErrNotFound. Orders keep their
	// own copy of the product fields.
	Delete(ctx context.Context, id string) error
}
