// Package order holds orders produced by checkout and the admin operations
// over them.
package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/qualitytime/storefront/internal/money"
)

var (
	// ErrNotFound is returned when no order has the requested id.
	ErrNotFound = errors.New("order not found")
	// ErrEmptyItems is returned for a draft without items.
	ErrEmptyItems = errors.New("items required")
)

// DeliveryMethod selects where the carrier drops the parcel.
type DeliveryMethod string

const (
	DeliveryOffice DeliveryMethod = "OFFICE"
	DeliveryHome   DeliveryMethod = "HOME"
)

// Valid reports whether m is a known method.
func (m DeliveryMethod) Valid() bool {
	return m == DeliveryOffice || m == DeliveryHome
}

// PaymentCashOnDelivery is the only payment method offered.
const PaymentCashOnDelivery = "Cash on Delivery"

// Customer is the contact the courier calls.
type Customer struct {
	Name  string
	Email string
	Phone string
}

// Address is the shipping destination.
type Address struct {
	Wilaya       string
	Municipality string
	Street       string
}

// Item is a cart line frozen into an order.
type Item struct {
	ProductID string
	Name      string
	Brand     string
	Image     string
	UnitPrice decimal.Decimal
	Quantity  int
}

// Total is the unit price times quantity.
func (i Item) Total() decimal.Decimal {
	return money.LineTotal(i.UnitPrice, i.Quantity)
}

// Draft is a submission-ready order. It is built once per checkout attempt
// and not modified afterwards.
type Draft struct {
	Customer     Customer
	Shipping     Address
	Delivery     DeliveryMethod
	Payment      string
	Items        []Item
	Subtotal     decimal.Decimal
	ShippingCost decimal.Decimal
	Total        decimal.Decimal
}

// Validate checks the draft is internally consistent.
func (d Draft) Validate() error {
	if len(d.Items) == 0 {
		return ErrEmptyItems
	}
	if !d.Delivery.Valid() {
		return errors.Errorf("unknown delivery method %q", d.Delivery)
	}
	sum := decimal.Zero
	for _, it := range d.Items {
		if err := money.ValidateQuantity(it.Quantity); err != nil {
			return errors.Wrapf(err, "item %q", it.ProductID)
		}
		sum = sum.Add(it.Total())
	}
	if !sum.Equal(d.Subtotal) {
		return errors.Errorf("subtotal %s does not match items %s", d.Subtotal, sum)
	}
	if !d.Subtotal.Add(d.ShippingCost).Equal(d.Total) {
		return errors.Errorf("total %s is not subtotal plus shipping", d.Total)
	}
	return nil
}

// Order is a persisted draft.
type Order struct {
	ID string
	Draft
	Status      Status
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ShippedAt   *time.Time
	DeliveredAt *time.Time
}

// Repository defines persistence operations for orders.
type Repository interface {
	// Create stores o with its items atomically.
	Create(ctx context.Context, o *Order) error
	// List returns all orders, newest first.
	List(ctx context.Context) ([]Order, error)
	// Get returns the order with id or ErrNotFound.
	Get(ctx context.Context, id string) (*Order, error)
	// UpdateStatus moves id from status from to o.Status, stamping the
	// timestamps carried by o. It returns ErrStatusConflict if the stored
	// status is no longer from.
	UpdateStatus(ctx context.Context, from Status, o *Order) error
	// Delete removes the order with its items or returns ErrNotFound.
	Delete(ctx context.Context, id string) error
}
