// Package checkout turns a shopper's cart and shipping form into an order.
package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/qualitytime/storefront/internal/domain/cart"
	"github.com/qualitytime/storefront/internal/domain/order"
)

// ErrSubmissionFailed is returned when the order could not be stored. The
// cart is left as it was so the shopper can retry.
var ErrSubmissionFailed = errors.New("order submission failed")

// Receipt is what the shopper sees after a successful checkout.
type Receipt struct {
	OrderID  string
	Subtotal decimal.Decimal
	Shipping decimal.Decimal
	Total    decimal.Decimal
}

// Service submits carts as orders.
type Service struct {
	orders      order.Repository
	rates       Rates
	now         func() time.Time
	newID       func() string
	tracer      trace.Tracer
	submissions metric.Int64Counter
}

// Option configures a Service.
type Option func(*Service)

// WithTracerProvider traces submissions.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Service) { s.tracer = tp.Tracer("checkout") }
}

// WithMeterProvider counts submissions by outcome.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(s *Service) {
		c, err := mp.Meter("checkout").Int64Counter("checkout.submissions",
			metric.WithDescription("Checkout submissions by outcome"),
		)
		if err == nil {
			s.submissions = c
		}
	}
}

// NewService creates a checkout Service.
func NewService(orders order.Repository, rates Rates, opts ...Option) *Service {
	counter, _ := noop.NewMeterProvider().Meter("checkout").Int64Counter("checkout.submissions")
	s := &Service{
		orders:      orders,
		rates:       rates,
		now:         time.Now,
		newID:       func() string { return uuid.New().String() },
		tracer:      tracenoop.NewTracerProvider().Tracer("checkout"),
		submissions: counter,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Quote returns the shipping surcharge and grand total for the cart's
// current content.
func (s *Service) Quote(c cart.Cart, m DeliveryMethod) (shipping, total decimal.Decimal, err error) {
	shipping, err = s.rates.For(m)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return shipping, c.Total().Add(shipping), nil
}

// Submit places an order for the store's cart. The cart is frozen while the
// order is written, emptied when it is accepted and left untouched when it
// is not, including when the repository panics.
func (s *Service) Submit(ctx context.Context, store *cart.Store, form Form) (_ *Receipt, rerr error) {
	ctx, span := s.tracer.Start(ctx, "checkout.Submit")
	defer func() {
		outcome := "ok"
		if rerr != nil {
			outcome = outcomeOf(rerr)
			span.RecordError(rerr)
			span.SetStatus(codes.Error, outcome)
		}
		s.submissions.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
		span.End()
	}()

	form = form.Normalize()
	if err := form.Validate(); err != nil {
		return nil, err
	}

	snapshot, err := store.Freeze()
	if err != nil {
		return nil, err
	}
	placed := false
	defer func() {
		if !placed {
			store.Thaw()
		}
	}()

	o, err := s.build(snapshot, form)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.String("order.id", o.ID),
		attribute.Int("order.items", len(o.Items)),
	)

	if err := s.orders.Create(ctx, o); err != nil {
		zctx.From(ctx).Error("Create order", zap.String("order_id", o.ID), zap.Error(err))
		store.Notify(ctx, "We could not place your order, please try again", cart.SeverityError)
		return nil, fmt.Errorf("%w: %w", ErrSubmissionFailed, err)
	}

	placed = true
	store.CompleteCheckout(ctx)
	store.Notify(ctx, "Your order "+o.ID+" has been placed", cart.SeveritySuccess)
	zctx.From(ctx).Info("Order placed",
		zap.String("order_id", o.ID),
		zap.String("total", o.Total.String()),
	)

	return &Receipt{
		OrderID:  o.ID,
		Subtotal: o.Subtotal,
		Shipping: o.ShippingCost,
		Total:    o.Total,
	}, nil
}

func (s *Service) build(c cart.Cart, form Form) (*order.Order, error) {
	shipping, total, err := s.Quote(c, form.Delivery)
	if err != nil {
		return nil, err
	}

	items := make([]order.Item, len(c.Lines))
	for i, l := range c.Lines {
		var image string
		if len(l.Images) > 0 {
			image = l.Images[0]
		}
		items[i] = order.Item{
			ProductID: l.ID,
			Name:      l.Name,
			Brand:     l.Brand,
			Image:     image,
			UnitPrice: l.Price,
			Quantity:  l.Quantity,
		}
	}

	now := s.now().UTC()
	o := &order.Order{
		ID: s.newID(),
		Draft: order.Draft{
			Customer: order.Customer{Name: form.Name, Email: form.Email, Phone: form.Phone},
			Shipping: order.Address{
				Wilaya:       form.Wilaya,
				Municipality: form.Municipality,
				Street:       form.Address,
			},
			Delivery:     form.Delivery,
			Payment:      order.PaymentCashOnDelivery,
			Items:        items,
			Subtotal:     c.Total(),
			ShippingCost: shipping,
			Total:        total,
		},
		Status:    order.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := o.Validate(); err != nil {
		return nil, errors.Wrap(err, "build order")
	}
	return o, nil
}

func outcomeOf(err error) string {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		return "invalid"
	case errors.Is(err, cart.ErrEmptyCart):
		return "empty"
	case errors.Is(err, cart.ErrCartFrozen):
		return "busy"
	case errors.Is(err, ErrSubmissionFailed):
		return "failed"
	default:
		return "error"
	}
}
