package cart

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/qualitytime/storefront/internal/money"
)

// Store owns one cart and mediates every mutation. Each mutation updates
// memory first, then writes the whole cart through the Persister and reports
// the outcome to the Notifier. A failed write is reported but never rolled
// back; memory stays authoritative until the next successful write.
type Store struct {
	persister Persister
	notifier  Notifier
	mutations metric.Int64Counter
	now       func() time.Time

	mu      sync.Mutex
	cart    Cart
	frozen  bool
	touched time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithMeter records mutation counts on meter.
func WithMeter(meter metric.Meter) Option {
	return func(s *Store) {
		c, err := meter.Int64Counter("cart.mutations",
			metric.WithDescription("Cart mutations by operation and outcome"),
		)
		if err == nil {
			s.mutations = c
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates a Store seeded with initial.
func NewStore(initial Cart, p Persister, n Notifier, opts ...Option) *Store {
	if n == nil {
		n = Discard
	}
	counter, _ := noop.NewMeterProvider().Meter("cart").Int64Counter("cart.mutations")
	s := &Store{
		persister: p,
		notifier:  n,
		mutations: counter,
		now:       time.Now,
		cart:      initial.Clone(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.touched = s.now()
	return s
}

// Open loads the persisted cart and returns a Store seeded with it.
func Open(ctx context.Context, p Persister, n Notifier, opts ...Option) (*Store, error) {
	c, err := p.Load(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load cart")
	}
	return NewStore(c, p, n, opts...), nil
}

// AddItem inserts item with quantity 1, or increments the existing line for
// item.ID. Incrementing past money.MaxQuantity returns
// ErrQuantityLimitReached and leaves the cart unchanged.
func (s *Store) AddItem(ctx context.Context, item Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkFrozen(ctx, "add"); err != nil {
		return err
	}

	if i := s.cart.index(item.ID); i >= 0 {
		if s.cart.Lines[i].Quantity >= money.MaxQuantity {
			s.limitReached(ctx, "add")
			return ErrQuantityLimitReached
		}
		s.cart.Lines[i].Quantity++
	} else {
		item.Images = append([]string(nil), item.Images...)
		s.cart.Lines = append(s.cart.Lines, Line{
			Item:     item,
			Quantity: 1,
			AddedAt:  s.now(),
		})
	}

	s.commit(ctx, "add", fmt.Sprintf("Added %s to your cart", item.Name), SeveritySuccess)
	return nil
}

// RemoveItem deletes the line for id. Removing an absent id is not an error.
func (s *Store) RemoveItem(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkFrozen(ctx, "remove"); err != nil {
		return err
	}
	s.remove(id)
	s.commit(ctx, "remove", "Item removed from your cart", SeverityInfo)
	return nil
}

// UpdateQuantity sets the line for id to quantity. A quantity below
// money.MinQuantity removes the line; one above money.MaxQuantity returns
// ErrQuantityLimitReached without touching the cart. Unknown ids are ignored.
func (s *Store) UpdateQuantity(ctx context.Context, id string, quantity int) error {
	if quantity < money.MinQuantity {
		return s.RemoveItem(ctx, id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkFrozen(ctx, "update"); err != nil {
		return err
	}
	if quantity > money.MaxQuantity {
		s.limitReached(ctx, "update")
		return ErrQuantityLimitReached
	}

	i := s.cart.index(id)
	if i < 0 {
		s.record(ctx, "update", "noop")
		return nil
	}
	s.cart.Lines[i].Quantity = quantity
	s.commit(ctx, "update", "", "")
	return nil
}

// Clear empties the cart.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkFrozen(ctx, "clear"); err != nil {
		return err
	}
	s.cart.Lines = nil
	s.commit(ctx, "clear", "Your cart has been emptied", SeverityInfo)
	return nil
}

// Freeze blocks mutations and returns the cart as it stands. It fails with
// ErrCartFrozen when already frozen and ErrEmptyCart when there is nothing
// to check out. Release with Thaw or CompleteCheckout.
func (s *Store) Freeze() (Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.frozen {
		return Cart{}, ErrCartFrozen
	}
	if s.cart.IsEmpty() {
		return Cart{}, ErrEmptyCart
	}
	s.frozen = true
	return s.cart.Clone(), nil
}

// Thaw lifts a freeze without changing the cart.
func (s *Store) Thaw() {
	s.mu.Lock()
	s.frozen = false
	s.mu.Unlock()
}

// CompleteCheckout empties a frozen cart after its order was accepted and
// lifts the freeze.
func (s *Store) CompleteCheckout(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.frozen = false
	s.cart.Lines = nil
	s.commit(ctx, "checkout", "Your cart has been emptied", SeverityInfo)
}

// Snapshot returns a copy of the cart.
func (s *Store) Snapshot() Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Clone()
}

// Count is the number of units in the cart.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Count()
}

// Total is the cart value at captured prices.
func (s *Store) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Total()
}

// Frozen reports whether a checkout holds the cart.
func (s *Store) Frozen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frozen
}

// Notify reports an outcome that concerns the cart, such as a checkout
// result, through the store's notifier and the one carried by ctx.
func (s *Store) Notify(ctx context.Context, message string, severity Severity) {
	s.notifier.Notify(message, severity)
	if n := notifierFrom(ctx); n != nil {
		n.Notify(message, severity)
	}
}

// idleSince is the time of the last use.
func (s *Store) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touched
}

func (s *Store) touch() {
	s.mu.Lock()
	s.touched = s.now()
	s.mu.Unlock()
}

func (s *Store) remove(id string) {
	if i := s.cart.index(id); i >= 0 {
		s.cart.Lines = append(s.cart.Lines[:i:i], s.cart.Lines[i+1:]...)
	}
}

func (s *Store) checkFrozen(ctx context.Context, op string) error {
	if !s.frozen {
		return nil
	}
	s.record(ctx, op, "frozen")
	s.Notify(ctx, "Your order is being placed, the cart cannot change right now", SeverityError)
	return ErrCartFrozen
}

func (s *Store) limitReached(ctx context.Context, op string) {
	s.record(ctx, op, "limit")
	s.Notify(ctx, fmt.Sprintf("You cannot add more than %d units", money.MaxQuantity), SeverityError)
}

// commit persists the cart and reports the outcome. Must hold s.mu.
func (s *Store) commit(ctx context.Context, op, message string, severity Severity) {
	s.touched = s.now()
	if err := s.persister.Save(ctx, s.cart); err != nil {
		s.record(ctx, op, "persist_failed")
		s.Notify(ctx, "Your cart could not be saved", SeverityError)
	} else {
		s.record(ctx, op, "ok")
	}
	if message != "" {
		s.Notify(ctx, message, severity)
	}
}

func (s *Store) record(ctx context.Context, op, outcome string) {
	s.mutations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("op", op),
		attribute.String("outcome", outcome),
	))
}
