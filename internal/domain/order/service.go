package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// Service encapsulates the admin order workflow.
type Service struct {
	orders Repository
	now    func() time.Time
}

// NewService creates an order Service.
func NewService(orders Repository) *Service {
	return &Service{orders: orders, now: time.Now}
}

// List returns all orders, newest first.
func (s *Service) List(ctx context.Context) ([]Order, error) {
	orders, err := s.orders.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	return orders, nil
}

// Get returns a single order.
func (s *Service) Get(ctx context.Context, id string) (*Order, error) {
	o, err := s.orders.Get(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get order %s", id)
	}
	return o, nil
}

// Delete removes an order from the back office.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.orders.Delete(ctx, id); err != nil {
		return errors.Wrapf(err, "delete order %s", id)
	}
	return nil
}

// UpdateStatus advances the order to status, stamping shipment and delivery
// times on the way.
func (s *Service) UpdateStatus(ctx context.Context, id string, status Status) (*Order, error) {
	o, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	from := o.Status
	if !from.CanTransition(status) {
		return nil, errors.Wrapf(ErrInvalidTransition, "%s -> %s", from, status)
	}

	now := s.now().UTC()
	o.Status = status
	o.UpdatedAt = now
	switch status {
	case StatusShipped:
		o.ShippedAt = &now
	case StatusDelivered:
		o.DeliveredAt = &now
	}

	if err := s.orders.UpdateStatus(ctx, from, o); err != nil {
		return nil, errors.Wrapf(err, "update order %s", id)
	}
	return o, nil
}
