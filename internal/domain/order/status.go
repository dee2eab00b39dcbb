package order

import (
	"slices"

	"github.com/go-faster/errors"
)

var (
	// ErrUnknownStatus is returned when parsing an unrecognized status.
	ErrUnknownStatus = errors.New("unknown order status")
	// ErrInvalidTransition is returned for a status change the workflow forbids.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrStatusConflict is returned when the order changed status concurrently.
	ErrStatusConflict = errors.New("order status changed concurrently")
)

// Status is an order's position in the fulfilment workflow.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusShipped    Status = "SHIPPED"
	StatusDelivered  Status = "DELIVERED"
	StatusCancelled  Status = "CANCELLED"
)

// Statuses lists every status in workflow order.
var Statuses = []Status{
	StatusPending,
	StatusProcessing,
	StatusShipped,
	StatusDelivered,
	StatusCancelled,
}

var next = map[Status][]Status{
	StatusPending: {StatusProcessing},
	// The back office confirms delivery of a processing order directly when
	// the courier does not report a shipment.
	StatusProcessing: {StatusShipped, StatusDelivered},
	StatusShipped:    {StatusDelivered},
}

// ParseStatus returns the Status named s.
func ParseStatus(s string) (Status, error) {
	for _, st := range Statuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", errors.Wrap(ErrUnknownStatus, s)
}

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanTransition reports whether s may move to to. Orders advance along the
// workflow and any non-terminal order may be cancelled.
func (s Status) CanTransition(to Status) bool {
	if s.Terminal() {
		return false
	}
	if to == StatusCancelled {
		return true
	}
	return slices.Contains(next[s], to)
}
