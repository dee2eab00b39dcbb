package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/qualitytime/storefront/internal/domain/auth"
	"github.com/qualitytime/storefront/internal/domain/cart"
	"github.com/qualitytime/storefront/internal/domain/checkout"
	"github.com/qualitytime/storefront/internal/domain/order"
	"github.com/qualitytime/storefront/internal/domain/product"
)

// requestError is a malformed request.
type requestError struct {
	msg string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(msg string) error { return &requestError{msg: msg} }

var errNotFound = errors.New("not found")

// statusOf maps domain errors to HTTP status codes.
func statusOf(err error) int {
	var (
		reqErr     *requestError
		valErr     *checkout.ValidationError
		productErr *product.ValidationError
	)
	switch {
	case errors.As(err, &reqErr),
		errors.As(err, &valErr),
		errors.As(err, &productErr),
		errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, order.ErrUnknownStatus):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, errNotFound),
		errors.Is(err, product.ErrNotFound),
		errors.Is(err, order.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, cart.ErrCartFrozen),
		errors.Is(err, product.ErrExists),
		errors.Is(err, cart.ErrEmptyCart),
		errors.Is(err, order.ErrInvalidTransition),
		errors.Is(err, order.ErrStatusConflict):
		return http.StatusConflict
	case errors.Is(err, cart.ErrQuantityLimitReached),
		errors.Is(err, product.ErrOutOfStock):
		return http.StatusUnprocessableEntity
	case errors.Is(err, checkout.ErrSubmissionFailed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err as an error response. Notifications still pending in
// inbox are delivered with it.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, inbox *cart.Inbox) {
	status := statusOf(err)
	msg := err.Error()

	var (
		field      *string
		valErr     *checkout.ValidationError
		productErr *product.ValidationError
	)
	switch {
	case errors.As(err, &valErr):
		field = &valErr.Field
	case errors.As(err, &productErr):
		field = &productErr.Field
	}

	switch {
	case status == http.StatusInternalServerError:
		zctx.From(r.Context()).Error("Request failed", zap.Error(err))
		msg = "internal error"
	case status == http.StatusServiceUnavailable:
		msg = "order could not be placed, please try again"
	case status == http.StatusUnauthorized:
		msg = "unauthorized"
	}

	var notes []cart.Notification
	if inbox != nil {
		notes = inbox.Drain()
	}
	writeError(w, status, msg, field, notes)
}
