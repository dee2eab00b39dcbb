package handler

import (
	"net/http"
	"strings"

	"github.com/go-faster/jx"

	"github.com/qualitytime/storefront/internal/domain/checkout"
	"github.com/qualitytime/storefront/internal/money"
)

// QuoteCheckout prices the current cart for ?delivery=OFFICE|HOME.
func (h *Handler) QuoteCheckout(w http.ResponseWriter, r *http.Request) {
	sess, err := h.session(r)
	if err != nil {
		h.fail(w, r, err, nil)
		return
	}
	defer sess.Release()

	method := checkout.DeliveryMethod(strings.ToUpper(r.URL.Query().Get("delivery")))
	if method == "" {
		method = checkout.DeliveryOffice
	}
	if !method.Valid() {
		h.fail(w, r, badRequest("delivery must be OFFICE or HOME"), nil)
		return
	}

	c := sess.Store.Snapshot()
	shipping, total, err := h.checkout.Quote(c, method)
	if err != nil {
		h.fail(w, r, err, nil)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("delivery", func(e *jx.Encoder) { e.Str(string(method)) })
			e.Field("count", func(e *jx.Encoder) { e.Int(c.Count()) })
			e.Field("subtotal", func(e *jx.Encoder) { encodeDecimal(e, c.Total()) })
			e.Field("shipping", func(e *jx.Encoder) { encodeDecimal(e, shipping) })
			e.Field("total", func(e *jx.Encoder) { encodeDecimal(e, total) })
			e.Field("totalText", func(e *jx.Encoder) { e.Str(money.Format(total, h.cfg.Currency)) })
		})
	})
}

// Checkout submits the session cart with the shipping form in the body.
// An empty cart is answered with 409.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	sess, err := h.session(r)
	if err != nil {
		h.fail(w, r, err, nil)
		return
	}
	defer sess.Release()
	ctx, inbox := collect(r)

	var form checkout.Form
	fields := map[string]*string{
		"name":         &form.Name,
		"email":        &form.Email,
		"phone":        &form.Phone,
		"wilaya":       &form.Wilaya,
		"municipality": &form.Municipality,
		"address":      &form.Address,
	}
	if err := h.decodeObject(w, r, func(d *jx.Decoder, key string) error {
		if key == "delivery" || key == "deliveryMethod" {
			v, err := decodeString(d)
			form.Delivery = checkout.DeliveryMethod(v)
			return err
		}
		dst, ok := fields[key]
		if !ok {
			return d.Skip()
		}
		v, err := decodeString(d)
		*dst = v
		return err
	}); err != nil {
		h.fail(w, r, err, inbox)
		return
	}

	receipt, err := h.checkout.Submit(ctx, sess.Store, form)
	if err != nil {
		h.fail(w, r, err, inbox)
		return
	}

	notes := inbox.Drain()
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("orderId", func(e *jx.Encoder) { e.Str(receipt.OrderID) })
			e.Field("subtotal", func(e *jx.Encoder) { encodeDecimal(e, receipt.Subtotal) })
			e.Field("shipping", func(e *jx.Encoder) { encodeDecimal(e, receipt.Shipping) })
			e.Field("total", func(e *jx.Encoder) { encodeDecimal(e, receipt.Total) })
			e.Field("totalText", func(e *jx.Encoder) { e.Str(money.Format(receipt.Total, h.cfg.Currency)) })
			e.Field("notifications", func(e *jx.Encoder) { encodeNotifications(e, notes) })
		})
	})
}
