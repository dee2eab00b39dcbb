package handler

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/qualitytime/storefront/internal/domain/order"
	"github.com/qualitytime/storefront/internal/money"
)

// ListOrders returns all orders, newest first, optionally filtered by
// ?status=.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	var filter order.Status
	if s := r.URL.Query().Get("status"); s != "" {
		st, err := order.ParseStatus(strings.ToUpper(s))
		if err != nil {
			h.fail(w, r, err, nil)
			return
		}
		filter = st
	}

	orders, err := h.orders.List(r.Context())
	if err != nil {
		h.fail(w, r, err, nil)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for _, o := range orders {
				if filter != "" && o.Status != filter {
					continue
				}
				h.encodeOrder(e, o)
			}
		})
	})
}

// GetOrder returns one order.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { h.encodeOrder(e, *o) })
}

// OrderStats summarizes all orders for the dashboard.
func (h *Handler) OrderStats(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.List(r.Context())
	if err != nil {
		h.fail(w, r, err, nil)
		return
	}
	stats := order.Summarize(orders)

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("total", func(e *jx.Encoder) { e.Int(stats.Total) })
			e.Field("pending", func(e *jx.Encoder) { e.Int(stats.Pending) })
			e.Field("delivered", func(e *jx.Encoder) { e.Int(stats.Delivered) })
			e.Field("revenue", func(e *jx.Encoder) { encodeDecimal(e, stats.Revenue) })
			e.Field("revenueText", func(e *jx.Encoder) { e.Str(money.Format(stats.Revenue, h.cfg.Currency)) })
		})
	})
}

// UpdateOrderStatus moves an order to {status}.
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var raw string
	if err := h.decodeObject(w, r, func(d *jx.Decoder, key string) error {
		if key != "status" {
			return d.Skip()
		}
		v, err := decodeString(d)
		raw = v
		return err
	}); err != nil {
		h.fail(w, r, err, nil)
		return
	}

	status, err := order.ParseStatus(strings.ToUpper(strings.TrimSpace(raw)))
	if err != nil {
		h.fail(w, r, err, nil)
		return
	}

	o, err := h.orders.UpdateStatus(r.Context(), chi.URLParam(r, "id"), status)
	if err != nil {
		h.fail(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { h.encodeOrder(e, *o) })
}

// DeleteOrder removes an order and its items.
func (h *Handler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.orders.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err, nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExportOrders downloads all orders as CSV.
func (h *Handler) ExportOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.List(r.Context())
	if err != nil {
		h.fail(w, r, err, nil)
		return
	}

	var buf bytes.Buffer
	if err := order.WriteCSV(&buf, orders); err != nil {
		h.fail(w, r, errors.Wrap(err, "write csv"), nil)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="orders.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) encodeOrder(e *jx.Encoder, o order.Order) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(o.ID) })
		e.Field("status", func(e *jx.Encoder) { e.Str(string(o.Status)) })
		e.Field("customer", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				e.Field("name", func(e *jx.Encoder) { e.Str(o.Customer.Name) })
				e.Field("email", func(e *jx.Encoder) { e.Str(o.Customer.Email) })
				e.Field("phone", func(e *jx.Encoder) { e.Str(o.Customer.Phone) })
			})
		})
		e.Field("shipping", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				e.Field("wilaya", func(e *jx.Encoder) { e.Str(o.Shipping.Wilaya) })
				e.Field("municipality", func(e *jx.Encoder) { e.Str(o.Shipping.Municipality) })
				e.Field("address", func(e *jx.Encoder) { e.Str(o.Shipping.Street) })
			})
		})
		e.Field("delivery", func(e *jx.Encoder) { e.Str(string(o.Delivery)) })
		e.Field("payment", func(e *jx.Encoder) { e.Str(o.Payment) })
		e.Field("items", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, it := range o.Items {
					e.Obj(func(e *jx.Encoder) {
						e.Field("productId", func(e *jx.Encoder) { e.Str(it.ProductID) })
						e.Field("name", func(e *jx.Encoder) { e.Str(it.Name) })
						e.Field("brand", func(e *jx.Encoder) { e.Str(it.Brand) })
						e.Field("image", func(e *jx.Encoder) { e.Str(h.imageURL(it.Image)) })
						e.Field("unitPrice", func(e *jx.Encoder) { encodeDecimal(e, it.UnitPrice) })
						e.Field("quantity", func(e *jx.Encoder) { e.Int(it.Quantity) })
						e.Field("total", func(e *jx.Encoder) { encodeDecimal(e, it.Total()) })
					})
				}
			})
		})
		e.Field("subtotal", func(e *jx.Encoder) { encodeDecimal(e, o.Subtotal) })
		e.Field("shippingCost", func(e *jx.Encoder) { encodeDecimal(e, o.ShippingCost) })
		e.Field("total", func(e *jx.Encoder) { encodeDecimal(e, o.Total) })
		e.Field("createdAt", func(e *jx.Encoder) { encodeTime(e, o.CreatedAt) })
		e.Field("updatedAt", func(e *jx.Encoder) { encodeTime(e, o.UpdatedAt) })
		if o.ShippedAt != nil {
			e.Field("shippedAt", func(e *jx.Encoder) { encodeTime(e, *o.ShippedAt) })
		}
		if o.DeliveredAt != nil {
			e.Field("deliveredAt", func(e *jx.Encoder) { encodeTime(e, *o.DeliveredAt) })
		}
	})
}
