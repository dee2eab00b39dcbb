package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/qualitytime/storefront/internal/domain/cart"
	"github.com/qualitytime/storefront/internal/domain/product"
	"github.com/qualitytime/storefront/internal/money"
	"github.com/qualitytime/storefront/pkg/httpmiddleware"
)

// session resolves the request's cart session. The caller releases it.
func (h *Handler) session(r *http.Request) (*cart.Session, error) {
	id := httpmiddleware.SessionFromContext(r.Context())
	if id == "" {
		return nil, badRequest("session required")
	}
	sess, err := h.sessions.Get(r.Context(), id)
	if err != nil {
		return nil, errors.Wrap(err, "open cart")
	}
	return sess, nil
}

// collect returns a context whose cart notifications land in the returned
// inbox, so each response carries only its own request's messages.
func collect(r *http.Request) (context.Context, *cart.Inbox) {
	inbox := cart.NewInbox(nil)
	return cart.WithNotifier(r.Context(), inbox), inbox
}

// withCart runs fn against the session cart and responds with the cart.
func (h *Handler) withCart(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, sess *cart.Session) error) {
	sess, err := h.session(r)
	if err != nil {
		h.fail(w, r, err, nil)
		return
	}
	defer sess.Release()

	ctx, inbox := collect(r)
	if fn != nil {
		if err := fn(ctx, sess); err != nil {
			h.fail(w, r, err, inbox)
			return
		}
	}
	h.writeCart(w, sess, inbox)
}

// GetCart returns the session cart.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	h.withCart(w, r, nil)
}

// AddCartItem adds one unit of {productId} to the cart. Products without
// stock are refused before the cart is touched.
func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	h.withCart(w, r, func(ctx context.Context, sess *cart.Session) error {
		var productID string
		if err := h.decodeObject(w, r, func(d *jx.Decoder, key string) error {
			switch key {
			case "productId", "id":
				v, err := decodeString(d)
				productID = v
				return err
			default:
				return d.Skip()
			}
		}); err != nil {
			return err
		}
		if productID == "" {
			return badRequest("productId required")
		}

		p, err := h.products.GetByID(ctx, productID)
		if err != nil {
			return errors.Wrap(err, "get product")
		}
		if p.StockStatus() == product.StockOut {
			sess.Store.Notify(ctx, p.Name+" is out of stock", cart.SeverityError)
			return product.ErrOutOfStock
		}
		return sess.Store.AddItem(ctx, cart.ItemOf(*p))
	})
}

// UpdateCartItem sets the quantity of a line from {quantity}. Zero or less
// removes it.
func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	h.withCart(w, r, func(ctx context.Context, sess *cart.Session) error {
		quantity, set := 0, false
		if err := h.decodeObject(w, r, func(d *jx.Decoder, key string) error {
			if key != "quantity" {
				return d.Skip()
			}
			if d.Next() != jx.Number {
				return badRequest("quantity must be a number")
			}
			n, err := d.Num()
			if err != nil {
				return err
			}
			v, err := quantityOf(n)
			if err != nil {
				return err
			}
			quantity, set = v, true
			return nil
		}); err != nil {
			return err
		}
		if !set {
			return badRequest("quantity required")
		}
		return sess.Store.UpdateQuantity(ctx, chi.URLParam(r, "id"), quantity)
	})
}

// quantityOf reads a JSON number as a line quantity. Exponent forms such as
// 1e3 are accepted; values past the cart bounds saturate just outside them so
// the store reports the limit instead of the request failing to parse.
func quantityOf(n jx.Num) (int, error) {
	v, err := decimal.NewFromString(n.String())
	if err != nil || !v.IsInteger() {
		return 0, badRequest("quantity must be an integer")
	}
	switch {
	case v.GreaterThan(decimal.NewFromInt(money.MaxQuantity)):
		return money.MaxQuantity + 1, nil
	case v.LessThan(decimal.NewFromInt(money.MinQuantity)):
		return money.MinQuantity - 1, nil
	}
	return int(v.IntPart()), nil
}

// RemoveCartItem deletes a line.
func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	h.withCart(w, r, func(ctx context.Context, sess *cart.Session) error {
		return sess.Store.RemoveItem(ctx, chi.URLParam(r, "id"))
	})
}

// ClearCart empties the cart.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	h.withCart(w, r, func(ctx context.Context, sess *cart.Session) error {
		return sess.Store.Clear(ctx)
	})
}

func (h *Handler) writeCart(w http.ResponseWriter, sess *cart.Session, inbox *cart.Inbox) {
	c := sess.Store.Snapshot()
	frozen := sess.Store.Frozen()
	notes := inbox.Drain()
	total := c.Total()

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("items", func(e *jx.Encoder) {
				e.Arr(func(e *jx.Encoder) {
					for _, l := range c.Lines {
						h.encodeLine(e, l)
					}
				})
			})
			e.Field("count", func(e *jx.Encoder) { e.Int(c.Count()) })
			e.Field("total", func(e *jx.Encoder) { encodeDecimal(e, total) })
			e.Field("totalText", func(e *jx.Encoder) { e.Str(money.Format(total, h.cfg.Currency)) })
			e.Field("frozen", func(e *jx.Encoder) { e.Bool(frozen) })
			e.Field("notifications", func(e *jx.Encoder) { encodeNotifications(e, notes) })
		})
	})
}

func (h *Handler) encodeLine(e *jx.Encoder, l cart.Line) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(l.ID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(l.Name) })
		e.Field("brand", func(e *jx.Encoder) { e.Str(l.Brand) })
		e.Field("price", func(e *jx.Encoder) { encodeDecimal(e, l.Price) })
		e.Field("category", func(e *jx.Encoder) { e.Str(l.Category) })
		e.Field("images", func(e *jx.Encoder) { encodeStrings(e, h.imageURLs(l.Images)) })
		e.Field("quantity", func(e *jx.Encoder) { e.Int(l.Quantity) })
		e.Field("subtotal", func(e *jx.Encoder) { encodeDecimal(e, l.Subtotal()) })
		e.Field("addedAt", func(e *jx.Encoder) { encodeTime(e, l.AddedAt) })
	})
}
