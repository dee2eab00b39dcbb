package handler

import (
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/qualitytime/storefront/internal/domain/product"
	"github.com/qualitytime/storefront/internal/money"
)

// CreateProduct adds a product to the catalog. An id is generated when the
// body carries none.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var p product.Product
	if err := h.decodeProduct(w, r, &p); err != nil {
		h.fail(w, r, err, nil)
		return
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if err := p.Validate(); err != nil {
		h.fail(w, r, err, nil)
		return
	}

	switch _, err := h.products.GetByID(ctx, p.ID); {
	case err == nil:
		h.fail(w, r, errors.Wrapf(product.ErrExists, "product %s", p.ID), nil)
		return
	case !errors.Is(err, product.ErrNotFound):
		h.fail(w, r, errors.Wrap(err, "get product"), nil)
		return
	}

	p.CreatedAt = time.Now().UTC()
	if err := h.products.Upsert(ctx, p); err != nil {
		h.fail(w, r, errors.Wrap(err, "create product"), nil)
		return
	}
	zctx.From(ctx).Info("Product created", zap.String("product_id", p.ID))
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { h.encodeProduct(e, p) })
}

// UpdateProduct overwrites the fields present in the body. The id and the
// creation time stay as stored.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stored, err := h.products.GetByID(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, errors.Wrap(err, "get product"), nil)
		return
	}

	p := *stored
	if err := h.decodeProduct(w, r, &p); err != nil {
		h.fail(w, r, err, nil)
		return
	}
	p.ID, p.CreatedAt = stored.ID, stored.CreatedAt
	if err := p.Validate(); err != nil {
		h.fail(w, r, err, nil)
		return
	}

	if err := h.products.Upsert(ctx, p); err != nil {
		h.fail(w, r, errors.Wrap(err, "update product"), nil)
		return
	}
	zctx.From(ctx).Info("Product updated", zap.String("product_id", p.ID))
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { h.encodeProduct(e, p) })
}

// DeleteProduct removes a product. Placed orders keep their snapshot of it.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	if err := h.products.Delete(ctx, id); err != nil {
		h.fail(w, r, errors.Wrap(err, "delete product"), nil)
		return
	}
	zctx.From(ctx).Info("Product deleted", zap.String("product_id", id))
	w.WriteHeader(http.StatusNoContent)
}

// decodeProduct applies the body's fields onto p.
func (h *Handler) decodeProduct(w http.ResponseWriter, r *http.Request, p *product.Product) error {
	return h.decodeObject(w, r, func(d *jx.Decoder, key string) error {
		switch key {
		case "id":
			return decodeInto(d, &p.ID)
		case "name":
			return decodeInto(d, &p.Name)
		case "brand":
			return decodeInto(d, &p.Brand)
		case "description":
			return decodeInto(d, &p.Description)
		case "category":
			return decodeInto(d, &p.Category)
		case "price":
			v, err := decodeString(d)
			if err != nil {
				return err
			}
			amount, err := money.Parse(v)
			if err != nil {
				return badRequest("invalid price " + v)
			}
			p.Price = amount
			return nil
		case "oldPrice":
			if d.Next() == jx.Null {
				p.OldPrice = nil
				return d.Null()
			}
			v, err := decodeString(d)
			if err != nil {
				return err
			}
			amount, err := money.Parse(v)
			if err != nil {
				return badRequest("invalid old price " + v)
			}
			p.OldPrice = &amount
			return nil
		case "stock":
			if d.Next() != jx.Number {
				return badRequest("stock must be an integer")
			}
			n, err := d.Num()
			if err != nil || !n.IsInt() {
				return badRequest("stock must be an integer")
			}
			v, err := n.Int64()
			if err != nil || v > math.MaxInt32 || v < math.MinInt32 {
				return badRequest("stock out of range")
			}
			p.Stock = int(v)
			return nil
		case "images":
			if d.Next() == jx.Null {
				p.Images = nil
				return d.Null()
			}
			if d.Next() != jx.Array {
				return badRequest("images must be an array of strings")
			}
			images := []string{}
			if err := d.Arr(func(d *jx.Decoder) error {
				if d.Next() != jx.String {
					return badRequest("images must be an array of strings")
				}
				s, err := d.Str()
				if err != nil {
					return err
				}
				if s = strings.TrimSpace(s); s != "" {
					images = append(images, s)
				}
				return nil
			}); err != nil {
				return err
			}
			p.Images = images
			return nil
		default:
			return d.Skip()
		}
	})
}

func decodeInto(d *jx.Decoder, dst *string) error {
	v, err := decodeString(d)
	if err != nil {
		return err
	}
	*dst = strings.TrimSpace(v)
	return nil
}
