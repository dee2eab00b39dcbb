package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/qualitytime/storefront/internal/domain/product"
	"github.com/qualitytime/storefront/internal/money"
)

// ListProducts returns the catalog filtered by q, category, min and max and
// ordered by sort ("price", "-price", "name", "created_at"). order=desc
// flips the direction.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	minPrice, err := priceParam(query.Get("min"))
	if err != nil {
		h.fail(w, r, err, nil)
		return
	}
	maxPrice, err := priceParam(query.Get("max"))
	if err != nil {
		h.fail(w, r, err, nil)
		return
	}

	products, err := h.products.List(r.Context())
	if err != nil {
		h.fail(w, r, errors.Wrap(err, "list products"), nil)
		return
	}

	products = product.Search(products, query.Get("q"))
	products = product.FilterCategory(products, query.Get("category"))
	products = product.FilterPrice(products, minPrice, maxPrice)
	if field := query.Get("sort"); field != "" {
		if strings.EqualFold(query.Get("order"), "desc") && !strings.HasPrefix(field, "-") {
			field = "-" + field
		}
		products = product.Sort(products, field)
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for _, p := range products {
				h.encodeProduct(e, p)
			}
		})
	})
}

// GetProduct returns a single product with similar ones from the catalog.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, err := h.products.GetByID(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, errors.Wrap(err, "get product"), nil)
		return
	}

	all, err := h.products.List(ctx)
	if err != nil {
		h.fail(w, r, errors.Wrap(err, "list products"), nil)
		return
	}
	similar := product.Similar(*p, all, h.cfg.SimilarLimit)

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("product", func(e *jx.Encoder) { h.encodeProduct(e, *p) })
			e.Field("similar", func(e *jx.Encoder) {
				e.Arr(func(e *jx.Encoder) {
					for _, s := range similar {
						h.encodeProduct(e, s)
					}
				})
			})
		})
	})
}

func priceParam(s string) (*decimal.Decimal, error) {
	if s == "" {
		return nil, nil
	}
	d, err := money.Parse(s)
	if err != nil {
		return nil, badRequest("invalid price " + s)
	}
	return &d, nil
}

func (h *Handler) encodeProduct(e *jx.Encoder, p product.Product) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(p.ID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(p.Name) })
		e.Field("brand", func(e *jx.Encoder) { e.Str(p.Brand) })
		e.Field("description", func(e *jx.Encoder) { e.Str(p.Description) })
		e.Field("price", func(e *jx.Encoder) { encodeDecimal(e, p.Price) })
		e.Field("priceText", func(e *jx.Encoder) { e.Str(money.Format(p.Price, h.cfg.Currency)) })
		e.Field("oldPrice", func(e *jx.Encoder) {
			if p.OldPrice == nil {
				e.Null()
				return
			}
			encodeDecimal(e, *p.OldPrice)
		})
		e.Field("onSale", func(e *jx.Encoder) { e.Bool(p.IsOnSale()) })
		e.Field("discountPercent", func(e *jx.Encoder) { e.Int(p.DiscountPercent()) })
		e.Field("stock", func(e *jx.Encoder) { e.Int(p.Stock) })
		e.Field("stockStatus", func(e *jx.Encoder) { e.Str(string(p.StockStatus())) })
		e.Field("category", func(e *jx.Encoder) { e.Str(p.Category) })
		e.Field("images", func(e *jx.Encoder) { encodeStrings(e, h.imageURLs(p.Images)) })
		e.Field("createdAt", func(e *jx.Encoder) { encodeTime(e, p.CreatedAt) })
	})
}

// imageURLs prefixes relative paths with the configured base URL.
func (h *Handler) imageURLs(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = h.imageURL(p)
	}
	return out
}

func (h *Handler) imageURL(path string) string {
	if h.cfg.ImageBaseURL == "" || path == "" ||
		strings.HasPrefix(path, "http://") ||
		strings.HasPrefix(path, "https://") ||
		strings.HasPrefix(path, "//") {
		return path
	}
	return strings.TrimSuffix(h.cfg.ImageBaseURL, "/") + "/" + strings.TrimPrefix(path, "/")
}
