// Package handler exposes the storefront and admin HTTP API.
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/qualitytime/storefront/internal/domain/auth"
	"github.com/qualitytime/storefront/internal/domain/cart"
	"github.com/qualitytime/storefront/internal/domain/checkout"
	"github.com/qualitytime/storefront/internal/domain/order"
	"github.com/qualitytime/storefront/internal/domain/product"
	"github.com/qualitytime/storefront/internal/money"
	"github.com/qualitytime/storefront/pkg/httpmiddleware"
)

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// ImageBaseURL is prepended to relative image paths in product responses.
	// When empty, image paths are returned as stored in the database.
	ImageBaseURL string
	// Currency labels formatted amounts. Defaults to money.DefaultCurrency.
	Currency string
	// SimilarLimit caps the similar products returned with a product.
	SimilarLimit int
	// MaxBodyBytes caps request bodies.
	MaxBodyBytes int64
	// Session locates the shopper's session id.
	Session httpmiddleware.SessionConfig
}

func (c *Config) setDefaults() {
	if c.Currency == "" {
		c.Currency = money.DefaultCurrency
	}
	if c.SimilarLimit <= 0 {
		c.SimilarLimit = 4
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = 64 << 10
	}
	if c.Session.Cookie == "" {
		c.Session.Cookie = "qt_session"
	}
	if c.Session.Header == "" {
		c.Session.Header = "X-Session-ID"
	}
}

// Handler serves the catalog, the session cart, checkout and the order back
// office.
type Handler struct {
	cfg      Config
	products product.Repository
	sessions *cart.Sessions
	checkout *checkout.Service
	orders   *order.Service
	auth     *auth.Authenticator
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	cfg Config,
	products product.Repository,
	sessions *cart.Sessions,
	checkoutService *checkout.Service,
	orderService *order.Service,
	authenticator *auth.Authenticator,
) *Handler {
	cfg.setDefaults()
	return &Handler{
		cfg:      cfg,
		products: products,
		sessions: sessions,
		checkout: checkoutService,
		orders:   orderService,
		auth:     authenticator,
	}
}

// Routes returns the API router.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		h.fail(w, r, errNotFound, nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", nil, nil)
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/products", h.ListProducts)
		r.Get("/products/{id}", h.GetProduct)

		r.Group(func(r chi.Router) {
			r.Use(httpmiddleware.Session(h.cfg.Session))

			r.Get("/cart", h.GetCart)
			r.Delete("/cart", h.ClearCart)
			r.Post("/cart/items", h.AddCartItem)
			r.Put("/cart/items/{id}", h.UpdateCartItem)
			r.Delete("/cart/items/{id}", h.RemoveCartItem)

			r.Get("/checkout/quote", h.QuoteCheckout)
			r.Post("/checkout", h.Checkout)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(h.RequireScope(auth.ScopeAdmin))

			r.Post("/products", h.CreateProduct)
			r.Put("/products/{id}", h.UpdateProduct)
			r.Delete("/products/{id}", h.DeleteProduct)

			r.Get("/orders", h.ListOrders)
			r.Get("/orders.csv", h.ExportOrders)
			r.Get("/orders/stats", h.OrderStats)
			r.Get("/orders/{id}", h.GetOrder)
			r.Patch("/orders/{id}", h.UpdateOrderStatus)
			r.Delete("/orders/{id}", h.DeleteOrder)
		})
	})
	return r
}
