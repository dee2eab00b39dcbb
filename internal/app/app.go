package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/qualitytime/storefront/internal/domain/auth"
	"github.com/qualitytime/storefront/internal/domain/cart"
	"github.com/qualitytime/storefront/internal/domain/checkout"
	"github.com/qualitytime/storefront/internal/domain/order"
	"github.com/qualitytime/storefront/internal/handler"
	"github.com/qualitytime/storefront/internal/storage/postgres"
	redisslot "github.com/qualitytime/storefront/internal/storage/redis"
	"github.com/qualitytime/storefront/pkg/health"
	"github.com/qualitytime/storefront/pkg/httpmiddleware"
)

// Telemetry supplies the OpenTelemetry providers, as *app.Telemetry does.
type Telemetry interface {
	TracerProvider() trace.TracerProvider
	MeterProvider() metric.MeterProvider
}

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	// PostgreSQL pool + migrations.
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, health.PingCheck(pool))
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))

	// Cart slot: Redis when configured, process memory otherwise.
	var slot cart.Slot
	if cfg.RedisAddr != "" {
		client, err := redisslot.Connect(ctx, cfg.RedisAddr)
		if err != nil {
			return errors.Wrap(err, "connect redis")
		}
		defer func() { _ = client.Close() }()

		redisSlot := redisslot.NewSlot(client, cfg.Cart.TTL)
		healthSvc.AddReadinessCheck("redis", 2*time.Second, health.PingCheck(redisSlot))
		slot = redisSlot
	} else {
		lg.Warn("No Redis configured, carts are kept in memory only")
		slot = cart.NewMemorySlot()
	}

	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Repositories.
	productRepo := postgres.NewProductRepository(pool)
	orderRepo := postgres.NewOrderRepository(pool)
	apikeyRepo := postgres.NewAPIKeyRepository(pool)

	// Domain services.
	sessions := cart.NewSessions(slot, cart.SessionsConfig{
		Namespace: cfg.Cart.Namespace,
		Notifier:  cart.LogNotifier(lg.Named("cart")),
		Logger:    lg.Named("cart"),
		StoreOptions: []cart.Option{
			cart.WithMeter(m.MeterProvider().Meter("cart")),
		},
	})
	if cfg.Cart.IdleEvict > 0 {
		sessions.StartEviction(ctx, cfg.Cart.IdleEvict, cfg.Cart.EvictInterval)
	}

	checkoutService := checkout.NewService(orderRepo, cfg.Shipping.Rates(),
		checkout.WithTracerProvider(m.TracerProvider()),
		checkout.WithMeterProvider(m.MeterProvider()),
	)
	orderService := order.NewService(orderRepo)
	authenticator := auth.NewAuthenticator(apikeyRepo, []byte(cfg.AdminKeyPepper))

	// HTTP handlers.
	h := handler.NewHandler(
		handler.Config{
			ImageBaseURL: cfg.ImageBaseURL,
			Currency:     cfg.Shipping.Currency,
			Session: httpmiddleware.SessionConfig{
				Cookie: cfg.Session.Cookie,
				Header: cfg.Session.Header,
				MaxAge: cfg.Session.MaxAge,
				Secure: cfg.Session.Secure,
			},
		},
		productRepo,
		sessions,
		checkoutService,
		orderService,
		authenticator,
	)
	api := otelhttp.NewHandler(h.Routes(), "storefront",
		otelhttp.WithTracerProvider(m.TracerProvider()),
		otelhttp.WithMeterProvider(m.MeterProvider()),
	)

	// Mux: health endpoints + API routes on one server.
	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	mux.Handle("/api/", api)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "Authorization", "api_key", cfg.Session.Header},
				ExposeHeaders:    []string{cfg.Session.Header, "X-Request-ID"},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimit(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(lg),
			httpmiddleware.LogRequests(),
		),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lg.Info("Server listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server")
		}
		return nil
	})
	g.Go(func() error {
		// Graceful shutdown: wait for cancellation, drain, then stop.
		<-gctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		return nil
	})
	return g.Wait()
}
