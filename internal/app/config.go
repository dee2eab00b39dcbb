package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/qualitytime/storefront/internal/domain/checkout"
)

// Config holds the complete application configuration, loadable from
// environment variables (QT_ prefix), flags, or YAML config files.
type Config struct {
	Addr           string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL    string `usage:"PostgreSQL connection URL (QT_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	RedisAddr      string `usage:"Redis address or redis:// URL for cart snapshots (QT_REDIS_ADDR or REDIS_URL); empty keeps carts in memory" flag:"redis-addr"`
	ImageBaseURL   string `default:"" usage:"Base URL for product images (e.g. https://cdn.example.com/images)" flag:"image-base-url"`
	AdminKeyPepper string `usage:"HMAC pepper for admin API key hashing (QT_ADMIN_KEY_PEPPER)" flag:"admin-key-pepper"`
	Cart           CartConfig
	Shipping       ShippingConfig
	Session        SessionConfig
	RateLimit      RateLimitConfig
	CORS           CORSConfig
	Graceful       GracefulConfig
}

// CartConfig controls cart persistence and in-memory retention.
type CartConfig struct {
	Namespace     string        `default:"qt_cart" usage:"Key prefix of persisted carts"`
	TTL           time.Duration `default:"720h" usage:"Lifetime of a persisted cart since its last change"`
	IdleEvict     time.Duration `default:"30m" usage:"Drop carts from memory after this idle time" flag:"cart-idle-evict"`
	EvictInterval time.Duration `default:"1m" usage:"How often idle carts are looked for" flag:"cart-evict-interval"`
}

// ShippingConfig holds the delivery surcharges in whole currency units.
type ShippingConfig struct {
	Office   int64  `default:"450" usage:"Surcharge for pickup at the carrier office"`
	Home     int64  `default:"800" usage:"Surcharge for home delivery"`
	Currency string `default:"DZD" usage:"Currency code shown with amounts"`
}

// Rates converts the surcharges to checkout rates.
func (c ShippingConfig) Rates() checkout.Rates {
	return checkout.Rates{
		Office: decimal.NewFromInt(c.Office),
		Home:   decimal.NewFromInt(c.Home),
	}
}

// SessionConfig controls how shoppers are told apart.
type SessionConfig struct {
	Cookie string        `default:"qt_session" usage:"Session cookie name"`
	Header string        `default:"X-Session-ID" usage:"Session header name"`
	MaxAge time.Duration `default:"720h" usage:"Session cookie lifetime"`
	Secure bool          `default:"false" usage:"Mark the session cookie Secure" flag:"session-secure"`
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config files,
// and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	return loadConfig(aconfig.Config{
		EnvPrefix: "QT",
		Files:     []string{"config.yaml", "/etc/qt/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
}

func loadConfig(ac aconfig.Config) (*Config, error) {
	var cfg Config
	if err := aconfig.LoaderFor(&cfg, ac).Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) that use standard names like DATABASE_URL and PORT to the
// application's QT_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		c.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if c.RedisAddr == "" {
		c.RedisAddr = os.Getenv("REDIS_URL")
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}

func (c *Config) validate() error {
	switch {
	case c.DatabaseURL == "":
		return errors.New("database URL is required: set QT_DATABASE_URL or DATABASE_URL")
	case c.Shipping.Office < 0 || c.Shipping.Home < 0:
		return errors.New("shipping surcharges must not be negative")
	case c.Cart.TTL < 0:
		return errors.New("cart TTL must not be negative")
	case c.Cart.IdleEvict > 0 && c.Cart.EvictInterval <= 0:
		return errors.New("cart evict interval must be positive")
	}
	return nil
}
