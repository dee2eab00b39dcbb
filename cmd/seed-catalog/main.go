// Command seed-catalog upserts the product catalog and registers an admin
// API key.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/qualitytime/storefront/db"
	"github.com/qualitytime/storefront/internal/domain/auth"
	"github.com/qualitytime/storefront/internal/domain/product"
	"github.com/qualitytime/storefront/internal/storage/postgres"
)

// upsertWorkers bounds concurrent product upserts.
const upsertWorkers = 4

type productJSON struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	Brand         string           `json:"brand"`
	Description   string           `json:"description"`
	Price         decimal.Decimal  `json:"price"`
	OldPrice      *decimal.Decimal `json:"old_price"`
	StockQuantity int              `json:"stock_quantity"`
	Images        []string         `json:"images"`
	Category      string           `json:"category"`
	CreatedAt     time.Time        `json:"created_at"`
}

func main() {
	var (
		databaseURL  string
		productsFile string
		adminKey     string
		pepper       string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "", "products JSON file, optionally .gz; the built-in catalog when empty")
	flag.StringVar(&adminKey, "admin-key", "", "admin API key to register (or QT_SEED_ADMIN_KEY env); generated when empty")
	flag.StringVar(&pepper, "admin-key-pepper", "", "HMAC pepper for API key hashing (or QT_ADMIN_KEY_PEPPER env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if adminKey == "" {
		adminKey = os.Getenv("QT_SEED_ADMIN_KEY")
	}
	if pepper == "" {
		pepper = os.Getenv("QT_ADMIN_KEY_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, productsFile, adminKey, pepper); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile, adminKey, pepper string) error {
	products, err := loadProducts(productsFile)
	if err != nil {
		return errors.Wrap(err, "load products")
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedProducts(ctx, postgres.NewProductRepository(pool), products); err != nil {
		return errors.Wrap(err, "seed products")
	}

	if err := seedAdminKey(ctx, postgres.NewAPIKeyRepository(pool), adminKey, pepper); err != nil {
		return errors.Wrap(err, "seed admin key")
	}

	return nil
}

// loadProducts reads path, or the embedded catalog when path is empty.
func loadProducts(path string) ([]product.Product, error) {
	if path == "" {
		slog.Info("using built-in catalog")
		return parseProducts(bytes.NewReader(db.SeedProducts))
	}

	slog.Info("reading products file", slog.String("path", path))

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open products file")
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrap(err, "create gzip reader")
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}
	return parseProducts(r)
}

// parseProducts decodes a JSON array of products and checks each one.
func parseProducts(r io.Reader) ([]product.Product, error) {
	var raw []productJSON
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, errors.Wrap(err, "parse products JSON")
	}

	seen := make(map[string]struct{}, len(raw))
	out := make([]product.Product, 0, len(raw))
	for i, p := range raw {
		if p.ID == "" {
			return nil, errors.Errorf("product %d: missing id", i)
		}
		if _, dup := seen[p.ID]; dup {
			return nil, errors.Errorf("product %s: duplicate id", p.ID)
		}
		seen[p.ID] = struct{}{}

		createdAt := p.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		entry := product.Product{
			ID:          p.ID,
			Name:        p.Name,
			Brand:       p.Brand,
			Description: p.Description,
			Price:       p.Price,
			OldPrice:    p.OldPrice,
			Stock:       p.StockQuantity,
			Images:      p.Images,
			Category:    p.Category,
			CreatedAt:   createdAt,
		}
		if err := entry.Validate(); err != nil {
			return nil, errors.Wrapf(err, "product %s", p.ID)
		}
		out = append(out, entry)
	}
	return out, nil
}

func seedProducts(ctx context.Context, repo product.Repository, products []product.Product) error {
	slog.Info("upserting products", slog.Int("count", len(products)))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(upsertWorkers)
	for _, p := range products {
		g.Go(func() error {
			if err := repo.Upsert(ctx, p); err != nil {
				return errors.Wrapf(err, "upsert product %s", p.ID)
			}
			slog.Info("upserted product", slog.String("id", p.ID), slog.String("name", p.Name))
			return nil
		})
	}
	return g.Wait()
}

func seedAdminKey(ctx context.Context, repo auth.Repository, key, pepper string) error {
	slog.Info("seeding admin API key")

	generated := key == ""
	if generated {
		var err error
		if key, err = auth.GenerateKey(); err != nil {
			return err
		}
	}

	if err := repo.Create(ctx, auth.APIKeyInfo{
		ID:      "admin",
		KeyHash: auth.Hash([]byte(pepper), key),
		Name:    "Back office",
		Scopes:  []string{auth.ScopeAdmin},
	}); err != nil {
		return errors.Wrap(err, "upsert admin API key")
	}

	slog.Info("upserted API key", slog.String("id", "admin"), slog.Bool("generated", generated))
	if generated {
		// Printed once so it can be captured; only the hash is stored.
		fmt.Println(key)
	}
	return nil
}
