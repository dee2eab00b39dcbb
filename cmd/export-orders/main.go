// Command export-orders writes every order as gzip-compressed CSV.
package main

import (
	"context"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"

	"github.com/qualitytime/storefront/internal/domain/order"
	"github.com/qualitytime/storefront/internal/storage/postgres"
)

func main() {
	var (
		databaseURL string
		out         string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&out, "out", "orders.csv.gz", "output file, - for stdout")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, out); err != nil {
		slog.Error("export failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("export completed successfully", slog.String("out", out))
}

func run(ctx context.Context, databaseURL, out string) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	orders, err := postgres.NewOrderRepository(pool).List(ctx)
	if err != nil {
		return errors.Wrap(err, "list orders")
	}
	slog.Info("exporting orders", slog.Int("count", len(orders)))

	if out == "-" {
		return writeGzipCSV(os.Stdout, orders)
	}

	f, err := os.Create(out)
	if err != nil {
		return errors.Wrap(err, "create output")
	}
	if err := writeGzipCSV(f, orders); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(err, "close output")
	}
	return nil
}

// writeGzipCSV compresses the order CSV into w.
func writeGzipCSV(w io.Writer, orders []order.Order) error {
	gz := pgzip.NewWriter(w)
	if err := order.WriteCSV(gz, orders); err != nil {
		_ = gz.Close()
		return errors.Wrap(err, "write csv")
	}
	if err := gz.Close(); err != nil {
		return errors.Wrap(err, "close gzip")
	}
	return nil
}
