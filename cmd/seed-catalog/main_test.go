package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	pgzip "github.com/klauspost/pgzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qualitytime/storefront/db"
	"github.com/qualitytime/storefront/internal/domain/auth"
	"github.com/qualitytime/storefront/internal/domain/product"
)

type recordingRepo struct {
	mu       sync.Mutex
	products map[string]product.Product
	keys     []auth.APIKeyInfo
}

func (r *recordingRepo) List(context.Context) ([]product.Product, error) { return nil, nil }

func (r *recordingRepo) GetByID(context.Context, string) (*product.Product, error) {
	return nil, product.ErrNotFound
}

func (r *recordingRepo) GetByIDs(context.Context, []string) ([]product.Product, error) {
	return nil, nil
}

func (r *recordingRepo) Upsert(_ context.Context, p product.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.products == nil {
		r.products = map[string]product.Product{}
	}
	r.products[p.ID] = p
	return nil
}

func (r *recordingRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[id]; !ok {
		return product.ErrNotFound
	}
	delete(r.products, id)
	return nil
}

func (r *recordingRepo) FindByHash(context.Context, string) (*auth.APIKeyInfo, error) {
	return nil, auth.ErrKeyNotFound
}

func (r *recordingRepo) Create(_ context.Context, info auth.APIKeyInfo) error {
	r.keys = append(r.keys, info)
	return nil
}

func TestParseProducts_BuiltIn(t *testing.T) {
	products, err := parseProducts(bytes.NewReader(db.SeedProducts))
	require.NoError(t, err)
	require.NotEmpty(t, products)

	first := products[0]
	assert.Equal(t, "qt-casio-gshock-ga2100", first.ID)
	assert.Equal(t, "15000", first.Price.String())
	require.NotNil(t, first.OldPrice)
	assert.True(t, first.IsOnSale())
	assert.Equal(t, 12, first.Stock)
	assert.False(t, first.CreatedAt.IsZero())
}

func TestParseProducts_Invalid(t *testing.T) {
	for _, tt := range []struct {
		name string
		data string
		want string
	}{
		{name: "NotJSON", data: `nope`, want: "parse products JSON"},
		{name: "MissingID", data: `[{"name":"x","price":"1"}]`, want: "missing id"},
		{name: "ZeroPrice", data: `[{"id":"a","name":"x","price":"0"}]`, want: "price must be positive"},
		{name: "NegativeStock", data: `[{"id":"a","name":"x","price":"1","stock_quantity":-1}]`, want: "negative stock"},
		{name: "Duplicate", data: `[{"id":"a","name":"x","price":"1"},{"id":"a","name":"y","price":"2"}]`, want: "duplicate id"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseProducts(strings.NewReader(tt.data))
			require.ErrorContains(t, err, tt.want)
		})
	}
}

func TestLoadProducts_Gzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.json.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	gz := pgzip.NewWriter(f)
	_, err = gz.Write(db.SeedProducts)
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	fromFile, err := loadProducts(path)
	require.NoError(t, err)
	builtIn, err := loadProducts("")
	require.NoError(t, err)
	assert.Len(t, fromFile, len(builtIn))
}

func TestSeed(t *testing.T) {
	ctx := context.Background()
	repo := &recordingRepo{}

	products, err := loadProducts("")
	require.NoError(t, err)
	require.NoError(t, seedProducts(ctx, repo, products))
	assert.Len(t, repo.products, len(products))

	require.NoError(t, seedAdminKey(ctx, repo, "s3cret", "pepper"))
	require.Len(t, repo.keys, 1)
	assert.Equal(t, auth.Hash([]byte("pepper"), "s3cret"), repo.keys[0].KeyHash)
	assert.True(t, repo.keys[0].HasScope(auth.ScopeAdmin))
}
