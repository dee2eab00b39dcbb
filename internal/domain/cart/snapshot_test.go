package cart

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireSameCart(t *testing.T, want, got Cart) {
	t.Helper()
	require.Len(t, got.Lines, len(want.Lines))
	for i := range want.Lines {
		w, g := want.Lines[i], got.Lines[i]
		assert.Equal(t, w.ID, g.ID, "line %d", i)
		assert.Equal(t, w.Name, g.Name, "line %d", i)
		assert.Equal(t, w.Brand, g.Brand, "line %d", i)
		assert.True(t, w.Price.Equal(g.Price), "line %d: price %s != %s", i, w.Price, g.Price)
		assert.Equal(t, w.Stock, g.Stock, "line %d", i)
		assert.Equal(t, w.Images, g.Images, "line %d", i)
		assert.Equal(t, w.Category, g.Category, "line %d", i)
		assert.Equal(t, w.Quantity, g.Quantity, "line %d", i)
		assert.True(t, w.AddedAt.Equal(g.AddedAt), "line %d: addedAt %s != %s", i, w.AddedAt, g.AddedAt)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	c := Cart{Lines: []Line{
		{Item: watch("W3", 12500), Quantity: 2, AddedAt: fixedNow},
		{Item: watch("W1", 5000), Quantity: 99, AddedAt: fixedNow.Add(time.Minute)},
		{Item: Item{ID: "W2", Price: decimal.RequireFromString("1999.50")}, Quantity: 1},
	}}

	got, err := DecodeSnapshot(EncodeSnapshot(c))
	require.NoError(t, err)
	requireSameCart(t, c, got)
}

func TestSnapshotRoundTrip_Empty(t *testing.T) {
	got, err := DecodeSnapshot(EncodeSnapshot(Cart{}))
	require.NoError(t, err)
	assert.True(t, got.IsEmpty())
}

func TestDecodeSnapshot_LegacyArray(t *testing.T) {
	raw := `[
		{"id":"W1","name":"Classic","brand":"Casio","price":5000,"stock_quantity":4,
		 "images":["a.jpg"],"category":"sport","description":"ignored","quantity":3},
		{"id":"W2","name":null,"price":"120.25","quantity":1,"images":null}
	]`

	c, err := DecodeSnapshot([]byte(raw))
	require.NoError(t, err)
	require.Len(t, c.Lines, 2)

	assert.Equal(t, "W1", c.Lines[0].ID)
	assert.Equal(t, 4, c.Lines[0].Stock)
	assert.Equal(t, 3, c.Lines[0].Quantity)
	assert.True(t, decimal.NewFromInt(5000).Equal(c.Lines[0].Price))
	assert.True(t, c.Lines[0].AddedAt.IsZero())

	assert.Equal(t, "", c.Lines[1].Name)
	assert.Nil(t, c.Lines[1].Images)
	assert.True(t, decimal.RequireFromString("120.25").Equal(c.Lines[1].Price))
}

func TestDecodeSnapshot_Corrupt(t *testing.T) {
	for _, tt := range []struct {
		name string
		raw  string
	}{
		{name: "NotJSON", raw: `{not json`},
		{name: "Scalar", raw: `42`},
		{name: "Empty", raw: ``},
		{name: "WrongVersion", raw: `{"v":2,"lines":[]}`},
		{name: "MissingVersion", raw: `{"lines":[]}`},
		{name: "MissingLines", raw: `{"v":1}`},
		{name: "LineNotObject", raw: `[1,2]`},
		{name: "MissingPrice", raw: `[{"id":"a","quantity":1}]`},
		{name: "MissingQuantity", raw: `[{"id":"a","price":"1"}]`},
		{name: "MissingID", raw: `[{"price":"1","quantity":1}]`},
		{name: "ZeroQuantity", raw: `[{"id":"a","price":"1","quantity":0}]`},
		{name: "QuantityOverLimit", raw: `[{"id":"a","price":"1","quantity":100}]`},
		{name: "NegativePrice", raw: `[{"id":"a","price":"-1","quantity":1}]`},
		{name: "BadPrice", raw: `[{"id":"a","price":"abc","quantity":1}]`},
		{name: "PriceBool", raw: `[{"id":"a","price":true,"quantity":1}]`},
		{name: "Duplicate", raw: `[{"id":"a","price":"1","quantity":1},{"id":"a","price":"1","quantity":2}]`},
		{name: "NegativeStock", raw: `[{"id":"a","price":"1","quantity":1,"stock":-2}]`},
		{name: "TrailingGarbage", raw: `{"v":1,"lines":[{"id":"W1","price":"5000","quantity":1}]}garbage`},
		{name: "TrailingBrackets", raw: `[{"id":"W1","price":"5000","quantity":1}]]]{`},
		{name: "SecondValue", raw: `{"v":1,"lines":[]} {"v":1,"lines":[]}`},
		{name: "BadTime", raw: `[{"id":"a","price":"1","quantity":1,"addedAt":"yesterday"}]`},
	} {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeSnapshot([]byte(tt.raw))
			require.ErrorIs(t, err, ErrSnapshotCorrupt)
		})
	}
}

func TestDecodeSnapshot_SurroundingSpace(t *testing.T) {
	c, err := DecodeSnapshot([]byte("\n  {\"v\":1,\"lines\":[{\"id\":\"W1\",\"price\":\"5000\",\"quantity\":1}]}\n"))
	require.NoError(t, err)
	assert.Len(t, c.Lines, 1)
}
