package cart

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type failingSlot struct {
	*MemorySlot
	putErr error
	getErr error
}

func (s failingSlot) Get(ctx context.Context, key string) ([]byte, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.MemorySlot.Get(ctx, key)
}

func (s failingSlot) Put(ctx context.Context, key string, value []byte) error {
	if s.putErr != nil {
		return s.putErr
	}
	return s.MemorySlot.Put(ctx, key, value)
}

func TestSlotKey(t *testing.T) {
	assert.Equal(t, "qt_cart:abc", SlotKey("", "abc"))
	assert.Equal(t, "shop:abc", SlotKey("shop", "abc"))
}

func TestSnapshotPersister_LoadAbsent(t *testing.T) {
	p := NewSnapshotPersister(NewMemorySlot(), "k", nil)

	c, err := p.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())
}

func TestSnapshotPersister_RoundTripKeepsOrder(t *testing.T) {
	ctx := context.Background()
	slot := NewMemorySlot()
	p := NewSnapshotPersister(slot, "k", nil)

	first := NewStore(Cart{}, p, nil)
	for _, id := range []string{"W3", "W1", "W2"} {
		require.NoError(t, first.AddItem(ctx, watch(id, 1000)))
	}
	require.NoError(t, first.UpdateQuantity(ctx, "W1", 4))

	second, err := Open(ctx, NewSnapshotPersister(slot, "k", nil), nil)
	require.NoError(t, err)

	requireSameCart(t, first.Snapshot(), second.Snapshot())
	assert.Equal(t, []string{"W3", "W1", "W2"}, lineIDs(second.Snapshot()))
	assert.Equal(t, 6, second.Count())
}

func TestSnapshotPersister_RecoversFromCorrupt(t *testing.T) {
	ctx := context.Background()
	slot := NewMemorySlot()
	require.NoError(t, slot.Put(ctx, "k", []byte(`{garbage`)))

	core, logs := observer.New(zap.WarnLevel)
	p := NewSnapshotPersister(slot, "k", zap.New(core))

	c, err := p.Load(ctx)
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())

	_, err = slot.Get(ctx, "k")
	require.ErrorIs(t, err, ErrSlotEmpty, "corrupt value must be cleared")
	assert.Equal(t, 1, logs.FilterMessage("Discarding corrupt cart snapshot").Len())
}

func TestSnapshotPersister_ReadError(t *testing.T) {
	slot := failingSlot{MemorySlot: NewMemorySlot(), getErr: errors.New("connection refused")}
	p := NewSnapshotPersister(slot, "k", nil)

	_, err := p.Load(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSlotEmpty)
}

func TestSnapshotPersister_WriteFailureSurfacesInStore(t *testing.T) {
	ctx := context.Background()
	slot := failingSlot{MemorySlot: NewMemorySlot(), putErr: errors.New("quota exceeded")}
	inbox := NewInbox(nil)
	s := NewStore(Cart{}, NewSnapshotPersister(slot, "k", nil), inbox)

	require.NoError(t, s.AddItem(ctx, watch("W1", 5000)))
	assert.Equal(t, 1, s.Count())

	notes := inbox.Drain()
	require.Len(t, notes, 2)
	assert.Equal(t, SeverityError, notes[0].Severity)
	assert.Equal(t, SeveritySuccess, notes[1].Severity)
}

func TestSnapshotPersister_ClearsTrailingGarbage(t *testing.T) {
	ctx := context.Background()
	slot := NewMemorySlot()
	require.NoError(t, slot.Put(ctx, "k", []byte(`[{"id":"W1","price":"5000","quantity":1}]trailing`)))

	c, err := NewSnapshotPersister(slot, "k", nil).Load(ctx)
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())

	_, err = slot.Get(ctx, "k")
	require.ErrorIs(t, err, ErrSlotEmpty)
}
