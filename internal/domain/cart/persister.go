package cart

import (
	"context"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
)

// ErrSlotEmpty is returned by a Slot that holds no value for a key.
var ErrSlotEmpty = errors.New("slot empty")

// Slot is a durable key-value cell holding one serialized cart.
type Slot interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Persister round-trips a whole cart. Load never reports a corrupt snapshot;
// it recovers to an empty cart instead.
type Persister interface {
	Load(ctx context.Context) (Cart, error)
	Save(ctx context.Context, c Cart) error
}

// DefaultNamespace prefixes every cart slot key.
const DefaultNamespace = "qt_cart"

// SlotKey returns the slot key of a session's cart.
func SlotKey(namespace, sessionID string) string {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return namespace + ":" + sessionID
}

var _ Persister = (*SnapshotPersister)(nil)

// SnapshotPersister stores the cart snapshot under a fixed key of a Slot.
type SnapshotPersister struct {
	slot Slot
	key  string
	lg   *zap.Logger
}

// NewSnapshotPersister returns a persister for key. A nil logger is replaced
// by a no-op one.
func NewSnapshotPersister(slot Slot, key string, lg *zap.Logger) *SnapshotPersister {
	if lg == nil {
		lg = zap.NewNop()
	}
	return &SnapshotPersister{slot: slot, key: key, lg: lg}
}

// Load reads the slot. An absent value yields an empty cart; a corrupt one is
// logged, deleted and also yields an empty cart.
func (p *SnapshotPersister) Load(ctx context.Context) (Cart, error) {
	data, err := p.slot.Get(ctx, p.key)
	if errors.Is(err, ErrSlotEmpty) {
		return Cart{}, nil
	}
	if err != nil {
		return Cart{}, errors.Wrapf(err, "read slot %q", p.key)
	}

	c, err := DecodeSnapshot(data)
	if err != nil {
		p.lg.Warn("Discarding corrupt cart snapshot",
			zap.String("key", p.key),
			zap.Error(err),
		)
		if delErr := p.slot.Delete(ctx, p.key); delErr != nil {
			p.lg.Error("Clear corrupt cart snapshot", zap.String("key", p.key), zap.Error(delErr))
		}
		return Cart{}, nil
	}
	return c, nil
}

// Save overwrites the slot with the full cart.
func (p *SnapshotPersister) Save(ctx context.Context, c Cart) error {
	if err := p.slot.Put(ctx, p.key, EncodeSnapshot(c)); err != nil {
		p.lg.Error("Write cart snapshot", zap.String("key", p.key), zap.Error(err))
		return errors.Wrapf(err, "write slot %q", p.key)
	}
	return nil
}
