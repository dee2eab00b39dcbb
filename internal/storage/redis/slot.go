// Package redis stores cart snapshots in Redis.
package redis

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"

	"github.com/qualitytime/storefront/internal/domain/cart"
)

var _ cart.Slot = (*Slot)(nil)

// Slot is a cart.Slot over Redis string keys. Each write refreshes the key's
// TTL so abandoned carts expire.
type Slot struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewSlot returns a Slot. A zero ttl keeps keys forever.
func NewSlot(client redis.UniversalClient, ttl time.Duration) *Slot {
	return &Slot{client: client, ttl: ttl}
}

// Get returns the stored bytes or cart.ErrSlotEmpty.
func (s *Slot) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, cart.ErrSlotEmpty
	}
	if err != nil {
		return nil, errors.Wrap(err, "redis get")
	}
	return data, nil
}

// Put overwrites key.
func (s *Slot) Put(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, key, value, s.ttl).Err(); err != nil {
		return errors.Wrap(err, "redis set")
	}
	return nil
}

// Delete removes key.
func (s *Slot) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return errors.Wrap(err, "redis del")
	}
	return nil
}

// Ping checks the server is reachable.
func (s *Slot) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return errors.Wrap(err, "redis ping")
	}
	return nil
}

// Connect parses a redis:// URL or host:port address and pings the server.
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	opts, err := redis.ParseURL(addr)
	if err != nil {
		opts = &redis.Options{Addr: addr}
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "ping redis")
	}
	return client, nil
}
