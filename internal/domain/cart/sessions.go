package cart

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
)

// Session is the handle a request works with. Call Release once the
// request is done with it.
type Session struct {
	ID    string
	Store *Store

	reg  *Sessions
	refs int // guarded by reg.mu
}

// Release returns the handle to the registry. A session is only evicted
// once every handle to it has been released.
func (s *Session) Release() {
	s.reg.mu.Lock()
	defer s.reg.mu.Unlock()
	if s.refs > 0 {
		s.refs--
	}
}

// Sessions owns exactly one Store per session id. Stores are opened lazily
// from the slot and evicted from memory after being idle; the slot keeps
// the snapshot.
type Sessions struct {
	slot      Slot
	namespace string
	notifier  Notifier
	opts      []Option
	lg        *zap.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// SessionsConfig configures a Sessions registry.
type SessionsConfig struct {
	// Namespace prefixes slot keys. Defaults to DefaultNamespace.
	Namespace string
	// Notifier receives every session's notifications.
	Notifier Notifier
	// Logger is used by the persisters.
	Logger *zap.Logger
	// StoreOptions are applied to every opened Store.
	StoreOptions []Option
}

// NewSessions creates a registry over slot.
func NewSessions(slot Slot, cfg SessionsConfig) *Sessions {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Sessions{
		slot:      slot,
		namespace: cfg.Namespace,
		notifier:  cfg.Notifier,
		opts:      cfg.StoreOptions,
		lg:        cfg.Logger,
		sessions:  make(map[string]*Session),
	}
}

// Get returns the session for id, loading its cart on first use. The
// session counts as in use, and is not evicted, until Release.
func (r *Sessions) Get(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, errors.New("empty session id")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[id]; ok {
		s.refs++
		s.Store.touch()
		return s, nil
	}

	p := NewSnapshotPersister(r.slot, SlotKey(r.namespace, id), r.lg.With(zap.String("session", id)))
	store, err := Open(ctx, p, r.notifier, r.opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "open session %q", id)
	}

	s := &Session{ID: id, Store: store, reg: r, refs: 1}
	r.sessions[id] = s
	return s, nil
}

// Len is the number of sessions held in memory.
func (r *Sessions) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Evict drops sessions idle since before cutoff. Frozen carts and sessions
// with unreleased handles stay.
func (r *Sessions) Evict(cutoff time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for id, s := range r.sessions {
		if s.refs > 0 || s.Store.Frozen() || !s.Store.idleSince().Before(cutoff) {
			continue
		}
		delete(r.sessions, id)
		n++
	}
	return n
}

// StartEviction evicts sessions idle for longer than idle every interval
// until ctx is done.
func (r *Sessions) StartEviction(ctx context.Context, idle, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				if n := r.Evict(now.Add(-idle)); n > 0 {
					r.lg.Debug("Evicted idle carts", zap.Int("count", n))
				}
			}
		}
	}()
}
