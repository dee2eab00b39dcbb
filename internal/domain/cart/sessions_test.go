package cart

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessions(t *testing.T) {
	ctx := context.Background()
	slot := NewMemorySlot()
	now := fixedNow
	r := NewSessions(slot, SessionsConfig{
		StoreOptions: []Option{WithClock(func() time.Time { return now })},
	})

	_, err := r.Get(ctx, "")
	require.Error(t, err)

	a, err := r.Get(ctx, "a")
	require.NoError(t, err)
	again, err := r.Get(ctx, "a")
	require.NoError(t, err)
	assert.Same(t, a, again)

	b, err := r.Get(ctx, "b")
	require.NoError(t, err)
	assert.NotSame(t, a, b)

	inboxA, inboxB := NewInbox(nil), NewInbox(nil)
	require.NoError(t, a.Store.AddItem(WithNotifier(ctx, inboxA), watch("W1", 5000)))
	assert.Equal(t, 0, b.Store.Count(), "sessions are isolated")
	assert.Len(t, inboxA.Drain(), 1)
	assert.Empty(t, inboxB.Drain())

	_, err = slot.Get(ctx, SlotKey(DefaultNamespace, "a"))
	require.NoError(t, err)
	assert.Equal(t, 2, r.Len())
}

func TestSessions_Evict(t *testing.T) {
	ctx := context.Background()
	slot := NewMemorySlot()
	now := fixedNow
	r := NewSessions(slot, SessionsConfig{
		Namespace:    "test",
		StoreOptions: []Option{WithClock(func() time.Time { return now })},
	})

	idle, err := r.Get(ctx, "idle")
	require.NoError(t, err)
	require.NoError(t, idle.Store.AddItem(ctx, watch("W1", 100)))
	idle.Release()

	frozen, err := r.Get(ctx, "frozen")
	require.NoError(t, err)
	require.NoError(t, frozen.Store.AddItem(ctx, watch("W1", 100)))
	_, err = frozen.Store.Freeze()
	require.NoError(t, err)
	frozen.Release()

	now = now.Add(time.Hour)
	busy, err := r.Get(ctx, "busy")
	require.NoError(t, err)
	busy.Release()

	assert.Equal(t, 1, r.Evict(fixedNow.Add(time.Minute)))
	assert.Equal(t, 2, r.Len())

	reopened, err := r.Get(ctx, "idle")
	require.NoError(t, err)
	defer reopened.Release()
	assert.NotSame(t, idle, reopened)
	assert.Equal(t, 1, reopened.Store.Count(), "evicted cart reloads from the slot")
}

func TestSessions_EvictSkipsHeldHandles(t *testing.T) {
	ctx := context.Background()
	slot := NewMemorySlot()
	now := fixedNow
	r := NewSessions(slot, SessionsConfig{
		StoreOptions: []Option{WithClock(func() time.Time { return now })},
	})

	held, err := r.Get(ctx, "a")
	require.NoError(t, err)
	require.NoError(t, held.Store.AddItem(ctx, watch("W1", 100)))

	now = now.Add(24 * time.Hour)
	assert.Zero(t, r.Evict(now.Add(time.Hour)), "handle in use")

	fresh, err := r.Get(ctx, "a")
	require.NoError(t, err)
	assert.Same(t, held, fresh)

	require.NoError(t, held.Store.AddItem(ctx, watch("W2", 100)))
	require.NoError(t, fresh.Store.AddItem(ctx, watch("W3", 100)))

	persisted, err := NewSnapshotPersister(slot, SlotKey(DefaultNamespace, "a"), nil).Load(ctx)
	require.NoError(t, err)
	var ids []string
	for _, l := range persisted.Lines {
		ids = append(ids, l.ID)
	}
	assert.Equal(t, []string{"W1", "W2", "W3"}, ids)

	held.Release()
	assert.Zero(t, r.Evict(now.Add(time.Hour)), "second handle still in use")
	fresh.Release()
	assert.Equal(t, 1, r.Evict(now.Add(time.Hour)))
}

func TestSessions_GetRefreshesIdleTime(t *testing.T) {
	ctx := context.Background()
	now := fixedNow
	r := NewSessions(NewMemorySlot(), SessionsConfig{
		StoreOptions: []Option{WithClock(func() time.Time { return now })},
	})

	s, err := r.Get(ctx, "a")
	require.NoError(t, err)
	s.Release()

	now = now.Add(time.Hour)
	s, err = r.Get(ctx, "a")
	require.NoError(t, err)
	s.Release()

	assert.Zero(t, r.Evict(fixedNow.Add(30*time.Minute)), "read an hour later counts as use")
}

func TestSessions_ConcurrentGet(t *testing.T) {
	ctx := context.Background()
	r := NewSessions(NewMemorySlot(), SessionsConfig{})

	const n = 16
	got := make([]*Session, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := r.Get(ctx, "shared")
			if err == nil {
				got[i] = s
			}
		}()
	}
	wg.Wait()

	for i := range n {
		require.NotNil(t, got[i])
		assert.Same(t, got[0], got[i])
		got[i].Release()
	}
	assert.Equal(t, 1, r.Evict(time.Now().Add(time.Hour)))
}
