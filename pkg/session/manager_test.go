package session_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/brief"
	"github.com/aretw0/brief/pkg/domain"
	"github.com/aretw0/brief/pkg/ports"
	"github.com/aretw0/brief/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFactory(created *atomic.Int32) session.Factory {
	return func() (*brief.Previewer, error) {
		created.Add(1)
		return brief.New()
	}
}

func TestManager_LoadOrStart(t *testing.T) {
	var created atomic.Int32
	manager := session.NewManager(newFactory(&created))
	ctx := context.Background()
	id := "atomic-init"

	var wg sync.WaitGroup
	results := make([]*brief.Previewer, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := manager.LoadOrStart(ctx, id)
			assert.NoError(t, err)
			results[i] = p
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), created.Load(), "concurrent starts create one previewer")
	for _, p := range results {
		assert.Same(t, results[0], p)
	}

	p, err := manager.Load(ctx, id)
	require.NoError(t, err)
	assert.Same(t, results[0], p)
}

func TestManager_Load_NotFound(t *testing.T) {
	var created atomic.Int32
	manager := session.NewManager(newFactory(&created))

	_, err := manager.Load(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	assert.ErrorIs(t, manager.Delete(context.Background(), "missing"), domain.ErrSessionNotFound)
}

func TestManager_SessionsDiffIndependently(t *testing.T) {
	var created atomic.Int32
	manager := session.NewManager(newFactory(&created))
	ctx := context.Background()
	source := "{{#if actionable}}Do this.{{/if}}"

	res, err := manager.Render(ctx, "a", source, nil)
	require.NoError(t, err)
	assert.Len(t, res.Appeared, 1)

	res, err = manager.Render(ctx, "a", source, nil)
	require.NoError(t, err)
	assert.Empty(t, res.Appeared, "same session sees nothing new")

	res, err = manager.Render(ctx, "b", source, nil)
	require.NoError(t, err)
	assert.Len(t, res.Appeared, 1, "a fresh session starts from an empty display")

	ids, err := manager.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)
}

func TestManager_Locking(t *testing.T) {
	var created atomic.Int32
	manager := session.NewManager(newFactory(&created))
	ctx := context.Background()

	var inside, maxInside atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := manager.WithLock(ctx, "race-test", func(context.Context) error {
				n := inside.Add(1)
				if n > maxInside.Load() {
					maxInside.Store(n)
				}
				time.Sleep(5 * time.Millisecond)
				inside.Add(-1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside.Load(), "critical sections of one session never overlap")
}

func TestManager_Prune(t *testing.T) {
	var created atomic.Int32
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	manager := session.NewManager(newFactory(&created),
		session.WithIdleTTL(time.Minute),
		session.WithClock(func() time.Time { return now }),
	)
	ctx := context.Background()

	_, err := manager.LoadOrStart(ctx, "old")
	require.NoError(t, err)
	now = now.Add(50 * time.Second)
	_, err = manager.LoadOrStart(ctx, "fresh")
	require.NoError(t, err)
	now = now.Add(20 * time.Second)

	assert.Equal(t, 1, manager.Prune(ctx))
	ids, _ := manager.List(ctx)
	assert.Equal(t, []string{"fresh"}, ids)
}

type recordingLocker struct {
	mu   sync.Mutex
	keys []string
	ttls []time.Duration
}

func (l *recordingLocker) Lock(_ context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.keys = append(l.keys, key)
	l.ttls = append(l.ttls, ttl)
	return func(context.Context) error { return nil }, nil
}

func TestManager_DistributedLocker(t *testing.T) {
	var created atomic.Int32
	locker := &recordingLocker{}
	manager := session.NewManager(newFactory(&created),
		session.WithLocker(locker),
		session.WithLockTTL(5*time.Second),
	)

	_, err := manager.Render(context.Background(), "s1", "hello", nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"s1"}, locker.keys)
	assert.Equal(t, []time.Duration{5 * time.Second}, locker.ttls)
}
