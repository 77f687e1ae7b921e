package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/wayfarer/pkg/adapters/memory"
	"github.com/aretw0/wayfarer/pkg/domain"
	"github.com/aretw0/wayfarer/pkg/ports"
	"github.com/aretw0/wayfarer/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SlowStore simulates latency to provoke race conditions if locking is missing.
type SlowStore struct {
	inner *memory.Store
}

func (s *SlowStore) Save(ctx context.Context, sessionID string, state domain.State) error {
	time.Sleep(2 * time.Millisecond)
	return s.inner.Save(ctx, sessionID, state)
}

func (s *SlowStore) Load(ctx context.Context, sessionID string) (domain.State, error) {
	time.Sleep(2 * time.Millisecond)
	return s.inner.Load(ctx, sessionID)
}

func (s *SlowStore) Delete(ctx context.Context, sessionID string) error {
	return s.inner.Delete(ctx, sessionID)
}

func (s *SlowStore) List(ctx context.Context) ([]string, error) {
	return s.inner.List(ctx)
}

func increment(ctx context.Context, s domain.State) (domain.State, error) {
	s.SearchRetryCount++
	return s, nil
}

func TestManager_UpdatesAreSerialized(t *testing.T) {
	manager := session.NewManager(&SlowStore{inner: memory.NewStore()})
	ctx := context.Background()
	id := "race-test"

	var wg sync.WaitGroup
	const writers = 20
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := manager.Update(ctx, id, increment)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	state, err := manager.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, writers, state.SearchRetryCount, "read-modify-write lost updates")
}

func TestManager_UpdateStartsFreshSession(t *testing.T) {
	manager := session.NewManager(memory.NewStore())
	ctx := context.Background()

	state, err := manager.Update(ctx, "new", func(ctx context.Context, s domain.State) (domain.State, error) {
		assert.Equal(t, domain.NodeStart, s.CurrentNode)
		return s, nil
	})
	require.NoError(t, err)
	assert.Equal(t, domain.NodeStart, state.CurrentNode)

	ids, err := manager.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"new"}, ids)
}

func TestManager_UpdateErrorDiscardsChanges(t *testing.T) {
	manager := session.NewManager(memory.NewStore())
	ctx := context.Background()
	boom := errors.New("boom")

	_, err := manager.Update(ctx, "s", increment)
	require.NoError(t, err)

	_, err = manager.Update(ctx, "s", func(ctx context.Context, s domain.State) (domain.State, error) {
		s.SearchRetryCount = 100
		return s, boom
	})
	assert.ErrorIs(t, err, boom)

	state, err := manager.Load(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, 1, state.SearchRetryCount)
}

func TestManager_LoadMissing(t *testing.T) {
	manager := session.NewManager(memory.NewStore())
	_, err := manager.Load(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

type recordingLocker struct {
	mu       sync.Mutex
	locked   []string
	unlocked int
	fail     error
}

func (l *recordingLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fail != nil {
		return nil, l.fail
	}
	l.locked = append(l.locked, key)
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.unlocked++
		return nil
	}, nil
}

func TestManager_DistributedLocker(t *testing.T) {
	locker := &recordingLocker{}
	manager := session.NewManager(memory.NewStore(), session.WithLocker(locker), session.WithLockTTL(time.Second))
	ctx := context.Background()

	_, err := manager.Update(ctx, "dist", increment)
	require.NoError(t, err)

	assert.Equal(t, []string{"dist"}, locker.locked)
	assert.Equal(t, 1, locker.unlocked)
}

func TestManager_DistributedLockFailure(t *testing.T) {
	locker := &recordingLocker{fail: errors.New("redis down")}
	manager := session.NewManager(memory.NewStore(), session.WithLocker(locker))

	_, err := manager.Update(context.Background(), "dist", increment)
	assert.ErrorContains(t, err, "failed to acquire distributed lock")
}
