package cli

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/wayfarer/internal/config"
	"github.com/aretw0/wayfarer/internal/logging"
	"github.com/aretw0/wayfarer/pkg/domain"
	"github.com/aretw0/wayfarer/pkg/ports"
)

func offlineConfig() config.Config {
	cfg := config.Default()
	cfg.LLM.Provider = "none"
	cfg.Search.Transport = "none"
	cfg.Planner.ReferenceDate = "2026-10-15"
	return cfg
}

func TestBuild_InMemory(t *testing.T) {
	a, err := Build(context.Background(), offlineConfig(), WithLogger(logging.NewNop()))
	require.NoError(t, err)
	defer a.Close()

	reply, err := a.Planner.ProcessInput(context.Background(), "s1", "Dallas")
	require.NoError(t, err)
	assert.Equal(t, domain.NodeAskDestination, reply.Node)

	families, err := a.Registry.Gather()
	require.NoError(t, err)
	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "wayfarer_turns_total")
	assert.Contains(t, names, "go_goroutines")
}

func TestBuild_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := offlineConfig()
	cfg.Redis.Addr = mr.Addr()

	a, err := Build(context.Background(), cfg, WithLogger(logging.NewNop()))
	require.NoError(t, err)

	_, err = a.Planner.ProcessInput(context.Background(), "s1", "Dallas")
	require.NoError(t, err)
	assert.True(t, mr.Exists(KeyPrefix+"session:s1"))
	assert.False(t, mr.Exists(KeyPrefix+"lock:s1"), "the lock is released after the turn")

	require.NoError(t, a.Close())
}

func TestBuild_RedisEncrypted(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := offlineConfig()
	cfg.Redis.Addr = mr.Addr()
	cfg.Redis.EncryptionKey = "YWFhYWFhYWFhYWFhYWFhYWFhYWFhYWFhYWFhYWFhYWE="

	a, err := Build(context.Background(), cfg, WithLogger(logging.NewNop()))
	require.NoError(t, err)
	defer a.Close()

	_, err = a.Planner.ProcessInput(context.Background(), "s1", "Dallas")
	require.NoError(t, err)
	raw, err := mr.Get(KeyPrefix + "session:s1")
	require.NoError(t, err)
	assert.NotContains(t, raw, "Dallas")

	s, err := a.Planner.Snapshot(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "Dallas", s.OriginCity)

	cfg.Redis.EncryptionKey = "c2hvcnQ="
	_, err = Build(context.Background(), cfg, WithLogger(logging.NewNop()))
	assert.ErrorContains(t, err, "encryption key")
}

func TestBuild_RedisUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := offlineConfig()
	cfg.Redis.Addr = mr.Addr()
	mr.Close()

	_, err := Build(context.Background(), cfg, WithLogger(logging.NewNop()))
	assert.ErrorContains(t, err, "redis")
}

func TestBuild_InjectedSearch(t *testing.T) {
	var queries int
	gw := ports.SearchFunc(func(_ context.Context, _ string, _ domain.SearchConfig) ([]domain.SearchResult, error) {
		queries++
		return nil, nil
	})

	a, err := Build(context.Background(), offlineConfig(), WithLogger(logging.NewNop()), WithSearchGateway(gw))
	require.NoError(t, err)
	defer a.Close()

	ctx := context.Background()
	for _, msg := range []string{"Dallas", "Orlando", "March 16", "March 20", "2", "$2000", "vacation", "hotels"} {
		_, err := a.Planner.ProcessInput(ctx, "s1", msg)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, queries)
}
