package gateway_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aretw0/wayfarer/internal/gateway"
	"github.com/aretw0/wayfarer/pkg/domain"
	"github.com/aretw0/wayfarer/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReasoning_NilGatewayIsUnavailable(t *testing.T) {
	r := gateway.NewReasoning(nil, 0, domain.LifecycleHooks{})
	assert.False(t, r.Available())

	_, err := r.Complete(context.Background(), "hi")
	assert.ErrorIs(t, err, domain.ErrGatewayUnavailable)
}

func TestReasoning_TimeoutAndEvents(t *testing.T) {
	var events []*domain.GatewayEvent
	hooks := domain.LifecycleHooks{
		OnGatewayCall: func(ctx context.Context, e *domain.GatewayEvent) { events = append(events, e) },
	}
	slow := ports.ReasoningFunc(func(ctx context.Context, prompt string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	r := gateway.NewReasoning(slow, 20*time.Millisecond, hooks)

	ctx := domain.WithSessionID(gateway.WithPurpose(context.Background(), "parse_date"), "s1")
	_, err := r.Complete(ctx, "when?")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.Len(t, events, 1)
	assert.Equal(t, "reasoning", events[0].Gateway)
	assert.Equal(t, "parse_date", events[0].Purpose)
	assert.Equal(t, "s1", events[0].SessionID)
	assert.Error(t, events[0].Err)
}

func TestSearch_Forwards(t *testing.T) {
	want := []domain.SearchResult{{Title: "Hotel", URL: "https://h.example"}}
	var gotCfg domain.SearchConfig
	gw := ports.SearchFunc(func(ctx context.Context, q string, cfg domain.SearchConfig) ([]domain.SearchResult, error) {
		gotCfg = cfg
		if q == "" {
			return nil, errors.New("empty query")
		}
		return want, nil
	})
	s := gateway.NewSearch(gw, time.Second, domain.LifecycleHooks{})

	got, err := s.Search(context.Background(), "hotels in Orlando", domain.SearchConfig{MaxResults: 5})
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, 5, gotCfg.MaxResults)
	assert.Equal(t, "unknown", gateway.PurposeFrom(context.Background()))
}
