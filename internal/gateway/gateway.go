// Package gateway wraps the external reasoning and search services with
// per-call timeouts and lifecycle events.
//
// A wrapper built around a nil gateway is still usable: every call fails
// with domain.ErrGatewayUnavailable, which sends the caller down its
// deterministic fallback path.
package gateway

import (
	"context"
	"time"

	"github.com/aretw0/wayfarer/pkg/domain"
	"github.com/aretw0/wayfarer/pkg/ports"
)

const (
	// DefaultReasoningTimeout bounds a single completion.
	DefaultReasoningTimeout = 45 * time.Second
	// DefaultSearchTimeout bounds a single search query.
	DefaultSearchTimeout = 20 * time.Second
)

type purposeKey struct{}

// WithPurpose labels the gateway calls made with ctx (for logs and metrics).
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey{}, purpose)
}

// PurposeFrom returns the label set by WithPurpose, or "unknown".
func PurposeFrom(ctx context.Context) string {
	if p, ok := ctx.Value(purposeKey{}).(string); ok && p != "" {
		return p
	}
	return "unknown"
}

// Reasoning is a bounded ports.ReasoningGateway.
type Reasoning struct {
	next    ports.ReasoningGateway
	timeout time.Duration
	hooks   domain.LifecycleHooks
}

// NewReasoning wraps gw. A zero timeout uses DefaultReasoningTimeout.
func NewReasoning(gw ports.ReasoningGateway, timeout time.Duration, hooks domain.LifecycleHooks) *Reasoning {
	if timeout <= 0 {
		timeout = DefaultReasoningTimeout
	}
	return &Reasoning{next: gw, timeout: timeout, hooks: hooks}
}

// Available reports whether a real gateway is behind the wrapper.
func (r *Reasoning) Available() bool {
	return r != nil && r.next != nil
}

// Complete forwards the prompt under a deadline.
func (r *Reasoning) Complete(ctx context.Context, prompt string) (string, error) {
	if !r.Available() {
		return "", domain.ErrGatewayUnavailable
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	text, err := r.next.Complete(ctx, prompt)
	emit(ctx, r.hooks, "reasoning", start, err)
	return text, err
}

// Search is a bounded ports.SearchGateway.
type Search struct {
	next    ports.SearchGateway
	timeout time.Duration
	hooks   domain.LifecycleHooks
}

// NewSearch wraps gw. A zero timeout uses DefaultSearchTimeout.
func NewSearch(gw ports.SearchGateway, timeout time.Duration, hooks domain.LifecycleHooks) *Search {
	if timeout <= 0 {
		timeout = DefaultSearchTimeout
	}
	return &Search{next: gw, timeout: timeout, hooks: hooks}
}

// Available reports whether a real gateway is behind the wrapper.
func (s *Search) Available() bool {
	return s != nil && s.next != nil
}

// Search forwards the query under a deadline.
func (s *Search) Search(ctx context.Context, query string, cfg domain.SearchConfig) ([]domain.SearchResult, error) {
	if !s.Available() {
		return nil, domain.ErrGatewayUnavailable
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	results, err := s.next.Search(ctx, query, cfg)
	emit(ctx, s.hooks, "search", start, err)
	return results, err
}

func emit(ctx context.Context, hooks domain.LifecycleHooks, name string, start time.Time, err error) {
	if hooks.OnGatewayCall == nil {
		return
	}
	hooks.OnGatewayCall(ctx, &domain.GatewayEvent{
		EventBase: domain.EventBase{
			Timestamp: time.Now(),
			Type:      domain.EventGatewayCall,
			SessionID: domain.SessionIDFrom(ctx),
		},
		Gateway:  name,
		Purpose:  PurposeFrom(ctx),
		Duration: time.Since(start),
		Err:      err,
	})
}
