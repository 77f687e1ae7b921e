package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventNodeEnter   EventType = "node_enter"
	EventNodeLeave   EventType = "node_leave"
	EventGatewayCall EventType = "gateway_call"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
}

// NodeEvent represents entry or exit from a node.
type NodeEvent struct {
	EventBase
	NodeID   string        `json:"node_id"`
	Priming  bool          `json:"priming,omitempty"`
	Next     string        `json:"next,omitempty"`
	Rejected bool          `json:"rejected,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
}

// GatewayEvent records one call to the search or reasoning gateway.
type GatewayEvent struct {
	EventBase
	Gateway  string        `json:"gateway"`
	Purpose  string        `json:"purpose"`
	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`
	Fallback bool          `json:"fallback,omitempty"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnNodeEnter   func(context.Context, *NodeEvent)
	OnNodeLeave   func(context.Context, *NodeEvent)
	OnGatewayCall func(context.Context, *GatewayEvent)
}

type sessionKey struct{}

// WithSessionID tags ctx with the session being processed.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionKey{}, id)
}

// SessionIDFrom returns the session tag set by WithSessionID.
func SessionIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}
