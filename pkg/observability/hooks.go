package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/wayfarer/pkg/domain"
)

// LoggingHooks logs node transitions at debug level and gateway failures
// at warn level.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(ctx context.Context, e *domain.NodeEvent) {
			logger.DebugContext(ctx, "node_enter",
				"session_id", e.SessionID,
				"node_id", e.NodeID,
				"primed", e.Priming,
			)
		},
		OnNodeLeave: func(ctx context.Context, e *domain.NodeEvent) {
			logger.DebugContext(ctx, "node_leave",
				"session_id", e.SessionID,
				"node_id", e.NodeID,
				"next", e.Next,
				"rejected", e.Rejected,
				"duration", e.Duration,
			)
		},
		OnGatewayCall: func(ctx context.Context, e *domain.GatewayEvent) {
			if e.Err != nil {
				logger.WarnContext(ctx, "gateway_error",
					"session_id", e.SessionID,
					"gateway", e.Gateway,
					"purpose", e.Purpose,
					"duration", e.Duration,
					"err", e.Err,
				)
				return
			}
			logger.DebugContext(ctx, "gateway_call",
				"session_id", e.SessionID,
				"gateway", e.Gateway,
				"purpose", e.Purpose,
				"duration", e.Duration,
			)
		},
	}
}

// Chain runs every set of hooks in order.
func Chain(hooks ...domain.LifecycleHooks) domain.LifecycleHooks {
	var enter, leave []func(context.Context, *domain.NodeEvent)
	var calls []func(context.Context, *domain.GatewayEvent)
	for _, h := range hooks {
		if h.OnNodeEnter != nil {
			enter = append(enter, h.OnNodeEnter)
		}
		if h.OnNodeLeave != nil {
			leave = append(leave, h.OnNodeLeave)
		}
		if h.OnGatewayCall != nil {
			calls = append(calls, h.OnGatewayCall)
		}
	}

	var out domain.LifecycleHooks
	if len(enter) > 0 {
		out.OnNodeEnter = func(ctx context.Context, e *domain.NodeEvent) {
			for _, fn := range enter {
				fn(ctx, e)
			}
		}
	}
	if len(leave) > 0 {
		out.OnNodeLeave = func(ctx context.Context, e *domain.NodeEvent) {
			for _, fn := range leave {
				fn(ctx, e)
			}
		}
	}
	if len(calls) > 0 {
		out.OnGatewayCall = func(ctx context.Context, e *domain.GatewayEvent) {
			for _, fn := range calls {
				fn(ctx, e)
			}
		}
	}
	return out
}
