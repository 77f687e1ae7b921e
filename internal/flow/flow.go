// Package flow defines the trip-planning conversation: eight question nodes,
// the search node, the validation handler and plan generation, wired into a
// runtime.Graph.
package flow

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/wayfarer/internal/gateway"
	"github.com/aretw0/wayfarer/internal/logging"
	"github.com/aretw0/wayfarer/internal/plan"
	"github.com/aretw0/wayfarer/internal/runtime"
	"github.com/aretw0/wayfarer/pkg/domain"
)

// DefaultMaxSearchRetries caps how often the validation handler may send the
// conversation back to search.
const DefaultMaxSearchRetries = 3

// Greeting opens every conversation.
const Greeting = "Hi! I'm Wayfarer, and I'll help you plan your trip. Where are you traveling from?"

// Config holds the collaborators of the planning nodes.
type Config struct {
	Reasoning *gateway.Reasoning
	Search    *gateway.Search
	// Now supplies the reference date for relative and year-less dates.
	Now              func() time.Time
	MaxSearchRetries int
	Logger           *slog.Logger
}

type planner struct {
	reasoning  *gateway.Reasoning
	search     *gateway.Search
	synth      *plan.Synthesizer
	now        func() time.Time
	maxRetries int
	logger     *slog.Logger
}

func newPlanner(cfg Config) *planner {
	p := &planner{
		reasoning:  cfg.Reasoning,
		search:     cfg.Search,
		now:        cfg.Now,
		maxRetries: cfg.MaxSearchRetries,
		logger:     cfg.Logger,
	}
	if p.reasoning == nil {
		p.reasoning = gateway.NewReasoning(nil, 0, domain.LifecycleHooks{})
	}
	if p.search == nil {
		p.search = gateway.NewSearch(nil, 0, domain.LifecycleHooks{})
	}
	if p.now == nil {
		p.now = time.Now
	}
	if p.maxRetries <= 0 {
		p.maxRetries = DefaultMaxSearchRetries
	}
	if p.logger == nil {
		p.logger = logging.NewNop()
	}
	p.synth = plan.New(p.reasoning, plan.WithLogger(p.logger))
	return p
}

// today is the reference date at midnight UTC.
func (p *planner) today() time.Time {
	y, m, d := p.now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NewGraph builds the planning graph.
func NewGraph(cfg Config) (*runtime.Graph, error) {
	p := newPlanner(cfg)

	asks := []struct {
		id  string
		run runtime.NodeFunc
	}{
		{domain.NodeAskOrigin, p.askOrigin},
		{domain.NodeAskDestination, p.askDestination},
		{domain.NodeAskStartDate, p.askStartDate},
		{domain.NodeAskEndDate, p.askEndDate},
		{domain.NodeAskTravelers, p.askTravelers},
		{domain.NodeAskBudget, p.askBudget},
		{domain.NodeAskPurpose, p.askPurpose},
		{domain.NodeAskPlanningType, p.askPlanningType},
	}

	b := runtime.NewBuilder(domain.NodeAskOrigin)
	for i, a := range asks {
		b.Node(a.id, domain.NodeKindAsk, a.run)
		next := domain.NodeSearch
		if i+1 < len(asks) {
			next = asks[i+1].id
		}
		b.Edge(a.id, runtime.Fixed{Target: next})
	}

	return b.
		Node(domain.NodeSearch, domain.NodeKindAction, p.runSearch).
		Node(domain.NodeHandleValidation, domain.NodeKindAction, p.handleIssues).
		Node(domain.NodeGeneratePlan, domain.NodeKindTerminal, p.generatePlan).
		Edge(domain.NodeSearch, runtime.Conditional{
			Targets: []string{domain.NodeHandleValidation, domain.NodeGeneratePlan},
			Label:   "issues found?",
			Resolve: routeAfterSearch,
		}).
		Edge(domain.NodeHandleValidation, runtime.Fixed{Target: domain.NodeSearch}).
		Edge(domain.NodeGeneratePlan, runtime.Fixed{Target: domain.NodeEnd}).
		Build()
}

func routeAfterSearch(s domain.State) string {
	if s.HasIssues() {
		return domain.NodeHandleValidation
	}
	return domain.NodeGeneratePlan
}

func (p *planner) generatePlan(ctx context.Context, s domain.State) (runtime.Result, error) {
	result := p.synth.Compose(ctx, s)
	s.Plan = &result
	s.ResponseMessage = result.Markdown
	s.ConversationComplete = true
	return runtime.Result{State: s}, nil
}
