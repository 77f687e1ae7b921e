package flow

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/wayfarer/internal/budget"
	"github.com/aretw0/wayfarer/internal/gateway"
	"github.com/aretw0/wayfarer/internal/query"
	"github.com/aretw0/wayfarer/internal/runtime"
	"github.com/aretw0/wayfarer/internal/validation"
	"github.com/aretw0/wayfarer/pkg/domain"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// runSearch allocates the budget, searches every selected category in
// parallel and validates the results. It runs once per search generation:
// when results are already present it only re-reports them.
func (p *planner) runSearch(ctx context.Context, s domain.State) (runtime.Result, error) {
	if len(s.PlanningType) == 0 {
		s.PlanningType = canonical(domain.AllCategories)
	}
	if s.HasResults() {
		s.ResponseMessage = searchingMessage(s)
		return runtime.Result{State: s}, nil
	}

	total := s.BudgetAmount
	if s.BudgetFlexible || total <= 0 {
		total = budget.DefaultTotal
	}
	alloc, source := budget.Allocate(ctx, p.reasoning, budget.Request{
		Total:       total,
		Nights:      s.Nights(),
		Travelers:   s.TravelerCount(),
		Mode:        s.TransportationType,
		Destination: s.DestinationCity,
	})

	results, err := p.searchAll(ctx, s, alloc)
	if err != nil {
		p.logger.Warn("Search failed, continuing without live results", "err", err)
		s.ClearSearch()
		s.BudgetIssues = []string{validation.SearchFailureIssue(err)}
		s.ValidationMessageShown = false
		s.ResponseMessage = fmt.Sprintf("I couldn't reach the search service, so I'll put together a plan for %s from general guidance.", s.DestinationCity)
		return runtime.Result{State: s, Next: domain.NodeGeneratePlan}, nil
	}

	for i, c := range s.PlanningType {
		s.SetResults(c, results[i])
	}
	s.BudgetAllocation = &alloc

	report := validation.Validate(ctx, p.reasoning, s)
	report.Apply(&s)
	s.ValidationMessageShown = false
	s.ResponseMessage = searchingMessage(s)

	p.logger.Info("Search completed",
		"session_id", domain.SessionIDFrom(ctx),
		"results", s.ResultCount(),
		"allocation", source,
		"validation", report.Source,
		"issues", len(s.BudgetIssues)+len(s.ScheduleIssues))
	return runtime.Result{State: s}, nil
}

// searchAll issues one query per planned category concurrently. Any failure
// discards every result.
func (p *planner) searchAll(ctx context.Context, s domain.State, alloc domain.BudgetAllocation) ([][]domain.SearchResult, error) {
	if !p.search.Available() {
		return nil, domain.ErrGatewayUnavailable
	}
	results := make([][]domain.SearchResult, len(s.PlanningType))
	g, gctx := errgroup.WithContext(gateway.WithPurpose(ctx, "search"))
	for i, c := range s.PlanningType {
		q := query.Build(c, s, alloc.For(c))
		g.Go(func() error {
			hits, err := p.search.Search(gctx, q.Text, q.Config)
			if err != nil {
				return fmt.Errorf("%s search: %w", c, err)
			}
			if hits == nil {
				hits = []domain.SearchResult{}
			}
			results[i] = hits
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func searchingMessage(s domain.State) string {
	labels := lo.Map(s.PlanningType, func(c domain.Category, _ int) string {
		return c.Label(s.TransportationType)
	})
	return fmt.Sprintf("Searching for %s for your trip to %s...", joinWords(labels), s.DestinationCity)
}

// joinWords renders a, b and c.
func joinWords(words []string) string {
	switch len(words) {
	case 0:
		return ""
	case 1:
		return words[0]
	}
	return strings.Join(words[:len(words)-1], ", ") + " and " + words[len(words)-1]
}
