// Package plan composes the final trip report: the collected parameters,
// ranked options per category and a day-by-day itinerary.
package plan

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/aretw0/wayfarer/internal/gateway"
	"github.com/aretw0/wayfarer/internal/logging"
	"github.com/aretw0/wayfarer/pkg/domain"
	"github.com/aretw0/wayfarer/pkg/ports"
	"github.com/samber/lo"
)

// TopN is how many options are ranked per category.
var TopN = map[domain.Category]int{
	domain.CategoryTransportation: 3,
	domain.CategoryAccommodation:  3,
	domain.CategoryActivities:     5,
}

// snippetLimit caps the result excerpt in verbatim listings.
const snippetLimit = 160

// Synthesizer builds domain.Plan values.
type Synthesizer struct {
	reasoning ports.ReasoningGateway
	logger    *slog.Logger
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Synthesizer) {
		s.logger = l
	}
}

// New creates a Synthesizer. gw may be nil; every section then uses its
// deterministic fallback.
func New(gw ports.ReasoningGateway, opts ...Option) *Synthesizer {
	s := &Synthesizer{reasoning: gw, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Compose assembles the plan for s. It never fails: each reasoning call
// that errors is replaced by a local rendering.
func (sy *Synthesizer) Compose(ctx context.Context, s domain.State) domain.Plan {
	p := domain.Plan{Options: make(map[domain.Category]string)}

	cats := lo.Filter(s.PlanningType, func(c domain.Category, _ int) bool {
		return len(s.Results(c)) > 0
	})
	ranked := make([]string, len(cats))

	var wg sync.WaitGroup
	for i, c := range cats {
		wg.Go(func() {
			ranked[i] = sy.rank(ctx, c, s)
		})
	}
	if s.ResultCount() > 0 {
		wg.Go(func() {
			p.Itinerary = sy.itinerary(ctx, s)
		})
	}
	wg.Wait()

	for i, c := range cats {
		p.Options[c] = ranked[i]
	}
	p.Notes = notes(s)
	p.Markdown = render(s, p, cats)
	return p
}

func (sy *Synthesizer) complete(ctx context.Context, purpose, prompt string) (string, bool) {
	if sy.reasoning == nil {
		return "", false
	}
	out, err := sy.reasoning.Complete(gateway.WithPurpose(ctx, purpose), prompt)
	out = strings.TrimSpace(out)
	if err != nil || out == "" {
		sy.logger.Debug("Plan section fell back", "purpose", purpose, "err", err)
		return "", false
	}
	return out, true
}

// rank asks for the best options in category c, or lists the first N.
func (sy *Synthesizer) rank(ctx context.Context, c domain.Category, s domain.State) string {
	n := TopN[c]
	results := s.Results(c)
	if text, ok := sy.complete(ctx, "rank_"+string(c), rankPrompt(c, s, results, n)); ok {
		return text
	}
	return Verbatim(results, n)
}

func rankPrompt(c domain.Category, s domain.State, results []domain.SearchResult, n int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are helping a traveler choose %s for a %s trip from %s to %s (%s to %s, %d traveler(s), budget %s).\n",
		c.Label(s.TransportationType), orDefault(string(s.Purpose), "leisure"), s.OriginCity, s.DestinationCity,
		s.StartDate, s.EndDate, s.TravelerCount(), orDefault(s.Budget, "flexible"))
	if s.BudgetAllocation != nil {
		if sub := s.BudgetAllocation.For(c); sub > 0 {
			fmt.Fprintf(&b, "The share of the budget for this category is $%.0f.\n", sub)
		}
	}
	if s.Interests != "" {
		fmt.Fprintf(&b, "Their interests: %s.\n", s.Interests)
	}
	fmt.Fprintf(&b, "Pick the best %d options from the search results below. For each give a numbered markdown item with the name, a one-sentence reason it fits, and the link.\n\n", n)
	for i, r := range results {
		fmt.Fprintf(&b, "[%d] %s\n%s\n%s\n\n", i+1, r.Title, excerpt(r.Content, 400), r.URL)
	}
	return b.String()
}

// Verbatim lists the first n results as a numbered markdown list.
func Verbatim(results []domain.SearchResult, n int) string {
	var b strings.Builder
	for i, r := range lo.Slice(results, 0, n) {
		fmt.Fprintf(&b, "%d. **%s**", i+1, orDefault(r.Title, "Untitled"))
		if snippet := excerpt(r.Content, snippetLimit); snippet != "" {
			fmt.Fprintf(&b, " - %s", snippet)
		}
		if r.URL != "" {
			fmt.Fprintf(&b, " ([link](%s))", r.URL)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func notes(s domain.State) []string {
	out := append(lo.Map(s.ScheduleIssues, func(v string, _ int) string { return v }), s.BudgetIssues...)
	if s.BudgetFlexible {
		out = append(out, "Your budget is flexible, so prices were not checked against a limit.")
	}
	if s.TransportationType == domain.TransportBuses && s.Plans(domain.CategoryTransportation) {
		out = append(out, "Transportation is planned by bus.")
	}
	return out
}

func excerpt(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return strings.TrimSpace(string(r[:limit])) + "..."
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
