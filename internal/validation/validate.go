// Package validation checks search results against the trip budget and
// schedule.
//
// The primary path asks the reasoning gateway for a structured cost
// estimate. When that fails or the answer makes no sense, a deterministic
// scan of the result text takes over. Both paths produce the same Report.
package validation

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/aretw0/wayfarer/internal/budget"
	"github.com/aretw0/wayfarer/internal/gateway"
	"github.com/aretw0/wayfarer/internal/llmjson"
	"github.com/aretw0/wayfarer/pkg/domain"
	"github.com/aretw0/wayfarer/pkg/ports"
	"github.com/samber/lo"
)

// Source tells which path produced a report.
type Source string

const (
	SourceReasoning Source = "reasoning"
	SourceFallback  Source = "fallback"
)

// excerptLimit caps each result's content in the prompt.
const excerptLimit = 300

// maxExcerpts caps results per category in the prompt.
const maxExcerpts = 5

// Estimate is the projected spend per category.
type Estimate struct {
	Transportation float64
	Accommodation  float64
	Activities     float64
	Food           float64
	Total          float64
}

// Report is the outcome of a validation pass.
type Report struct {
	BudgetIssues          []string
	ScheduleIssues        []string
	FlightsExceeded       bool
	TotalExceeded         bool
	AccommodationExceeded bool
	Estimate              Estimate
	Source                Source
}

// Apply copies the report's routing fields onto s.
func (r Report) Apply(s *domain.State) {
	s.BudgetIssues = r.BudgetIssues
	s.ScheduleIssues = r.ScheduleIssues
	s.FlightsBudgetExceeded = r.FlightsExceeded
	s.TotalBudgetExceeded = r.TotalExceeded
	s.AccommodationBudgetExceeded = r.AccommodationExceeded
}

type llmEstimate struct {
	TransportationCost    float64  `json:"transportation_cost"`
	AccommodationCost     float64  `json:"accommodation_cost"`
	ActivitiesCost        float64  `json:"activities_cost"`
	FoodCost              float64  `json:"food_cost"`
	TotalCost             float64  `json:"total_cost"`
	TransportationExceeds bool     `json:"transportation_exceeds_40_percent"`
	TotalExceeds          bool     `json:"total_exceeds_budget"`
	ScheduleIssues        []string `json:"schedule_issues"`
}

// Validate runs the reasoning path and falls back to Fallback.
func Validate(ctx context.Context, gw ports.ReasoningGateway, s domain.State) Report {
	if gw != nil {
		text, err := gw.Complete(gateway.WithPurpose(ctx, "validate_budget"), prompt(s))
		if err == nil {
			if r, ok := fromEstimate(text, s); ok {
				return r
			}
		}
	}
	return Fallback(s)
}

func totalBudget(s domain.State) float64 {
	if s.BudgetAmount > 0 {
		return s.BudgetAmount
	}
	return budget.DefaultTotal
}

func prompt(s domain.State) string {
	var b strings.Builder
	fmt.Fprintf(&b, `You are checking a trip plan against the traveler's budget and schedule.
Trip: %s to %s, %s to %s (%d day(s), %d night(s)), %d traveler(s), travelling by %s, purpose %s.
Total budget: $%.2f. Transportation must not exceed 40%% of it ($%.2f).
`,
		s.OriginCity, s.DestinationCity, s.StartDate, s.EndDate, s.Days(), s.Nights(),
		s.TravelerCount(), s.TransportationType, s.Purpose, totalBudget(s), totalBudget(s)*TransportShare)

	for _, c := range domain.AllCategories {
		results := s.Results(c)
		if len(results) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n%s results:\n", strings.ToUpper(string(c)))
		for i, r := range lo.Slice(results, 0, maxExcerpts) {
			fmt.Fprintf(&b, "%d. %s - %s\n", i+1, r.Title, excerpt(r.Content, excerptLimit))
		}
	}
	fmt.Fprintf(&b, `
Estimate the realistic cost for ALL travelers for the whole trip per category (food included),
flag whether transportation exceeds 40%% of the budget and whether the total exceeds the budget,
and list schedule problems (e.g. activities longer than the trip).
Reply with only a JSON object matching this schema: %s`, llmjson.Schema(llmEstimate{}))
	return b.String()
}

func excerpt(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "..."
}

func fromEstimate(text string, s domain.State) (Report, bool) {
	var e llmEstimate
	if err := llmjson.Decode(text, &e); err != nil {
		return Report{}, false
	}
	costs := []float64{e.TransportationCost, e.AccommodationCost, e.ActivitiesCost, e.FoodCost, e.TotalCost}
	for _, v := range costs {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return Report{}, false
		}
	}
	parts := e.TransportationCost + e.AccommodationCost + e.ActivitiesCost + e.FoodCost
	if e.TotalCost == 0 {
		e.TotalCost = parts
	}
	if e.TotalCost == 0 && s.ResultCount() > 0 {
		return Report{}, false
	}

	r := Report{
		Source: SourceReasoning,
		Estimate: Estimate{
			Transportation: e.TransportationCost,
			Accommodation:  e.AccommodationCost,
			Activities:     e.ActivitiesCost,
			Food:           e.FoodCost,
			Total:          e.TotalCost,
		},
	}
	if !s.BudgetFlexible {
		total := totalBudget(s)
		r.TotalExceeded = e.TotalExceeds || e.TotalCost > total
		r.FlightsExceeded = s.Plans(domain.CategoryTransportation) &&
			(e.TransportationExceeds || e.TransportationCost > total*TransportShare)
		r.AccommodationExceeded = e.AccommodationCost > total*AccommodationShare
		r.BudgetIssues = budgetIssues(r, s, total)
	}
	r.ScheduleIssues = lo.Compact(lo.Map(e.ScheduleIssues, func(issue string, _ int) string {
		issue = strings.TrimSpace(issue)
		if issue == "" || strings.HasPrefix(issue, PrefixSchedule) {
			return issue
		}
		return PrefixSchedule + ": " + issue
	}))
	return r, true
}

// budgetIssues renders issue strings with the total issue always first.
func budgetIssues(r Report, s domain.State, total float64) []string {
	var issues []string
	if r.TotalExceeded {
		issues = append(issues, totalIssue(r.Estimate.Total, total))
	}
	if r.FlightsExceeded {
		issues = append(issues, transportIssue(s.TransportationType, r.Estimate.Transportation, total))
	}
	if r.AccommodationExceeded {
		issues = append(issues, accommodationIssue(r.Estimate.Accommodation, s.Nights(), total))
	}
	return issues
}

var (
	priceRe    = regexp.MustCompile(`\$\s?(\d{1,3}(?:,\d{3})+|\d+)(?:\.\d{1,2})?`)
	multiDayRe = regexp.MustCompile(`(?i)\b(\d+)[- ](?:day|night)s?\b|\b(multi[- ]day|week[- ]long|overnight)\b`)
)

// Fallback estimates costs from the cheapest price quoted in each
// category's result text.
func Fallback(s domain.State) Report {
	r := Report{Source: SourceFallback}
	travelers := float64(s.TravelerCount())
	nights := float64(s.Nights())

	if p, ok := minPrice(s.TransportationResults); ok {
		r.Estimate.Transportation = p * travelers
	}
	if p, ok := minPrice(s.AccommodationResults); ok {
		r.Estimate.Accommodation = p * nights
	}
	if p, ok := minPrice(s.ActivitiesResults); ok {
		r.Estimate.Activities = p * travelers
	}
	r.Estimate.Total = r.Estimate.Transportation + r.Estimate.Accommodation + r.Estimate.Activities

	if !s.BudgetFlexible {
		total := totalBudget(s)
		r.TotalExceeded = r.Estimate.Total > total
		r.FlightsExceeded = r.Estimate.Transportation > total*TransportShare
		r.AccommodationExceeded = r.Estimate.Accommodation > total*AccommodationShare
		r.BudgetIssues = budgetIssues(r, s, total)
	}

	if _, dated := s.Start(); dated && s.Days() < MinDaysForMultiDay {
		if example, ok := multiDayMention(s.ActivitiesResults); ok {
			r.ScheduleIssues = []string{scheduleIssue(example, s.Days())}
		}
	}
	return r
}

// Prices extracts every dollar amount quoted in text.
func Prices(text string) []float64 {
	var out []float64
	for _, m := range priceRe.FindAllString(text, -1) {
		raw := strings.NewReplacer("$", "", ",", "", " ", "").Replace(m)
		v, err := strconv.ParseFloat(raw, 64)
		if err == nil && v > 0 {
			out = append(out, v)
		}
	}
	return out
}

func minPrice(results []domain.SearchResult) (float64, bool) {
	prices := lo.FlatMap(results, func(r domain.SearchResult, _ int) []float64 {
		return Prices(r.Title + " " + r.Content)
	})
	if len(prices) == 0 {
		return 0, false
	}
	return slices.Min(prices), true
}

func multiDayMention(results []domain.SearchResult) (string, bool) {
	for _, r := range results {
		for _, m := range multiDayRe.FindAllStringSubmatch(r.Title+" "+r.Content, -1) {
			if m[1] != "" {
				if n, err := strconv.Atoi(m[1]); err != nil || n < 2 {
					continue
				}
			}
			return m[0], true
		}
	}
	return "", false
}
