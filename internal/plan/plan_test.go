package plan_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/aretw0/wayfarer/internal/gateway"
	"github.com/aretw0/wayfarer/internal/plan"
	"github.com/aretw0/wayfarer/pkg/domain"
	"github.com/aretw0/wayfarer/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func results(prefix string, n int) []domain.SearchResult {
	out := make([]domain.SearchResult, n)
	for i := range out {
		out[i] = domain.SearchResult{
			Title:   fmt.Sprintf("%s %d", prefix, i+1),
			Content: "From $100 per night",
			URL:     fmt.Sprintf("https://example.com/%d", i+1),
		}
	}
	return out
}

func tripState() domain.State {
	s := domain.NewState()
	s.OriginCity = "Dallas"
	s.DestinationCity = "Orlando"
	s.StartDate = "2027-03-16"
	s.EndDate = "2027-03-20"
	s.Travelers = 2
	s.Budget = "$2000"
	s.BudgetAmount = 2000
	s.Purpose = domain.PurposeVacation
	s.PlanningType = []domain.Category{domain.CategoryAccommodation, domain.CategoryActivities}
	return s
}

func TestCompose_FallbackListsTopResults(t *testing.T) {
	s := tripState()
	s.AccommodationResults = results("Hotel", 4)
	s.ActivitiesResults = results("Park", 7)

	p := plan.New(nil).Compose(context.Background(), s)

	assert.Contains(t, p.Options[domain.CategoryAccommodation], "3. **Hotel 3**")
	assert.NotContains(t, p.Options[domain.CategoryAccommodation], "Hotel 4")
	assert.Contains(t, p.Options[domain.CategoryActivities], "5. **Park 5**")
	assert.NotContains(t, p.Options[domain.CategoryActivities], "Park 6")

	require.Len(t, p.Itinerary, 5)
	assert.Equal(t, "Arrival", p.Itinerary[0].Title)
	assert.Equal(t, "2027-03-16", p.Itinerary[0].Date)
	assert.Equal(t, "Departure", p.Itinerary[4].Title)
	assert.Equal(t, "2027-03-20", p.Itinerary[4].Date)

	assert.Contains(t, p.Markdown, "# Your trip to Orlando")
	assert.Contains(t, p.Markdown, "## Hotels")
	assert.Contains(t, p.Markdown, "## Activities")
	assert.Contains(t, p.Markdown, "### Day 1 (2027-03-16): Arrival")
}

func TestCompose_NoResultsSkipsItinerary(t *testing.T) {
	s := tripState()
	s.BudgetIssues = []string{"Search unavailable: boom."}

	p := plan.New(nil).Compose(context.Background(), s)

	assert.Empty(t, p.Itinerary)
	assert.Empty(t, p.Options)
	assert.Equal(t, []string{"Search unavailable: boom."}, p.Notes)
	assert.Contains(t, p.Markdown, "No live search results")
	assert.Contains(t, p.Markdown, "## Itinerary")
}

func TestCompose_UsesReasoningGateway(t *testing.T) {
	var (
		mu       sync.Mutex
		purposes []string
	)
	gw := ports.ReasoningFunc(func(ctx context.Context, prompt string) (string, error) {
		purpose := gateway.PurposeFrom(ctx)
		mu.Lock()
		purposes = append(purposes, purpose)
		mu.Unlock()
		switch purpose {
		case "rank_accommodation":
			return "1. **Grand Hotel** - close to the parks", nil
		case "itinerary":
			return "**Day 1: Arrive**\nCheck in.\n\nDay 2 - Parks\nMagic all day.\nDay 9: ignored", nil
		}
		return "", errors.New("unexpected")
	})
	s := tripState()
	s.PlanningType = []domain.Category{domain.CategoryAccommodation}
	s.AccommodationResults = results("Hotel", 2)

	p := plan.New(gw).Compose(context.Background(), s)

	assert.ElementsMatch(t, []string{"rank_accommodation", "itinerary"}, purposes)
	assert.Equal(t, "1. **Grand Hotel** - close to the parks", p.Options[domain.CategoryAccommodation])
	require.Len(t, p.Itinerary, 2)
	assert.Equal(t, "Arrive", p.Itinerary[0].Title)
	assert.Equal(t, "Check in.", p.Itinerary[0].Details)
	assert.Equal(t, "Parks", p.Itinerary[1].Title)
	assert.Equal(t, "2027-03-17", p.Itinerary[1].Date)
}

func TestCompose_GatewayFailureFallsBack(t *testing.T) {
	gw := ports.ReasoningFunc(func(context.Context, string) (string, error) {
		return "", errors.New("timeout")
	})
	s := tripState()
	s.AccommodationResults = results("Hotel", 1)

	p := plan.New(gw).Compose(context.Background(), s)

	assert.True(t, strings.HasPrefix(p.Options[domain.CategoryAccommodation], "1. **Hotel 1**"))
	assert.Len(t, p.Itinerary, 5)
}

func TestParseItinerary(t *testing.T) {
	text := `Here is your plan!
### Day 1: Arrival
Land and relax.
Day 1: duplicate
Day 3) Beach
Swim.
More swimming.`
	got := plan.ParseItinerary(text, 3)
	require.Len(t, got, 2)
	assert.Equal(t, domain.DayPlan{Day: 1, Title: "Arrival", Details: "Land and relax."}, got[0])
	assert.Equal(t, domain.DayPlan{Day: 3, Title: "Beach", Details: "Swim.\nMore swimming."}, got[1])
}

func TestGeneric_BusinessDays(t *testing.T) {
	s := tripState()
	s.Purpose = domain.PurposeBusiness
	s.EndDate = "2027-03-18"
	got := plan.Generic(s)
	require.Len(t, got, 3)
	assert.Equal(t, "Work day", got[1].Title)
}
