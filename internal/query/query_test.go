package query_test

import (
	"strings"
	"testing"

	"github.com/aretw0/wayfarer/internal/query"
	"github.com/aretw0/wayfarer/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func trip() domain.State {
	s := domain.NewState()
	s.OriginCity = "Dallas"
	s.DestinationCity = "Orlando"
	s.StartDate = "2027-03-16"
	s.EndDate = "2027-03-20"
	s.Travelers = 2
	s.Purpose = domain.PurposeVacation
	return s
}

func TestBuild(t *testing.T) {
	tests := []struct {
		name     string
		category domain.Category
		mutate   func(*domain.State)
		budget   float64
		contains []string
		depth    string
		max      int
	}{
		{
			name:     "flights per person",
			category: domain.CategoryTransportation,
			budget:   800,
			contains: []string{"flights from Dallas to Orlando", "March 16 2027", "March 20 2027", "2 passengers", "$400 per person"},
			depth:    "advanced",
			max:      5,
		},
		{
			name:     "buses",
			category: domain.CategoryTransportation,
			mutate:   func(s *domain.State) { s.TransportationType = domain.TransportBuses },
			budget:   240,
			contains: []string{"bus tickets from Dallas to Orlando", "$120 per person"},
			depth:    "advanced",
			max:      5,
		},
		{
			name:     "hotels per night",
			category: domain.CategoryAccommodation,
			budget:   600,
			contains: []string{"family friendly hotels in Orlando", "$150 per night", "2 guests"},
			depth:    "advanced",
			max:      5,
		},
		{
			name:     "business hotels",
			category: domain.CategoryAccommodation,
			mutate:   func(s *domain.State) { s.Purpose = domain.PurposeBusiness },
			budget:   600,
			contains: []string{"business hotels near downtown in Orlando"},
			depth:    "advanced",
			max:      5,
		},
		{
			name:     "activities with interests",
			category: domain.CategoryActivities,
			mutate:   func(s *domain.State) { s.Interests = "theme parks and seafood" },
			budget:   160,
			contains: []string{"things to do in Orlando in March", "interested in theme parks and seafood", "$80 per person"},
			depth:    "basic",
			max:      8,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := trip()
			if tt.mutate != nil {
				tt.mutate(&s)
			}
			q := query.Build(tt.category, s, tt.budget)
			assert.Equal(t, tt.category, q.Category)
			for _, want := range tt.contains {
				assert.Contains(t, q.Text, want)
			}
			assert.Equal(t, tt.depth, q.Config.SearchDepth)
			assert.Equal(t, tt.max, q.Config.MaxResults)
			assert.False(t, q.Config.IncludeAnswer)
		})
	}
}

func TestBuild_IsDeterministic(t *testing.T) {
	s := trip()
	assert.Equal(t, query.Build(domain.CategoryActivities, s, 100), query.Build(domain.CategoryActivities, s, 100))
}

func TestBuild_StaysUnderLimit(t *testing.T) {
	s := trip()
	s.DestinationCity = strings.Repeat("Llanfairpwllgwyngyll ", 15)
	s.Interests = strings.Repeat("street food, live music, ", 40)

	for _, c := range domain.AllCategories {
		q := query.Build(c, s, 1000)
		assert.Less(t, len(q.Text), query.MaxLength, string(c))
		assert.NotContains(t, q.Text, "  ")
	}
}

func TestCompact(t *testing.T) {
	assert.Equal(t, "a b c", query.Compact("  a \n b\t c "))
}
