package flow

import (
	"testing"

	"github.com/aretw0/wayfarer/internal/validation"
	"github.com/aretw0/wayfarer/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flaggedState() domain.State {
	s := domain.NewState()
	s.CurrentNode = domain.NodeHandleValidation
	s.DestinationCity = "Orlando"
	s.StartDate = "2027-03-16"
	s.EndDate = "2027-03-20"
	s.Travelers = 2
	s.Budget = "$1000"
	s.BudgetAmount = 1000
	s.PlanningType = []domain.Category{domain.CategoryTransportation, domain.CategoryAccommodation}
	s.TransportationResults = []domain.SearchResult{{Title: "Round trip", Content: "from $600"}}
	s.AccommodationResults = []domain.SearchResult{{Title: "Inn", Content: "$90 a night"}}
	s.BudgetAllocation = &domain.BudgetAllocation{Transportation: 400, Accommodation: 300, Food: 200, Activities: 80, Contingency: 20}
	s.BudgetIssues = []string{validation.PrefixFlights + ": too much"}
	s.FlightsBudgetExceeded = true
	s.ValidationMessageShown = true
	return s
}

func TestHandleIssues_FirstEntryComposesMenuAndHolds(t *testing.T) {
	p := testPlanner(nil)
	tests := []struct {
		name  string
		setup func(*domain.State)
		menu  []string
	}{
		{
			name:  "total exceeded",
			setup: func(s *domain.State) { s.TotalBudgetExceeded = true },
			menu:  []string{"1. Increase your budget", "2. Switch to buses", "3. Change what I plan"},
		},
		{
			name:  "transport only",
			setup: func(s *domain.State) {},
			menu:  []string{"1. Switch to buses", "2. Increase your budget", "3. Continue as-is"},
		},
		{
			name: "schedule only",
			setup: func(s *domain.State) {
				s.BudgetIssues = nil
				s.FlightsBudgetExceeded = false
				s.ScheduleIssues = []string{validation.PrefixSchedule + ": 3-day tour"}
			},
			menu: []string{"1. Adjust your dates", "2. Continue as-is"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := flaggedState()
			s.ValidationMessageShown = false
			tt.setup(&s)

			got, res := feed(t, p.handleIssues, s, "continue")
			assert.True(t, res.Hold)
			assert.True(t, got.ValidationMessageShown)
			for _, item := range tt.menu {
				assert.Contains(t, got.ResponseMessage, item)
			}
			assert.True(t, got.HasIssues(), "the first entry does not consume input")
		})
	}
}

func TestHandleIssues_WaitsWithoutInput(t *testing.T) {
	p := testPlanner(nil)
	got, res := feed(t, p.handleIssues, flaggedState(), "")
	assert.True(t, res.Hold)
	assert.Empty(t, got.ResponseMessage)
}

func TestHandleIssues_BusesForcesFullResearch(t *testing.T) {
	p := testPlanner(nil)

	got, res := feed(t, p.handleIssues, flaggedState(), "Yes, buses please")
	assert.Equal(t, domain.NodeSearch, res.Next)
	assert.Equal(t, domain.TransportBuses, got.TransportationType)
	assert.Nil(t, got.TransportationResults)
	assert.Nil(t, got.AccommodationResults)
	assert.Nil(t, got.BudgetAllocation)
	assert.False(t, got.HasIssues())
	assert.False(t, got.FlightsBudgetExceeded)
	assert.False(t, got.ValidationMessageShown)
	assert.Equal(t, 1, got.SearchRetryCount)
}

func TestHandleIssues_Commands(t *testing.T) {
	p := testPlanner(nil)
	tests := []struct {
		input string
		next  string
		check func(t *testing.T, s domain.State)
	}{
		{"ok, that's fine", domain.NodeGeneratePlan, func(t *testing.T, s domain.State) {
			assert.False(t, s.HasIssues())
			assert.True(t, s.HasResults(), "results are kept for the plan")
		}},
		{"let me adjust the dates", domain.NodeAskStartDate, func(t *testing.T, s domain.State) {
			assert.Empty(t, s.StartDate)
			assert.Empty(t, s.EndDate)
			assert.False(t, s.HasResults())
		}},
		{"$3,000", domain.NodeSearch, func(t *testing.T, s domain.State) {
			assert.Equal(t, 3000.0, s.BudgetAmount)
			assert.Equal(t, "$3,000", s.Budget)
			assert.False(t, s.HasResults())
		}},
		{"raise the budget", domain.NodeAskBudget, func(t *testing.T, s domain.State) {
			assert.Empty(t, s.Budget)
			assert.False(t, s.HasResults())
		}},
		{"change preferences", domain.NodeAskPlanningType, func(t *testing.T, s domain.State) {
			assert.Nil(t, s.PlanningType)
			assert.False(t, s.HasResults())
			assert.False(t, s.ValidationMessageShown)
		}},
		{"whatever you think", domain.NodeGeneratePlan, func(t *testing.T, s domain.State) {
			assert.True(t, s.HasIssues(), "unresolved issues become plan notes")
		}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, res := feed(t, p.handleIssues, flaggedState(), tt.input)
			require.False(t, res.Hold)
			assert.Equal(t, tt.next, res.Next)
			tt.check(t, got)
		})
	}
}

func TestHandleIssues_BusIgnoredWithoutTransportIssue(t *testing.T) {
	p := testPlanner(nil)
	s := flaggedState()
	s.FlightsBudgetExceeded = false
	s.BudgetIssues = []string{validation.PrefixAccommodation + ": pricey"}

	got, res := feed(t, p.handleIssues, s, "yes")
	assert.Equal(t, domain.NodeGeneratePlan, res.Next)
	assert.Equal(t, domain.TransportFlights, got.TransportationType)
}

func TestHandleIssues_RetryCap(t *testing.T) {
	p := testPlanner(nil)
	tests := []struct {
		input string
		check func(t *testing.T, s domain.State)
	}{
		{"bus", func(t *testing.T, s domain.State) {
			assert.Equal(t, domain.TransportFlights, s.TransportationType, "the plan keeps the mode it searched with")
		}},
		{"$3000", func(t *testing.T, s domain.State) {
			assert.Equal(t, "$1000", s.Budget)
			assert.Equal(t, 1000.0, s.BudgetAmount)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			s := flaggedState()
			s.SearchRetryCount = DefaultMaxSearchRetries

			got, res := feed(t, p.handleIssues, s, tt.input)
			assert.Equal(t, domain.NodeGeneratePlan, res.Next)
			assert.True(t, got.HasResults())
			assert.Equal(t, DefaultMaxSearchRetries, got.SearchRetryCount)
			tt.check(t, got)
		})
	}
}

func TestHandleIssues_MenuNumbers(t *testing.T) {
	p := testPlanner(nil)
	tests := []struct {
		name  string
		setup func(*domain.State)
		input string
		next  string
		check func(t *testing.T, s domain.State)
	}{
		{"transport only, 1 switches to buses", func(*domain.State) {}, "1", domain.NodeSearch, func(t *testing.T, s domain.State) {
			assert.Equal(t, domain.TransportBuses, s.TransportationType)
			assert.Equal(t, "$1000", s.Budget)
			assert.Equal(t, 1000.0, s.BudgetAmount)
		}},
		{"transport only, 2 asks for a budget", func(*domain.State) {}, "2", domain.NodeAskBudget, func(t *testing.T, s domain.State) {
			assert.Empty(t, s.Budget)
		}},
		{"transport only, 3. continues", func(*domain.State) {}, "3.", domain.NodeGeneratePlan, func(t *testing.T, s domain.State) {
			assert.False(t, s.HasIssues())
		}},
		{"total exceeded, 3 changes preferences", func(s *domain.State) { s.TotalBudgetExceeded = true }, "3", domain.NodeAskPlanningType, func(t *testing.T, s domain.State) {
			assert.Nil(t, s.PlanningType)
		}},
		{"schedule only, 1 adjusts dates", func(s *domain.State) {
			s.BudgetIssues = nil
			s.FlightsBudgetExceeded = false
			s.ScheduleIssues = []string{validation.PrefixSchedule + ": 3-day tour"}
		}, "1", domain.NodeAskStartDate, func(t *testing.T, s domain.State) {
			assert.Empty(t, s.StartDate)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := flaggedState()
			tt.setup(&s)
			got, res := feed(t, p.handleIssues, s, tt.input)
			require.False(t, res.Hold)
			assert.Equal(t, tt.next, res.Next)
			tt.check(t, got)
		})
	}
}

func TestHandleIssues_MenuNumberOutOfRange(t *testing.T) {
	p := testPlanner(nil)
	got, res := feed(t, p.handleIssues, flaggedState(), "7")
	assert.True(t, res.Hold)
	assert.Contains(t, got.ResponseMessage, "between 1 and 3")
	assert.Equal(t, "$1000", got.Budget)
	assert.True(t, got.HasResults())
}
