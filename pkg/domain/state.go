package domain

import (
	"slices"
	"time"
)

// DateLayout is the normalized calendar-date representation stored in State.
const DateLayout = "2006-01-02"

// State is the conversation record for one planning session.
// The engine owns the live value; everything else works on clones.
type State struct {
	OriginCity      string `json:"origin_city,omitempty"`
	DestinationCity string `json:"destination_city,omitempty"`
	StartDate       string `json:"start_date,omitempty"`
	EndDate         string `json:"end_date,omitempty"`
	Travelers       int    `json:"travelers,omitempty"`

	// Budget keeps the user's own phrasing; BudgetAmount is derived from it.
	Budget             string  `json:"budget,omitempty"`
	BudgetAmount       float64 `json:"budget_amount,omitempty"`
	BudgetFlexible     bool    `json:"budget_flexible,omitempty"`
	BudgetWarningShown bool    `json:"budget_warning_shown,omitempty"`

	Purpose            Purpose       `json:"purpose,omitempty"`
	PlanningType       []Category    `json:"planning_type,omitempty"`
	Interests          string        `json:"interests,omitempty"`
	TransportationType TransportMode `json:"transportation_type"`

	// nil means "not searched yet"; an empty slice means "searched, no hits".
	TransportationResults []SearchResult `json:"transportation_results,omitempty"`
	AccommodationResults  []SearchResult `json:"accommodation_results,omitempty"`
	ActivitiesResults     []SearchResult `json:"activities_results,omitempty"`

	BudgetAllocation *BudgetAllocation `json:"budget_allocation,omitempty"`

	BudgetIssues                []string `json:"budget_issues,omitempty"`
	ScheduleIssues              []string `json:"schedule_issues,omitempty"`
	FlightsBudgetExceeded       bool     `json:"flights_budget_exceeded,omitempty"`
	TotalBudgetExceeded         bool     `json:"total_budget_exceeded,omitempty"`
	AccommodationBudgetExceeded bool     `json:"accommodation_budget_exceeded,omitempty"`
	ValidationMessageShown      bool     `json:"validation_message_shown,omitempty"`
	SearchRetryCount            int      `json:"search_retry_count,omitempty"`

	CurrentNode          string `json:"current_node"`
	LastUserInput        string `json:"last_user_input,omitempty"`
	ValidationError      string `json:"validation_error,omitempty"`
	ConversationComplete bool   `json:"conversation_complete,omitempty"`
	ResponseMessage      string `json:"response_message,omitempty"`

	Plan *Plan `json:"plan,omitempty"`
}

// NewState creates a fresh session state positioned at the start sentinel.
func NewState() State {
	return State{
		TransportationType: TransportFlights,
		CurrentNode:        NodeStart,
	}
}

// Clone returns a deep copy so no slice or pointer is shared with s.
func (s State) Clone() State {
	c := s
	c.PlanningType = cloneSlice(s.PlanningType)
	c.TransportationResults = cloneSlice(s.TransportationResults)
	c.AccommodationResults = cloneSlice(s.AccommodationResults)
	c.ActivitiesResults = cloneSlice(s.ActivitiesResults)
	c.BudgetIssues = cloneSlice(s.BudgetIssues)
	c.ScheduleIssues = cloneSlice(s.ScheduleIssues)
	if s.BudgetAllocation != nil {
		a := *s.BudgetAllocation
		c.BudgetAllocation = &a
	}
	if s.Plan != nil {
		p := s.Plan.clone()
		c.Plan = &p
	}
	return c
}

// cloneSlice copies in while keeping the nil/empty distinction.
func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}

// HasResults reports whether any category has been searched.
func (s State) HasResults() bool {
	return s.TransportationResults != nil || s.AccommodationResults != nil || s.ActivitiesResults != nil
}

// ResultCount is the total number of hits across categories.
func (s State) ResultCount() int {
	return len(s.TransportationResults) + len(s.AccommodationResults) + len(s.ActivitiesResults)
}

// Results returns the hits stored for a category.
func (s State) Results(c Category) []SearchResult {
	switch c {
	case CategoryTransportation:
		return s.TransportationResults
	case CategoryAccommodation:
		return s.AccommodationResults
	case CategoryActivities:
		return s.ActivitiesResults
	}
	return nil
}

// SetResults stores hits for a category.
func (s *State) SetResults(c Category, results []SearchResult) {
	switch c {
	case CategoryTransportation:
		s.TransportationResults = results
	case CategoryAccommodation:
		s.AccommodationResults = results
	case CategoryActivities:
		s.ActivitiesResults = results
	}
}

// Plans reports whether the user asked for category c.
func (s State) Plans(c Category) bool {
	return slices.Contains(s.PlanningType, c)
}

// HasIssues reports whether either issue list is non-empty.
func (s State) HasIssues() bool {
	return len(s.BudgetIssues) > 0 || len(s.ScheduleIssues) > 0
}

// ClearSearch drops every search result, issue and the allocation so the
// next pass through the search node starts from scratch.
func (s *State) ClearSearch() {
	s.TransportationResults = nil
	s.AccommodationResults = nil
	s.ActivitiesResults = nil
	s.BudgetAllocation = nil
	s.ClearIssues()
}

// ClearIssues resets issue lists and the derived flags.
func (s *State) ClearIssues() {
	s.BudgetIssues = nil
	s.ScheduleIssues = nil
	s.FlightsBudgetExceeded = false
	s.TotalBudgetExceeded = false
	s.AccommodationBudgetExceeded = false
}

// Start parses StartDate.
func (s State) Start() (time.Time, bool) {
	return parseDay(s.StartDate)
}

// End parses EndDate.
func (s State) End() (time.Time, bool) {
	return parseDay(s.EndDate)
}

// Nights is the number of nights between start and end, at least 1.
func (s State) Nights() int {
	start, ok1 := s.Start()
	end, ok2 := s.End()
	if !ok1 || !ok2 {
		return 1
	}
	n := int(end.Sub(start).Hours() / 24)
	if n < 1 {
		return 1
	}
	return n
}

// Days is the inclusive day count of the trip.
func (s State) Days() int {
	return s.Nights() + 1
}

// TravelerCount returns Travelers, treating an unset value as one traveler.
func (s State) TravelerCount() int {
	if s.Travelers < 1 {
		return 1
	}
	return s.Travelers
}

func parseDay(v string) (time.Time, bool) {
	if v == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(DateLayout, v)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
