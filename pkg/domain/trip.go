package domain

import "math"

// Purpose is the reason for the trip.
type Purpose string

const (
	PurposeBusiness Purpose = "business"
	PurposeVacation Purpose = "vacation"
)

// TransportMode selects how the traveler gets to the destination.
type TransportMode string

const (
	TransportFlights TransportMode = "flights"
	TransportBuses   TransportMode = "buses"
)

// Category is one of the three things the planner can search for.
type Category string

const (
	CategoryTransportation Category = "transportation"
	CategoryAccommodation  Category = "accommodation"
	CategoryActivities     Category = "activities"
)

// AllCategories lists categories in their canonical order.
var AllCategories = []Category{CategoryTransportation, CategoryAccommodation, CategoryActivities}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryTransportation, CategoryAccommodation, CategoryActivities:
		return true
	}
	return false
}

// Label is the human-facing name of the category for a given mode.
func (c Category) Label(mode TransportMode) string {
	switch c {
	case CategoryTransportation:
		if mode == TransportBuses {
			return "buses"
		}
		return "flights"
	case CategoryAccommodation:
		return "hotels"
	case CategoryActivities:
		return "activities"
	}
	return string(c)
}

// SearchResult is a single hit from the search gateway.
type SearchResult struct {
	Title   string  `json:"title"`
	Content string  `json:"content"`
	URL     string  `json:"url"`
	Score   float64 `json:"score,omitempty"`
}

// SearchConfig tunes a single search gateway call.
type SearchConfig struct {
	MaxResults    int    `json:"max_results"`
	SearchDepth   string `json:"search_depth"`
	IncludeAnswer bool   `json:"include_answer"`
}

// BudgetAllocation splits the total budget across five categories.
type BudgetAllocation struct {
	Transportation float64 `json:"transportation"`
	Accommodation  float64 `json:"accommodation"`
	Food           float64 `json:"food"`
	Activities     float64 `json:"activities"`
	Contingency    float64 `json:"contingency"`
}

// Total sums the five amounts.
func (a BudgetAllocation) Total() float64 {
	return a.Transportation + a.Accommodation + a.Food + a.Activities + a.Contingency
}

// Balanced reports whether the split sums to total within tolerance.
func (a BudgetAllocation) Balanced(total, tolerance float64) bool {
	return math.Abs(a.Total()-total) <= tolerance
}

// For returns the sub-budget matching a search category.
func (a BudgetAllocation) For(c Category) float64 {
	switch c {
	case CategoryTransportation:
		return a.Transportation
	case CategoryAccommodation:
		return a.Accommodation
	case CategoryActivities:
		return a.Activities
	}
	return 0
}

// DayPlan is one day of the synthesized itinerary.
type DayPlan struct {
	Day     int    `json:"day"`
	Date    string `json:"date,omitempty"`
	Title   string `json:"title"`
	Details string `json:"details"`
}

// Plan is the final report assembled by the terminal node.
type Plan struct {
	Markdown  string              `json:"markdown"`
	Options   map[Category]string `json:"options,omitempty"`
	Itinerary []DayPlan           `json:"itinerary,omitempty"`
	Notes     []string            `json:"notes,omitempty"`
}

func (p Plan) clone() Plan {
	c := p
	if p.Options != nil {
		c.Options = make(map[Category]string, len(p.Options))
		for k, v := range p.Options {
			c.Options[k] = v
		}
	}
	c.Itinerary = cloneSlice(p.Itinerary)
	c.Notes = cloneSlice(p.Notes)
	return c
}

// Reply is what a caller receives for one processed message.
type Reply struct {
	Text      string `json:"reply"`
	Searching bool   `json:"is_searching"`
	Complete  bool   `json:"complete"`
	Node      string `json:"node"`
}
