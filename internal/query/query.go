// Package query turns the collected trip parameters into search queries.
//
// Every builder is pure: the same state and sub-budget always yield the
// same query text and configuration. Queries are compacted to stay under
// MaxLength characters, the search provider's limit.
package query

import (
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/wayfarer/pkg/domain"
)

// MaxLength is the exclusive upper bound on query length.
const MaxLength = 400

// maxInterests caps the free-text interests folded into a query.
const maxInterests = 120

// Query is a ready-to-send search request.
type Query struct {
	Category domain.Category
	Text     string
	Config   domain.SearchConfig
}

// Build returns the query for category c with the given sub-budget.
func Build(c domain.Category, s domain.State, subBudget float64) Query {
	switch c {
	case domain.CategoryTransportation:
		return Transportation(s, subBudget)
	case domain.CategoryAccommodation:
		return Accommodation(s, subBudget)
	default:
		return Activities(s, subBudget)
	}
}

// Transportation searches for flights or buses between the two cities.
// The sub-budget is split per traveler.
func Transportation(s domain.State, subBudget float64) Query {
	perPerson := subBudget / float64(s.TravelerCount())
	var text string
	if s.TransportationType == domain.TransportBuses {
		text = fmt.Sprintf("bus tickets from %s to %s departing %s returning %s for %d passengers under $%.0f per person",
			s.OriginCity, s.DestinationCity, dateText(s.StartDate), dateText(s.EndDate), s.TravelerCount(), perPerson)
	} else {
		text = fmt.Sprintf("cheap round trip flights from %s to %s departing %s returning %s for %d passengers under $%.0f per person",
			s.OriginCity, s.DestinationCity, dateText(s.StartDate), dateText(s.EndDate), s.TravelerCount(), perPerson)
	}
	return Query{
		Category: domain.CategoryTransportation,
		Text:     Compact(text),
		Config:   domain.SearchConfig{MaxResults: 5, SearchDepth: "advanced"},
	}
}

// Accommodation searches for lodging sized to the per-night sub-budget.
func Accommodation(s domain.State, subBudget float64) Query {
	perNight := subBudget / float64(s.Nights())
	kind := "family friendly hotels"
	if s.Purpose == domain.PurposeBusiness {
		kind = "business hotels near downtown"
	} else if s.TravelerCount() == 1 {
		kind = "best rated hotels"
	}
	text := fmt.Sprintf("%s in %s from %s to %s for %d guests under $%.0f per night",
		kind, s.DestinationCity, dateText(s.StartDate), dateText(s.EndDate), s.TravelerCount(), perNight)
	return Query{
		Category: domain.CategoryAccommodation,
		Text:     Compact(text),
		Config:   domain.SearchConfig{MaxResults: 5, SearchDepth: "advanced"},
	}
}

// Activities searches for things to do, folding in the user's interests.
func Activities(s domain.State, subBudget float64) Query {
	var b strings.Builder
	fmt.Fprintf(&b, "top things to do in %s", s.DestinationCity)
	if month := monthOf(s.StartDate); month != "" {
		fmt.Fprintf(&b, " in %s", month)
	}
	if interests := truncate(strings.TrimSpace(s.Interests), maxInterests); interests != "" {
		fmt.Fprintf(&b, " for travelers interested in %s", interests)
	}
	if s.Purpose == domain.PurposeBusiness {
		b.WriteString(" near the business district for evenings")
	}
	if subBudget > 0 {
		fmt.Fprintf(&b, " with tickets under $%.0f per person", subBudget/float64(s.TravelerCount()))
	}
	return Query{
		Category: domain.CategoryActivities,
		Text:     Compact(b.String()),
		Config:   domain.SearchConfig{MaxResults: 8, SearchDepth: "basic"},
	}
}

// Compact collapses whitespace and truncates at a word boundary so the
// result is shorter than MaxLength.
func Compact(q string) string {
	return truncate(strings.Join(strings.Fields(q), " "), MaxLength-1)
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := s[:limit]
	if i := strings.LastIndexByte(cut, ' '); i > limit/2 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,")
}

func dateText(iso string) string {
	t, err := time.Parse(domain.DateLayout, iso)
	if err != nil {
		return "flexible dates"
	}
	return t.Format("January 2 2006")
}

func monthOf(iso string) string {
	t, err := time.Parse(domain.DateLayout, iso)
	if err != nil {
		return ""
	}
	return t.Format("January")
}
