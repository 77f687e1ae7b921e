package plan

import (
	"fmt"
	"strings"

	"github.com/aretw0/wayfarer/pkg/domain"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

func render(s domain.State, p domain.Plan, cats []domain.Category) string {
	var b strings.Builder
	title := cases.Title(language.English)

	fmt.Fprintf(&b, "# Your trip to %s\n\n", orDefault(s.DestinationCity, "your destination"))
	fmt.Fprintf(&b, "- **From:** %s\n", orDefault(s.OriginCity, "-"))
	fmt.Fprintf(&b, "- **To:** %s\n", orDefault(s.DestinationCity, "-"))
	if s.StartDate != "" && s.EndDate != "" {
		fmt.Fprintf(&b, "- **Dates:** %s to %s (%d nights)\n", s.StartDate, s.EndDate, s.Nights())
	}
	fmt.Fprintf(&b, "- **Travelers:** %d\n", s.TravelerCount())
	fmt.Fprintf(&b, "- **Budget:** %s\n", orDefault(s.Budget, "flexible"))
	if s.Purpose != "" {
		fmt.Fprintf(&b, "- **Purpose:** %s\n", title.String(string(s.Purpose)))
	}
	if s.Interests != "" {
		fmt.Fprintf(&b, "- **Interests:** %s\n", s.Interests)
	}
	fmt.Fprintf(&b, "- **Getting there:** %s\n", s.TransportationType)

	if a := s.BudgetAllocation; a != nil {
		b.WriteString("\n## Budget breakdown\n\n| Category | Amount |\n|---|---:|\n")
		fmt.Fprintf(&b, "| Transportation | $%.2f |\n", a.Transportation)
		fmt.Fprintf(&b, "| Accommodation | $%.2f |\n", a.Accommodation)
		fmt.Fprintf(&b, "| Food | $%.2f |\n", a.Food)
		fmt.Fprintf(&b, "| Activities | $%.2f |\n", a.Activities)
		fmt.Fprintf(&b, "| Contingency | $%.2f |\n", a.Contingency)
	}

	for _, c := range cats {
		fmt.Fprintf(&b, "\n## %s\n\n%s\n", title.String(c.Label(s.TransportationType)), p.Options[c])
	}
	if len(cats) == 0 {
		b.WriteString("\n## Options\n\nNo live search results were available, so use the itinerary and notes below as a starting point.\n")
	}

	if len(p.Itinerary) > 0 {
		b.WriteString("\n## Day-by-day itinerary\n")
		for _, d := range p.Itinerary {
			fmt.Fprintf(&b, "\n### Day %d", d.Day)
			if d.Date != "" {
				fmt.Fprintf(&b, " (%s)", d.Date)
			}
			if d.Title != "" {
				fmt.Fprintf(&b, ": %s", d.Title)
			}
			b.WriteString("\n")
			if d.Details != "" {
				fmt.Fprintf(&b, "\n%s\n", d.Details)
			}
		}
	} else {
		fmt.Fprintf(&b, "\n## Itinerary\n\nPlan %d day(s) in %s: arrive and settle in, spend the middle days on what matters most to you, and leave time for the trip home.\n",
			s.Days(), orDefault(s.DestinationCity, "your destination"))
	}

	if len(p.Notes) > 0 {
		b.WriteString("\n## Notes\n\n")
		for _, n := range p.Notes {
			fmt.Fprintf(&b, "- %s\n", n)
		}
	}

	b.WriteString("\nSay \"start over\" to plan another trip.\n")
	return b.String()
}
