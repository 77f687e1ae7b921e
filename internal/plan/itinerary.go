package plan

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/aretw0/wayfarer/pkg/domain"
)

var dayHeaderRe = regexp.MustCompile(`(?i)^[#*\s-]*day\s+(\d+)\b[*:.)\s-]*(.*)$`)

func (sy *Synthesizer) itinerary(ctx context.Context, s domain.State) []domain.DayPlan {
	days := s.Days()
	if text, ok := sy.complete(ctx, "itinerary", itineraryPrompt(s, days)); ok {
		if plans := ParseItinerary(text, days); len(plans) > 0 {
			return withDates(plans, s)
		}
	}
	return withDates(Generic(s), s)
}

func itineraryPrompt(s domain.State, days int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a %d-day itinerary for a %s trip to %s for %d traveler(s)",
		days, orDefault(string(s.Purpose), "leisure"), s.DestinationCity, s.TravelerCount())
	if s.StartDate != "" {
		fmt.Fprintf(&b, " starting %s", s.StartDate)
	}
	b.WriteString(".\n")
	if s.Interests != "" {
		fmt.Fprintf(&b, "Interests: %s.\n", s.Interests)
	}
	b.WriteString("Use these search findings where they fit:\n")
	for _, c := range domain.AllCategories {
		for _, r := range s.Results(c) {
			fmt.Fprintf(&b, "- (%s) %s: %s\n", c, r.Title, excerpt(r.Content, 200))
		}
	}
	fmt.Fprintf(&b, `Format every day as a line "Day N: short title" followed by one or two lines of details.
Cover days 1 to %d and nothing else.`, days)
	return b.String()
}

// ParseItinerary reads "Day N: title" blocks from free text. Days outside
// 1..maxDays and repeated day numbers are dropped.
func ParseItinerary(text string, maxDays int) []domain.DayPlan {
	var (
		out  []domain.DayPlan
		cur  *domain.DayPlan
		seen = make(map[int]bool)
	)
	flush := func() {
		if cur != nil {
			cur.Details = strings.TrimSpace(cur.Details)
			out = append(out, *cur)
			cur = nil
		}
	}
	for _, line := range strings.Split(text, "\n") {
		if m := dayHeaderRe.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			flush()
			n, _ := strconv.Atoi(m[1])
			if n < 1 || n > maxDays || seen[n] {
				continue
			}
			seen[n] = true
			cur = &domain.DayPlan{Day: n, Title: strings.Trim(strings.TrimSpace(m[2]), "*")}
			continue
		}
		if cur != nil && strings.TrimSpace(line) != "" {
			cur.Details += strings.TrimSpace(line) + "\n"
		}
	}
	flush()
	return out
}

// Generic is the itinerary used when no model-written one is available.
func Generic(s domain.State) []domain.DayPlan {
	days := s.Days()
	dest := orDefault(s.DestinationCity, "your destination")
	plans := make([]domain.DayPlan, 0, days)
	for d := 1; d <= days; d++ {
		var p domain.DayPlan
		switch {
		case d == 1:
			p = domain.DayPlan{Title: "Arrival", Details: fmt.Sprintf("Travel to %s, check in and get to know the neighborhood.", dest)}
		case d == days:
			p = domain.DayPlan{Title: "Departure", Details: fmt.Sprintf("Check out and travel home from %s.", dest)}
		case s.Purpose == domain.PurposeBusiness:
			p = domain.DayPlan{Title: "Work day", Details: "Meetings during the day; dinner near your hotel."}
		default:
			p = domain.DayPlan{Title: "Explore", Details: fmt.Sprintf("Visit the highlights of %s and try the local food.", dest)}
		}
		p.Day = d
		plans = append(plans, p)
	}
	return plans
}

func withDates(plans []domain.DayPlan, s domain.State) []domain.DayPlan {
	start, ok := s.Start()
	if !ok {
		return plans
	}
	for i := range plans {
		plans[i].Date = start.AddDate(0, 0, plans[i].Day-1).Format(domain.DateLayout)
	}
	return plans
}
