package validation

import (
	"fmt"
	"strings"

	"github.com/aretw0/wayfarer/pkg/domain"
)

// Issue prefixes. Callers identify issue kinds by prefix, never by position.
const (
	PrefixTotal         = "Total budget exceeded"
	PrefixFlights       = "Flights budget exceeded"
	PrefixBus           = "Bus budget exceeded"
	PrefixAccommodation = "Accommodation budget exceeded"
	PrefixSchedule      = "Schedule conflict"
	PrefixSearch        = "Search unavailable"
)

// Thresholds as a share of the total budget.
const (
	TransportShare     = 0.40
	AccommodationShare = 0.50
	// MinDaysForMultiDay is the shortest trip that fits multi-day activities.
	MinDaysForMultiDay = 3
)

// IsTotalIssue reports whether issue is a total-budget-exceeded issue.
func IsTotalIssue(issue string) bool {
	return strings.HasPrefix(issue, PrefixTotal)
}

// IsTransportIssue reports whether issue flags the transportation sub-budget.
func IsTransportIssue(issue string) bool {
	return strings.HasPrefix(issue, PrefixFlights) || strings.HasPrefix(issue, PrefixBus)
}

func totalIssue(estimate, total float64) string {
	return fmt.Sprintf("%s: the estimated trip cost of $%.0f is over your $%.0f budget.", PrefixTotal, estimate, total)
}

func transportIssue(mode domain.TransportMode, estimate, total float64) string {
	prefix := PrefixFlights
	if mode == domain.TransportBuses {
		prefix = PrefixBus
	}
	return fmt.Sprintf("%s: estimated transportation of $%.0f is more than %.0f%% of your budget ($%.0f).",
		prefix, estimate, TransportShare*100, total*TransportShare)
}

func accommodationIssue(estimate float64, nights int, total float64) string {
	return fmt.Sprintf("%s: estimated lodging of $%.0f for %d night(s) is more than %.0f%% of your budget ($%.0f).",
		PrefixAccommodation, estimate, nights, AccommodationShare*100, total*AccommodationShare)
}

func scheduleIssue(example string, days int) string {
	return fmt.Sprintf("%s: some activities need a multi-day commitment (%q) but your trip is only %d day(s).",
		PrefixSchedule, example, days)
}

// SearchFailureIssue is the synthetic issue recorded when the search step fails.
func SearchFailureIssue(err error) string {
	return fmt.Sprintf("%s: %v. The plan below uses general guidance instead of live results.", PrefixSearch, err)
}
