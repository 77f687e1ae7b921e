// Package calendar exports a finished trip plan as an iCalendar document.
package calendar

import (
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/aretw0/wayfarer/pkg/domain"
)

// ProductID identifies the generator in exported documents.
const ProductID = "-//wayfarer//trip planner//EN"

// Export renders one all-day event per itinerary day. sessionID keeps event
// UIDs stable across exports of the same session. now stamps the events.
func Export(sessionID string, s domain.State, now time.Time) (string, error) {
	if s.Plan == nil || len(s.Plan.Itinerary) == 0 {
		return "", domain.ErrNoItinerary
	}
	start, dated := s.Start()

	cal := ics.NewCalendar()
	cal.SetProductId(ProductID)
	cal.SetMethod(ics.MethodPublish)
	cal.SetXWRCalName(title(s))

	for _, day := range s.Plan.Itinerary {
		date, ok := dayDate(day, start, dated)
		if !ok {
			return "", fmt.Errorf("day %d: %w", day.Day, domain.ErrNoItinerary)
		}
		ev := cal.AddEvent(fmt.Sprintf("%s-day-%d@wayfarer", sessionID, day.Day))
		ev.SetDtStampTime(now.UTC())
		ev.SetAllDayStartAt(date)
		ev.SetAllDayEndAt(date.AddDate(0, 0, 1))
		ev.SetSummary(fmt.Sprintf("Day %d: %s", day.Day, day.Title))
		if details := strings.TrimSpace(day.Details); details != "" {
			ev.SetDescription(details)
		}
		if s.DestinationCity != "" {
			ev.SetLocation(s.DestinationCity)
		}
	}
	return cal.Serialize(), nil
}

func dayDate(day domain.DayPlan, start time.Time, dated bool) (time.Time, bool) {
	if day.Date != "" {
		if d, err := time.Parse(domain.DateLayout, day.Date); err == nil {
			return d, true
		}
	}
	if !dated || day.Day < 1 {
		return time.Time{}, false
	}
	return start.AddDate(0, 0, day.Day-1), true
}

func title(s domain.State) string {
	if s.DestinationCity == "" {
		return "Trip"
	}
	return "Trip to " + s.DestinationCity
}
