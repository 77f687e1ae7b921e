package flow

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/aretw0/wayfarer/internal/budget"
	"github.com/aretw0/wayfarer/internal/runtime"
	"github.com/aretw0/wayfarer/pkg/domain"
)

// Handler commands, matched on word boundaries in this order.
var (
	cmdBus         = regexp.MustCompile(`(?i)\b(bus(es)?|yes)\b`)
	cmdContinue    = regexp.MustCompile(`(?i)\b(continue|ok(ay)?|fine)\b`)
	cmdAdjustDates = regexp.MustCompile(`(?i)\b(adjust|change (the )?dates?)\b`)
	cmdBudget      = regexp.MustCompile(`(?i)\bbudget\b`)
	cmdPreferences = regexp.MustCompile(`(?i)\bchange (my )?preferences?\b`)

	menuIndexRe = regexp.MustCompile(`^([1-9])\.?$`)
)

// Replies a menu option stands for.
const (
	replyBudget      = "budget"
	replyBus         = "bus"
	replyPreferences = "change preferences"
	replyContinue    = "continue"
	replyDates       = "adjust dates"
)

type menuOption struct {
	text  string
	reply string
}

// handleIssues presents validation issues once and then acts on the
// user's choice.
func (p *planner) handleIssues(_ context.Context, s domain.State) (runtime.Result, error) {
	if !s.ValidationMessageShown {
		s.ValidationMessageShown = true
		s.ResponseMessage = issueSummary(s)
		return runtime.Result{State: s, Hold: true}, nil
	}

	in := strings.TrimSpace(s.LastUserInput)
	if in == "" {
		s.ResponseMessage = ""
		return runtime.Result{State: s, Hold: true}, nil
	}

	// A bare option number picks that menu entry.
	if m := menuIndexRe.FindStringSubmatch(in); m != nil {
		opts := menu(s)
		i := int(m[1][0] - '1')
		if i >= len(opts) {
			s.ResponseMessage = fmt.Sprintf("Please pick an option between 1 and %d.", len(opts))
			return runtime.Result{State: s, Hold: true}, nil
		}
		in = opts[i].reply
	}

	transportOrTotal := s.FlightsBudgetExceeded || s.TotalBudgetExceeded
	switch {
	case transportOrTotal && cmdBus.MatchString(in):
		return p.searchAgain(s, func(s *domain.State) {
			s.TransportationType = domain.TransportBuses
		})

	case cmdContinue.MatchString(in):
		s.ClearIssues()
		return runtime.Result{State: s, Next: domain.NodeGeneratePlan}, nil

	case cmdAdjustDates.MatchString(in):
		s.StartDate = ""
		s.EndDate = ""
		s.ClearSearch()
		s.ValidationMessageShown = false
		return runtime.Result{State: s, Next: domain.NodeAskStartDate}, nil
	}

	if amount, ok := budget.ParseAmount(in); ok {
		return p.searchAgain(s, func(s *domain.State) {
			s.Budget = in
			s.BudgetAmount = amount
			s.BudgetFlexible = false
		})
	}
	if cmdBudget.MatchString(in) {
		s.ClearSearch()
		s.ValidationMessageShown = false
		s.Budget = ""
		s.BudgetAmount = 0
		return runtime.Result{State: s, Next: domain.NodeAskBudget}, nil
	}
	if cmdPreferences.MatchString(in) {
		s.PlanningType = nil
		s.Interests = ""
		s.ClearSearch()
		s.ValidationMessageShown = false
		return runtime.Result{State: s, Next: domain.NodeAskPlanningType}, nil
	}

	return runtime.Result{State: s, Next: domain.NodeGeneratePlan}, nil
}

// searchAgain applies change, clears the previous generation and routes
// back to search. Once the retry cap is reached the state is left as is,
// so the plan matches the results it is built from.
func (p *planner) searchAgain(s domain.State, change func(*domain.State)) (runtime.Result, error) {
	if s.SearchRetryCount >= p.maxRetries {
		p.logger.Info("Search retry limit reached", "retries", s.SearchRetryCount)
		return runtime.Result{State: s, Next: domain.NodeGeneratePlan}, nil
	}
	change(&s)
	s.SearchRetryCount++
	s.ClearSearch()
	s.ValidationMessageShown = false
	return runtime.Result{State: s, Next: domain.NodeSearch}, nil
}

// issueSummary lists the open issues followed by a menu that depends on
// which budget was exceeded.
func issueSummary(s domain.State) string {
	var b strings.Builder
	b.WriteString("I found a few things to sort out before building your plan.\n")
	if len(s.ScheduleIssues) > 0 {
		b.WriteString("\nSchedule:\n")
		for _, issue := range s.ScheduleIssues {
			fmt.Fprintf(&b, "- %s\n", issue)
		}
	}
	if len(s.BudgetIssues) > 0 {
		b.WriteString("\nBudget:\n")
		for _, issue := range s.BudgetIssues {
			fmt.Fprintf(&b, "- %s\n", issue)
		}
	}

	b.WriteString("\nWhat would you like to do?\n")
	for i, opt := range menu(s) {
		fmt.Fprintf(&b, "%d. %s\n", i+1, opt.text)
	}
	return strings.TrimRight(b.String(), "\n")
}

func menu(s domain.State) []menuOption {
	var (
		increase = menuOption{`Increase your budget (reply with a new amount, e.g. "$3000")`, replyBudget}
		buses    = menuOption{`Switch to buses (reply "bus")`, replyBus}
		prefs    = menuOption{`Change what I plan (reply "change preferences")`, replyPreferences}
		proceed  = menuOption{`Continue as-is (reply "continue")`, replyContinue}
		dates    = menuOption{`Adjust your dates (reply "adjust dates")`, replyDates}
	)
	onFlights := s.TransportationType != domain.TransportBuses
	switch {
	case s.TotalBudgetExceeded:
		if onFlights {
			return []menuOption{increase, buses, prefs}
		}
		return []menuOption{increase, prefs, proceed}
	case s.FlightsBudgetExceeded:
		if onFlights {
			return []menuOption{buses, increase, proceed}
		}
		return []menuOption{increase, proceed}
	case len(s.BudgetIssues) == 0 && len(s.ScheduleIssues) > 0:
		return []menuOption{dates, proceed}
	}
	return []menuOption{increase, proceed}
}
