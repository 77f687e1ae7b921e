package flow

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/aretw0/wayfarer/internal/budget"
	"github.com/aretw0/wayfarer/internal/runtime"
	"github.com/aretw0/wayfarer/pkg/domain"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Questions asked by the ask nodes when they are primed.
const (
	QuestionOrigin       = "Where are you traveling from?"
	QuestionDestination  = "Where would you like to go?"
	QuestionStartDate    = "When does your trip start? (for example: March 16)"
	QuestionEndDate      = "And when will you be heading home?"
	QuestionTravelers    = "How many people are traveling?"
	QuestionBudget       = "What's your total budget for the trip? (for example: $2000, 1500 dollars, or flexible)"
	QuestionPurpose      = "Is this trip for business or vacation?"
	QuestionPlanningType = "What would you like me to plan: flights, hotels, activities, or everything? Feel free to mention your interests too."
)

const (
	// MinTravelers and MaxTravelers bound an accepted traveler count.
	MinTravelers = 1
	MaxTravelers = 50
	// LowBudget is the amount under which the user is asked to confirm.
	LowBudget = 100.0
	// MaxTripDays is the longest accepted trip.
	MaxTripDays = 365
)

var (
	cityRe     = regexp.MustCompile(`^[\p{L}][\p{L}\s.'’,-]*$`)
	spaceRe    = regexp.MustCompile(`\s+`)
	digitsRe   = regexp.MustCompile(`-?\d+`)
	numberWord = regexp.MustCompile(`(?i)\b(one|two|three|four|five|six|seven|eight|nine|ten)\b`)

	businessRe = regexp.MustCompile(`(?i)\b(business|work|conference|meetings?|client|corporate|job|offsite)\b`)
	vacationRe = regexp.MustCompile(`(?i)\b(vacation|holidays?|leisure|pleasure|fun|tourism|sightseeing|relax(ing|ation)?|honeymoon|getaway|personal)\b`)
)

var wordValues = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
}

func ask(s domain.State, question string) (runtime.Result, error) {
	s.ResponseMessage = question
	return runtime.Result{State: s}, nil
}

// reject keeps the node active and re-asks with a short explanation.
func reject(s domain.State, reason, followUp string) (runtime.Result, error) {
	s.ValidationError = reason
	s.ResponseMessage = reason + " " + followUp
	return runtime.Result{State: s}, nil
}

func accept(s domain.State) (runtime.Result, error) {
	s.ResponseMessage = ""
	return runtime.Result{State: s}, nil
}

// normalizeCity trims, collapses whitespace and title-cases a city name.
// It returns false when the text cannot be a city.
func normalizeCity(text string) (string, bool) {
	city := spaceRe.ReplaceAllString(strings.TrimSpace(text), " ")
	city = strings.Trim(city, " ,")
	if len([]rune(city)) < 2 || !cityRe.MatchString(city) {
		return "", false
	}
	return cases.Title(language.English, cases.NoLower).String(city), true
}

func (p *planner) askOrigin(_ context.Context, s domain.State) (runtime.Result, error) {
	if s.LastUserInput == "" {
		return ask(s, QuestionOrigin)
	}
	city, ok := normalizeCity(s.LastUserInput)
	if !ok {
		return reject(s, "That doesn't look like a city name.", "Which city are you traveling from?")
	}
	s.OriginCity = city
	return accept(s)
}

func (p *planner) askDestination(_ context.Context, s domain.State) (runtime.Result, error) {
	if s.LastUserInput == "" {
		return ask(s, QuestionDestination)
	}
	city, ok := normalizeCity(s.LastUserInput)
	if !ok {
		return reject(s, "That doesn't look like a city name.", "Which city would you like to visit?")
	}
	if strings.EqualFold(city, s.OriginCity) {
		return reject(s, fmt.Sprintf("You're already in %s.", s.OriginCity), "Where would you like to go instead?")
	}
	s.DestinationCity = city
	return accept(s)
}

func (p *planner) askStartDate(ctx context.Context, s domain.State) (runtime.Result, error) {
	if s.LastUserInput == "" {
		return ask(s, QuestionStartDate)
	}
	today := p.today()
	d, ok := p.resolveDate(ctx, s.LastUserInput, today)
	if !ok {
		return reject(s, "I couldn't understand that date.", "When does your trip start? (for example: March 16 or 2027-03-16)")
	}
	if d.Before(today) {
		return reject(s, fmt.Sprintf("%s is in the past.", d.Format(domain.DateLayout)), "Please choose a start date from today onwards.")
	}
	s.StartDate = d.Format(domain.DateLayout)
	if end, ok := s.End(); ok && !end.After(d) {
		s.EndDate = ""
	}
	return accept(s)
}

func (p *planner) askEndDate(ctx context.Context, s domain.State) (runtime.Result, error) {
	if s.LastUserInput == "" {
		return ask(s, QuestionEndDate)
	}
	start, ok := s.Start()
	if !ok {
		start = p.today()
	}
	d, ok := p.resolveDate(ctx, s.LastUserInput, start)
	if !ok {
		return reject(s, "I couldn't understand that date.", "When will you be heading home? (for example: March 20)")
	}
	if !d.After(start) {
		return reject(s, "The return date must be after the start date.", fmt.Sprintf("When will you head home after %s?", start.Format(domain.DateLayout)))
	}
	if d.Sub(start).Hours()/24 > MaxTripDays {
		return reject(s, "That trip would be longer than a year.", "Please choose a return date within 365 days of the start.")
	}
	s.EndDate = d.Format(domain.DateLayout)
	return accept(s)
}

// parseTravelers reads a count from digits or the words one to ten.
func parseTravelers(text string) (int, bool) {
	if m := digitsRe.FindString(text); m != "" {
		n, err := strconv.Atoi(m)
		return n, err == nil
	}
	if m := numberWord.FindString(text); m != "" {
		return wordValues[strings.ToLower(m)], true
	}
	return 0, false
}

func (p *planner) askTravelers(_ context.Context, s domain.State) (runtime.Result, error) {
	if s.LastUserInput == "" {
		return ask(s, QuestionTravelers)
	}
	n, ok := parseTravelers(s.LastUserInput)
	switch {
	case !ok:
		return reject(s, "I need a number of travelers.", "How many people are traveling? (for example: 2 or two)")
	case n < MinTravelers:
		return reject(s, "At least one person has to travel.", QuestionTravelers)
	case n > MaxTravelers:
		return reject(s, fmt.Sprintf("%d travelers is more than I can plan for.", n), fmt.Sprintf("Please enter a number between %d and %d.", MinTravelers, MaxTravelers))
	}
	s.Travelers = n
	return accept(s)
}

func (p *planner) askBudget(_ context.Context, s domain.State) (runtime.Result, error) {
	if s.LastUserInput == "" {
		return ask(s, QuestionBudget)
	}
	text := strings.TrimSpace(s.LastUserInput)
	switch budget.Classify(text) {
	case budget.KindFlexible:
		s.Budget = text
		s.BudgetAmount = 0
		s.BudgetFlexible = true
		s.BudgetWarningShown = false
		return accept(s)
	case budget.KindAmount:
		amount, ok := budget.ParseAmount(text)
		if !ok {
			break
		}
		if amount < LowBudget && !s.BudgetWarningShown {
			s.BudgetWarningShown = true
			return reject(s, fmt.Sprintf("$%.0f is a very small budget for a trip.", amount),
				"Reply with the same amount to confirm it, or enter a different budget.")
		}
		s.Budget = text
		s.BudgetAmount = amount
		s.BudgetFlexible = false
		s.BudgetWarningShown = false
		return accept(s)
	}
	return reject(s, "I couldn't find a budget in that.", "Please give an amount such as $2000 or 1500 dollars, or say flexible.")
}

// parsePurpose maps synonyms to a purpose; the earliest mention wins.
func parsePurpose(text string) (domain.Purpose, bool) {
	b := businessRe.FindStringIndex(text)
	v := vacationRe.FindStringIndex(text)
	switch {
	case b == nil && v == nil:
		return "", false
	case v == nil:
		return domain.PurposeBusiness, true
	case b == nil:
		return domain.PurposeVacation, true
	case b[0] < v[0]:
		return domain.PurposeBusiness, true
	}
	return domain.PurposeVacation, true
}

func (p *planner) askPurpose(_ context.Context, s domain.State) (runtime.Result, error) {
	if s.LastUserInput == "" {
		return ask(s, QuestionPurpose)
	}
	purpose, ok := parsePurpose(s.LastUserInput)
	if !ok {
		return reject(s, "I didn't catch the purpose of the trip.", "Is it for business or vacation?")
	}
	s.Purpose = purpose
	return accept(s)
}

func (p *planner) askPlanningType(ctx context.Context, s domain.State) (runtime.Result, error) {
	if s.LastUserInput == "" {
		return ask(s, QuestionPlanningType)
	}
	in := p.classifyIntent(ctx, s.LastUserInput)
	s.PlanningType = in.categories
	s.Interests = in.interests
	if in.buses {
		s.TransportationType = domain.TransportBuses
	}
	return accept(s)
}
