package flow

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/aretw0/wayfarer/internal/gateway"
	"github.com/aretw0/wayfarer/internal/llmjson"
	"github.com/aretw0/wayfarer/pkg/domain"
	"github.com/samber/lo"
)

var categoryKeywords = map[domain.Category]*regexp.Regexp{
	domain.CategoryTransportation: regexp.MustCompile(`(?i)\b(flights?|fly|flying|planes?|air(fare|line)?s?|transport(ation)?|bus(es)?|coach(es)?|trains?|getting there)\b`),
	domain.CategoryAccommodation:  regexp.MustCompile(`(?i)\b(hotels?|accommodations?|lodging|stays?|airbnbs?|hostels?|rooms?|motels?|resorts?|place to stay)\b`),
	domain.CategoryActivities:     regexp.MustCompile(`(?i)\b(activit(y|ies)|things to do|sightseeing|attractions?|tours?|museums?|restaurants?|events?|excursions?)\b`),
}

var (
	everythingRe = regexp.MustCompile(`(?i)\b(everything|all of (it|them)|all three|the works|full plan)\b`)
	busRe        = regexp.MustCompile(`(?i)\b(bus(es)?|coach(es)?)\b`)
	interestsRe  = regexp.MustCompile(`(?i)\b(?:interested in|interests? (?:are|include)|i (?:love|like|enjoy)|we (?:love|like|enjoy)|into)\s+(.+)$`)
)

type intent struct {
	categories []domain.Category
	interests  string
	buses      bool
}

// llmIntent is the structure the reasoning gateway is asked to return.
type llmIntent struct {
	Categories     []string `json:"categories"`
	Interests      string   `json:"interests"`
	Transportation string   `json:"transportation_type"`
}

// classifyIntent reads which categories the user wants planned. The
// reasoning gateway is tried first, then keywords; when nothing is
// recognized every category is planned.
func (p *planner) classifyIntent(ctx context.Context, text string) intent {
	if p.reasoning.Available() {
		out, err := p.reasoning.Complete(gateway.WithPurpose(ctx, "classify_intent"), intentPrompt(text))
		if err == nil {
			if in, ok := fromLLMIntent(out); ok {
				in.buses = in.buses || busRe.MatchString(text)
				return in
			}
		}
		p.logger.Debug("Intent classification fell back to keywords", "err", err)
	}
	return keywordIntent(text)
}

func intentPrompt(text string) string {
	return fmt.Sprintf(`A traveler was asked what they want help planning.
Classify the answer into any of: transportation, accommodation, activities.
Extract any interests they mention (for example museums, hiking, food) as free text.
Set transportation_type to "buses" if they want to travel by bus, otherwise "flights".
Reply with only a JSON object matching this schema: %s
Answer: %q`, llmjson.Schema(llmIntent{}), text)
}

func fromLLMIntent(text string) (intent, bool) {
	var raw llmIntent
	if err := llmjson.Decode(text, &raw); err != nil {
		return intent{}, false
	}
	picked := lo.Uniq(lo.FilterMap(raw.Categories, func(c string, _ int) (domain.Category, bool) {
		return categoryOf(c)
	}))
	if len(picked) == 0 {
		return intent{}, false
	}
	return intent{
		categories: canonical(picked),
		interests:  strings.TrimSpace(raw.Interests),
		buses:      strings.EqualFold(strings.TrimSpace(raw.Transportation), string(domain.TransportBuses)),
	}, true
}

// categoryOf maps a model-supplied label to a category.
func categoryOf(label string) (domain.Category, bool) {
	c := domain.Category(strings.ToLower(strings.TrimSpace(label)))
	if c.Valid() {
		return c, true
	}
	for _, cat := range domain.AllCategories {
		if categoryKeywords[cat].MatchString(string(c)) {
			return cat, true
		}
	}
	return "", false
}

func keywordIntent(text string) intent {
	in := intent{buses: busRe.MatchString(text)}
	if m := interestsRe.FindStringSubmatch(text); m != nil {
		in.interests = strings.TrimRight(strings.TrimSpace(m[1]), ".!")
	}
	if everythingRe.MatchString(text) {
		in.categories = canonical(domain.AllCategories)
		return in
	}
	in.categories = lo.Filter(domain.AllCategories, func(c domain.Category, _ int) bool {
		return categoryKeywords[c].MatchString(text)
	})
	if len(in.categories) == 0 {
		in.categories = canonical(domain.AllCategories)
	}
	return in
}

// canonical orders categories as AllCategories does and returns a fresh slice.
func canonical(cs []domain.Category) []domain.Category {
	return lo.Filter(domain.AllCategories, func(c domain.Category, _ int) bool {
		return lo.Contains(cs, c)
	})
}
