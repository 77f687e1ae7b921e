package flow

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/wayfarer/internal/gateway"
	"github.com/aretw0/wayfarer/internal/runtime"
	"github.com/aretw0/wayfarer/pkg/domain"
)

// maxPersonalized bounds a rewritten question; longer answers are discarded.
const maxPersonalized = 400

// NewPersonalizer rewrites primed questions in a warmer tone that refers
// to what the traveler already said. The base question is returned when the
// gateway is missing, fails, or answers with something unusable.
func NewPersonalizer(r *gateway.Reasoning) runtime.Personalizer {
	return func(ctx context.Context, base string, s domain.State) string {
		if !r.Available() || base == "" {
			return base
		}
		out, err := r.Complete(gateway.WithPurpose(ctx, "personalize"), personalizePrompt(base, s))
		if err != nil {
			return base
		}
		out = strings.Trim(strings.TrimSpace(out), `"`)
		if out == "" || len(out) > maxPersonalized {
			return base
		}
		return out
	}
}

func personalizePrompt(base string, s domain.State) string {
	var known []string
	add := func(label, v string) {
		if v != "" {
			known = append(known, fmt.Sprintf("%s: %s", label, v))
		}
	}
	add("origin", s.OriginCity)
	add("destination", s.DestinationCity)
	add("start date", s.StartDate)
	add("end date", s.EndDate)
	if s.Travelers > 0 {
		add("travelers", fmt.Sprint(s.Travelers))
	}
	add("budget", s.Budget)
	add("purpose", string(s.Purpose))

	trip := "nothing yet"
	if len(known) > 0 {
		trip = strings.Join(known, "; ")
	}
	return fmt.Sprintf(`You are a friendly travel assistant.
Rephrase the question below in one or two warm sentences, referring to the trip details where natural.
Keep its meaning and keep any examples it gives. Do not ask anything else.
Trip so far: %s
Question: %s
Reply with only the rephrased question.`, trip, base)
}
