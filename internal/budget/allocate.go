// Package budget splits a trip budget across transportation, accommodation,
// food, activities and contingency.
package budget

import (
	"context"
	"fmt"
	"math"

	"github.com/aretw0/wayfarer/internal/gateway"
	"github.com/aretw0/wayfarer/internal/llmjson"
	"github.com/aretw0/wayfarer/pkg/domain"
	"github.com/aretw0/wayfarer/pkg/ports"
)

// Tolerance is the largest accepted difference between the split and the total.
const Tolerance = 0.01

// acceptDrift is how far a model-proposed split may miss the total before
// it is discarded rather than rescaled.
const acceptDrift = 0.02

// Source tells which path produced an allocation.
type Source string

const (
	SourceReasoning Source = "reasoning"
	SourceFallback  Source = "fallback"
)

// Request carries the trip parameters relevant to the split.
type Request struct {
	Total       float64
	Nights      int
	Travelers   int
	Mode        domain.TransportMode
	Destination string
}

type proposal struct {
	Transportation float64 `json:"transportation"`
	Accommodation  float64 `json:"accommodation"`
	Food           float64 `json:"food"`
	Activities     float64 `json:"activities"`
	Contingency    float64 `json:"contingency"`
}

// Allocate asks the reasoning gateway for a split and falls back to the
// fixed formula when the call fails or the answer does not add up.
// A non-positive total is replaced by DefaultTotal.
func Allocate(ctx context.Context, gw ports.ReasoningGateway, req Request) (domain.BudgetAllocation, Source) {
	if req.Total <= 0 {
		req.Total = DefaultTotal
	}
	if gw != nil {
		text, err := gw.Complete(gateway.WithPurpose(ctx, "allocate_budget"), prompt(req))
		if err == nil {
			if a, ok := fromProposal(text, req.Total); ok {
				return a, SourceReasoning
			}
		}
	}
	return Fallback(req.Total, req.Mode), SourceFallback
}

func prompt(req Request) string {
	transport := "flights 35-45%"
	if req.Mode == domain.TransportBuses {
		transport = "buses 10-15%"
	}
	return fmt.Sprintf(`You are a travel budget planner.
Split a total budget of $%.2f for a %d-night trip to %s for %d traveler(s) travelling by %s.
Guidance: transportation (%s), accommodation 25-35%%, food 20-25%%, activities 15-20%%, contingency 5-10%%.
The five amounts MUST add up exactly to %.2f and none may be negative.
Reply with only a JSON object matching this schema: %s`,
		req.Total, max(req.Nights, 1), orUnknown(req.Destination), max(req.Travelers, 1), req.Mode,
		transport, req.Total, llmjson.Schema(proposal{}))
}

func orUnknown(s string) string {
	if s == "" {
		return "the destination"
	}
	return s
}

func fromProposal(text string, total float64) (domain.BudgetAllocation, bool) {
	var p proposal
	if err := llmjson.Decode(text, &p); err != nil {
		return domain.BudgetAllocation{}, false
	}
	a := domain.BudgetAllocation(p)
	for _, v := range []float64{a.Transportation, a.Accommodation, a.Food, a.Activities, a.Contingency} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return domain.BudgetAllocation{}, false
		}
	}
	sum := a.Total()
	if sum <= 0 || math.Abs(sum-total)/total > acceptDrift {
		return domain.BudgetAllocation{}, false
	}
	scale := total / sum
	return balance(total, []float64{
		a.Transportation * scale,
		a.Accommodation * scale,
		a.Food * scale,
		a.Activities * scale,
	}), true
}

// Fallback is the deterministic split: transportation 40% for flights or
// 12% for buses, accommodation 30%, food 20%, activities 8%, contingency 2%.
// With buses the unused transportation share is spread over the other
// categories in proportion to their base weights.
func Fallback(total float64, mode domain.TransportMode) domain.BudgetAllocation {
	transport := 0.40
	if mode == domain.TransportBuses {
		transport = 0.12
	}
	rest := []float64{0.30, 0.20, 0.08, 0.02}
	restSum := 0.60
	scale := (1 - transport) / restSum

	return balance(total, []float64{
		total * transport,
		total * rest[0] * scale,
		total * rest[1] * scale,
		total * rest[2] * scale,
	})
}

// balance rounds the first four amounts to cents and assigns the remainder
// to contingency, so the split sums to total exactly.
func balance(total float64, first4 []float64) domain.BudgetAllocation {
	for i, v := range first4 {
		first4[i] = cents(v)
	}
	a := domain.BudgetAllocation{
		Transportation: first4[0],
		Accommodation:  first4[1],
		Food:           first4[2],
		Activities:     first4[3],
	}
	a.Contingency = cents(total - (a.Transportation + a.Accommodation + a.Food + a.Activities))
	if a.Contingency < 0 {
		// Rounding overshoot of a cent or two; take it back from transportation.
		a.Transportation = cents(a.Transportation + a.Contingency)
		a.Contingency = 0
	}
	return a
}

func cents(v float64) float64 {
	return math.Round(v*100) / 100
}
