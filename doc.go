/*
Package wayfarer is a conversational trip planner built as a state machine.

It collects the parameters of a trip one question at a time (origin,
destination, dates, travelers, budget, purpose and what to plan), searches
the web for transportation, lodging and activities, checks the results
against the budget and the calendar, and writes a day-by-day plan.

# Architecture

The conversation is a fixed graph of nodes driven by an engine. Each turn
runs the active node against the user's message, resolves the outgoing
edge and primes the next node so the reply already contains its question.
Validation problems found after search send the conversation to a handler
node that can switch transport, raise the budget, shorten the trip or go
ahead anyway.

External systems sit behind two ports:

  - ports.ReasoningGateway completes prompts (parsing, intent, allocation,
    itinerary writing). Every use has a deterministic local fallback.
  - ports.SearchGateway runs web searches.

Sessions are stored through ports.SessionStore and serialized per session,
optionally across processes with a ports.DistributedLocker.

# Usage

	planner, err := wayfarer.New(
		wayfarer.WithReasoning(reasoning),
		wayfarer.WithSearch(search),
	)
	if err != nil {
		log.Fatal(err)
	}

	id := wayfarer.NewSessionID()
	reply, err := planner.ProcessInput(ctx, id, "Dallas")
	fmt.Println(reply.Text)

A reply with Searching set means the next message ("continue") will show
the plan or the validation menu.
*/
package wayfarer
