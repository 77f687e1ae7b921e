package runtime_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aretw0/wayfarer/internal/runtime"
	"github.com/aretw0/wayfarer/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ask builds a question node that accepts anything but "bad".
func ask(question string, set func(*domain.State, string)) runtime.NodeFunc {
	return func(_ context.Context, s domain.State) (runtime.Result, error) {
		if s.LastUserInput == "" {
			s.ResponseMessage = question
			return runtime.Result{State: s}, nil
		}
		if s.LastUserInput == "bad" {
			s.ValidationError = "invalid"
			s.ResponseMessage = "Try again: " + question
			return runtime.Result{State: s}, nil
		}
		set(&s, s.LastUserInput)
		return runtime.Result{State: s}, nil
	}
}

func testGraph(t *testing.T, action runtime.NodeFunc) *runtime.Graph {
	t.Helper()
	if action == nil {
		action = func(_ context.Context, s domain.State) (runtime.Result, error) {
			s.ResponseMessage = "Searching..."
			s.BudgetIssues = []string{"too much"}
			return runtime.Result{State: s}, nil
		}
	}
	g, err := runtime.NewBuilder("from").
		Node("from", domain.NodeKindAsk, ask("From?", func(s *domain.State, v string) { s.OriginCity = v })).
		Node("to", domain.NodeKindAsk, ask("To?", func(s *domain.State, v string) { s.DestinationCity = v })).
		Node(domain.NodeSearch, domain.NodeKindAction, action).
		Node("review", domain.NodeKindAction, func(_ context.Context, s domain.State) (runtime.Result, error) {
			if !s.ValidationMessageShown {
				s.ValidationMessageShown = true
				s.ResponseMessage = "review pending"
				return runtime.Result{State: s, Hold: true}, nil
			}
			if s.LastUserInput == "dates" {
				return runtime.Result{State: s, Next: "to"}, nil
			}
			s.ResponseMessage = "Here is your plan."
			s.ConversationComplete = true
			return runtime.Result{State: s, Next: domain.NodeEnd}, nil
		}).
		Node("plan", domain.NodeKindTerminal, func(_ context.Context, s domain.State) (runtime.Result, error) {
			s.ResponseMessage = "Plan!"
			s.ConversationComplete = true
			return runtime.Result{State: s}, nil
		}).
		Edge("from", runtime.Fixed{Target: "to"}).
		Edge("to", runtime.Fixed{Target: domain.NodeSearch}).
		Edge(domain.NodeSearch, runtime.Conditional{
			Targets: []string{"review", "plan"},
			Resolve: func(s domain.State) string {
				if s.HasIssues() {
					return "review"
				}
				return "plan"
			},
		}).
		Edge("review", runtime.Fixed{Target: domain.NodeSearch}).
		Edge("plan", runtime.Fixed{Target: domain.NodeEnd}).
		Build()
	require.NoError(t, err)
	return g
}

func TestEngine_FirstInputInitializesAtEntry(t *testing.T) {
	e := runtime.NewEngine(testGraph(t, nil))

	s, reply, err := e.Step(context.Background(), domain.NewState(), "Dallas")
	require.NoError(t, err)
	assert.Equal(t, "Dallas", s.OriginCity)
	assert.Equal(t, "to", s.CurrentNode)
	assert.Equal(t, "To?", reply.Text)
	assert.Empty(t, s.LastUserInput)
}

func TestEngine_BlankAnswerRepeatsQuestion(t *testing.T) {
	e := runtime.NewEngine(testGraph(t, nil))
	live := domain.NewState()
	live.CurrentNode = "to"

	s, reply, err := e.Step(context.Background(), live, "   ")
	require.NoError(t, err)
	assert.Equal(t, "to", s.CurrentNode)
	assert.Equal(t, "To?", reply.Text)
	assert.Empty(t, s.DestinationCity)
}

func TestEngine_ValidationErrorKeepsNode(t *testing.T) {
	e := runtime.NewEngine(testGraph(t, nil))
	live := domain.NewState()
	live.CurrentNode = "to"

	s, reply, err := e.Step(context.Background(), live, "bad")
	require.NoError(t, err)
	assert.Equal(t, "to", s.CurrentNode)
	assert.Equal(t, "Try again: To?", reply.Text)
	assert.Empty(t, s.LastUserInput)
	assert.Equal(t, "invalid", s.ValidationError)

	// the stale error is cleared by the next step
	s, _, err = e.Step(context.Background(), s, "Orlando")
	require.NoError(t, err)
	assert.Empty(t, s.ValidationError)
}

func TestEngine_LiveStateIsNotMutated(t *testing.T) {
	e := runtime.NewEngine(testGraph(t, nil))
	live := domain.NewState()
	live.CurrentNode = "from"

	_, _, err := e.Step(context.Background(), live, "Dallas")
	require.NoError(t, err)
	assert.Empty(t, live.OriginCity)
	assert.Equal(t, "from", live.CurrentNode)
}

func TestEngine_UnknownNodeFailsOverToEntry(t *testing.T) {
	e := runtime.NewEngine(testGraph(t, nil))
	live := domain.NewState()
	live.CurrentNode = "does_not_exist"

	s, reply, err := e.Step(context.Background(), live, "Austin")
	require.NoError(t, err)
	assert.Equal(t, "Austin", s.OriginCity)
	assert.Equal(t, "To?", reply.Text)
}

func TestEngine_Reset(t *testing.T) {
	e := runtime.NewEngine(testGraph(t, nil), runtime.WithGreeting("Hello there"))
	live := domain.NewState()
	live.OriginCity = "Dallas"
	live.CurrentNode = "review"

	for _, phrase := range []string{"start over", "please RESET", "Start Over now"} {
		s, reply, err := e.Step(context.Background(), live, phrase)
		require.NoError(t, err)
		assert.Equal(t, "Hello there", reply.Text)
		assert.Empty(t, s.OriginCity)
		assert.Equal(t, domain.NodeStart, s.CurrentNode)
	}
}

func TestIsReset(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"reset", true},
		{"Start over!", true},
		{"let's start over", true},
		{"reset the trip please", true},
		{"resetting", false},
		{"reset my budget to $3000", false},
		{"I had to start over with my packing list", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, runtime.IsReset(tt.input))
		})
	}
}

func TestEngine_SearchIsPrimedAndRoutedThroughConditional(t *testing.T) {
	personalized := 0
	e := runtime.NewEngine(testGraph(t, nil), runtime.WithPersonalizer(
		func(_ context.Context, base string, _ domain.State) string {
			personalized++
			return "Friendly " + base
		}))
	live := domain.NewState()
	live.CurrentNode = "to"

	s, reply, err := e.Step(context.Background(), live, "Orlando")
	require.NoError(t, err)
	assert.Equal(t, "Searching...", reply.Text, "search text is never personalized")
	assert.True(t, reply.Searching)
	assert.Equal(t, "review", s.CurrentNode)
	assert.Zero(t, personalized)

	// first visit of the hold node composes its text and stays put
	s, reply, err = e.Step(context.Background(), s, "continue")
	require.NoError(t, err)
	assert.Equal(t, "review", s.CurrentNode)
	assert.Equal(t, "review pending", reply.Text)
	assert.False(t, reply.Searching)
}

func TestEngine_OverrideBeatsEdgeAndPersonalizes(t *testing.T) {
	e := runtime.NewEngine(testGraph(t, nil), runtime.WithPersonalizer(
		func(_ context.Context, base string, _ domain.State) string {
			return "Friendly " + base
		}))
	live := domain.NewState()
	live.CurrentNode = "review"
	live.ValidationMessageShown = true

	s, reply, err := e.Step(context.Background(), live, "dates")
	require.NoError(t, err)
	assert.Equal(t, "to", s.CurrentNode)
	assert.Equal(t, "Friendly To?", reply.Text)
}

func TestEngine_CompletionAndNotice(t *testing.T) {
	e := runtime.NewEngine(testGraph(t, nil))
	live := domain.NewState()
	live.CurrentNode = "review"
	live.ValidationMessageShown = true

	s, reply, err := e.Step(context.Background(), live, "looks good")
	require.NoError(t, err)
	assert.True(t, reply.Complete)
	assert.Equal(t, "Here is your plan.", reply.Text)
	assert.Equal(t, domain.NodeEnd, s.CurrentNode)

	s, reply, err = e.Step(context.Background(), s, "thanks")
	require.NoError(t, err)
	assert.Equal(t, runtime.CompletionNotice, reply.Text)
	assert.Equal(t, domain.NodeEnd, s.CurrentNode)
}

func TestEngine_PrimedTerminalRepliesVerbatim(t *testing.T) {
	clean := func(_ context.Context, s domain.State) (runtime.Result, error) {
		s.ResponseMessage = "Searching..."
		return runtime.Result{State: s}, nil
	}
	e := runtime.NewEngine(testGraph(t, clean))
	live := domain.NewState()
	live.CurrentNode = "to"

	s, reply, err := e.Step(context.Background(), live, "Orlando")
	require.NoError(t, err)
	assert.Equal(t, "plan", s.CurrentNode)
	assert.True(t, reply.Searching)

	s, reply, err = e.Step(context.Background(), s, "continue")
	require.NoError(t, err)
	assert.Equal(t, "Plan!", reply.Text)
	assert.True(t, reply.Complete)
	assert.Equal(t, domain.NodeEnd, s.CurrentNode)
}

func TestEngine_NodeErrorKeepsLiveState(t *testing.T) {
	boom := errors.New("boom")
	failing := func(_ context.Context, s domain.State) (runtime.Result, error) {
		return runtime.Result{}, boom
	}
	e := runtime.NewEngine(testGraph(t, failing))
	live := domain.NewState()
	live.CurrentNode = "to"

	s, _, err := e.Step(context.Background(), live, "Orlando")
	require.ErrorIs(t, err, boom)
	assert.Equal(t, "to", s.CurrentNode)
	assert.Empty(t, s.DestinationCity)
}

func TestEngine_Hooks(t *testing.T) {
	var entered, left []string
	e := runtime.NewEngine(testGraph(t, nil), runtime.WithHooks(domain.LifecycleHooks{
		OnNodeEnter: func(_ context.Context, ev *domain.NodeEvent) {
			entered = append(entered, ev.NodeID)
			assert.Equal(t, "sess-1", ev.SessionID)
		},
		OnNodeLeave: func(_ context.Context, ev *domain.NodeEvent) {
			label := ev.NodeID
			if ev.Priming {
				label += "(primed)"
			}
			left = append(left, label)
		},
	}))
	ctx := domain.WithSessionID(context.Background(), "sess-1")

	_, _, err := e.Step(ctx, domain.NewState(), "Dallas")
	require.NoError(t, err)
	assert.Equal(t, []string{"from", "to"}, entered)
	assert.Equal(t, "from,to(primed)", strings.Join(left, ","))
}
