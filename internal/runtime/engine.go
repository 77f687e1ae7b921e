package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/aretw0/wayfarer/internal/logging"
	"github.com/aretw0/wayfarer/pkg/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// CompletionNotice is returned when a finished session receives more input.
const CompletionNotice = `Your trip plan is ready above. Say "start over" to plan another trip.`

// resetRe matches a message that is only a restart request, optionally
// with a few filler words around it.
var resetRe = regexp.MustCompile(`(?i)^(please\s+|let'?s\s+|i want to\s+|can we\s+)?(start over|reset)(\s+(please|now|again|everything|the (chat|conversation|trip)))*\s*[.!?]*$`)

// IsReset reports whether input asks to restart the conversation.
func IsReset(input string) bool {
	return resetRe.MatchString(strings.TrimSpace(input))
}

// Personalizer rewrites an outbound question for the current state.
// It must return base unchanged when it cannot do better.
type Personalizer func(ctx context.Context, base string, s domain.State) string

// Engine is the conversation state machine.
type Engine struct {
	graph       *Graph
	greeting    string
	personalize Personalizer
	hooks       domain.LifecycleHooks
	logger      *slog.Logger
	tracer      trace.Tracer
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithGreeting sets the text returned after a reset.
func WithGreeting(text string) EngineOption {
	return func(e *Engine) {
		e.greeting = text
	}
}

// WithPersonalizer sets the rewriter applied to primed ask-node questions.
func WithPersonalizer(p Personalizer) EngineOption {
	return func(e *Engine) {
		e.personalize = p
	}
}

// WithHooks registers lifecycle callbacks.
func WithHooks(h domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = h
	}
}

// WithLogger sets a structured logger.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = l
	}
}

// NewEngine creates an engine over g.
func NewEngine(g *Graph, opts ...EngineOption) *Engine {
	e := &Engine{
		graph:    g,
		greeting: "Hi! Where are you traveling from?",
		personalize: func(_ context.Context, base string, _ domain.State) string {
			return base
		},
		logger: logging.NewNop(),
		tracer: otel.Tracer("github.com/aretw0/wayfarer/internal/runtime"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Graph returns the graph driven by the engine.
func (e *Engine) Graph() *Graph {
	return e.graph
}

// Greeting returns the canonical greeting.
func (e *Engine) Greeting() string {
	return e.greeting
}

// Step processes one user message against live and returns the state that
// replaces it. live itself is never modified. On error the caller must keep
// live unchanged.
func (e *Engine) Step(ctx context.Context, live domain.State, input string) (domain.State, domain.Reply, error) {
	ctx, span := e.tracer.Start(ctx, "wayfarer.step",
		trace.WithAttributes(attribute.String("wayfarer.node", live.CurrentNode)))
	defer span.End()

	if IsReset(input) {
		s := domain.NewState()
		s.ResponseMessage = e.greeting
		e.logger.Debug("Session reset", "session_id", domain.SessionIDFrom(ctx))
		return s, domain.Reply{Text: e.greeting, Node: s.CurrentNode}, nil
	}

	state := live.Clone()
	state.LastUserInput = input
	state.ValidationError = ""

	if state.CurrentNode == domain.NodeEnd {
		state.LastUserInput = ""
		state.ResponseMessage = CompletionNotice
		return state, domain.Reply{Text: CompletionNotice, Complete: true, Node: domain.NodeEnd}, nil
	}

	node, ok := e.graph.Node(state.CurrentNode)
	if !ok {
		if state.CurrentNode != domain.NodeStart {
			e.logger.Warn("Unknown node, restarting at entry", "node", state.CurrentNode)
		}
		node = e.graph.Entry()
		state.CurrentNode = node.ID
	}

	// A blank answer to a question repeats the question.
	if node.Kind == domain.NodeKindAsk && strings.TrimSpace(input) == "" {
		return e.prime(ctx, live, state)
	}

	res, err := e.run(ctx, node, state, false)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return live, domain.Reply{}, err
	}
	state = res.State

	if state.ValidationError != "" {
		state.LastUserInput = ""
		state.CurrentNode = node.ID
		text := state.ResponseMessage
		if text == "" {
			text = state.ValidationError
		}
		return state, domain.Reply{Text: text, Node: node.ID}, nil
	}
	state.LastUserInput = ""

	next, err := e.advance(node.ID, res)
	if err != nil {
		span.RecordError(err)
		return live, domain.Reply{}, err
	}
	state.CurrentNode = next

	if next == domain.NodeEnd || state.ConversationComplete {
		return state, domain.Reply{Text: state.ResponseMessage, Complete: state.ConversationComplete, Node: next}, nil
	}
	if res.Hold {
		return state, domain.Reply{Text: state.ResponseMessage, Searching: next == domain.NodeSearch, Node: next}, nil
	}

	return e.prime(ctx, live, state)
}

// prime runs the newly active node with no input to obtain its outbound text.
// Action nodes then move on along their edge; questions stay active.
func (e *Engine) prime(ctx context.Context, live, state domain.State) (domain.State, domain.Reply, error) {
	node, ok := e.graph.Node(state.CurrentNode)
	if !ok {
		return live, domain.Reply{}, fmt.Errorf("%w: %s", ErrUnknownTarget, state.CurrentNode)
	}

	res, err := e.run(ctx, node, state, true)
	if err != nil {
		return live, domain.Reply{}, err
	}
	state = res.State
	state.LastUserInput = ""

	// A primed question waits for its answer.
	if node.Kind == domain.NodeKindAsk {
		res.Hold = true
	}
	after, err := e.advance(node.ID, res)
	if err != nil {
		return live, domain.Reply{}, err
	}
	state.CurrentNode = after

	reply := domain.Reply{
		Text:      state.ResponseMessage,
		Searching: node.ID == domain.NodeSearch || after == domain.NodeSearch,
		Complete:  state.ConversationComplete,
		Node:      after,
	}
	if node.Kind == domain.NodeKindAsk && !state.ConversationComplete {
		reply.Text = e.personalize(ctx, state.ResponseMessage, state)
	}
	return state, reply, nil
}

// advance picks the next node: hold, explicit override, then the edge table.
func (e *Engine) advance(from string, res Result) (string, error) {
	switch {
	case res.Hold:
		return from, nil
	case res.Next != "":
		if !e.graph.valid(res.Next) {
			return "", fmt.Errorf("%w: %s -> %s", ErrUnknownTarget, from, res.Next)
		}
		return res.Next, nil
	}
	return e.graph.Resolve(from, res.State)
}

func (e *Engine) run(ctx context.Context, node Node, state domain.State, priming bool) (Result, error) {
	ctx, span := e.tracer.Start(ctx, "wayfarer.node",
		trace.WithAttributes(
			attribute.String("wayfarer.node", node.ID),
			attribute.Bool("wayfarer.priming", priming),
		))
	defer span.End()

	if priming {
		state.LastUserInput = ""
	}
	e.emit(ctx, e.hooks.OnNodeEnter, &domain.NodeEvent{NodeID: node.ID, Priming: priming}, domain.EventNodeEnter)

	start := time.Now()
	res, err := node.Run(ctx, state)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Result{}, fmt.Errorf("node %s: %w", node.ID, err)
	}

	e.emit(ctx, e.hooks.OnNodeLeave, &domain.NodeEvent{
		NodeID:   node.ID,
		Priming:  priming,
		Next:     res.Next,
		Rejected: res.State.ValidationError != "",
		Duration: time.Since(start),
	}, domain.EventNodeLeave)
	return res, nil
}

func (e *Engine) emit(ctx context.Context, hook func(context.Context, *domain.NodeEvent), ev *domain.NodeEvent, t domain.EventType) {
	if hook == nil {
		return
	}
	ev.EventBase = domain.EventBase{
		Timestamp: time.Now(),
		Type:      t,
		SessionID: domain.SessionIDFrom(ctx),
	}
	hook(ctx, ev)
}
