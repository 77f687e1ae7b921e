package wayfarer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/wayfarer/internal/calendar"
	"github.com/aretw0/wayfarer/internal/flow"
	"github.com/aretw0/wayfarer/internal/gateway"
	"github.com/aretw0/wayfarer/internal/logging"
	"github.com/aretw0/wayfarer/internal/runtime"
	"github.com/aretw0/wayfarer/pkg/adapters/memory"
	"github.com/aretw0/wayfarer/pkg/domain"
	"github.com/aretw0/wayfarer/pkg/observability"
	"github.com/aretw0/wayfarer/pkg/ports"
	"github.com/aretw0/wayfarer/pkg/runner"
	"github.com/aretw0/wayfarer/pkg/session"
)

// Version is the release version, set by the linker in release builds.
var Version = "dev"

var sessionIDRe = regexp.MustCompile(`^[A-Za-z0-9._:-]{1,128}$`)

// Planner is the high-level entry point: it owns the planning graph and
// the session store, and serializes the turns of each session.
type Planner struct {
	engine   *runtime.Engine
	sessions *session.Manager
	store    ports.SessionStore

	reasoning     ports.ReasoningGateway
	search        ports.SearchGateway
	locker        ports.DistributedLocker
	lockTTL       time.Duration
	llmTimeout    time.Duration
	searchTimeout time.Duration
	maxRetries    int
	personalize   bool
	now           func() time.Time
	hooks         domain.LifecycleHooks
	metrics       *observability.Metrics
	logger        *slog.Logger
}

// Option defines a functional option for configuring the Planner.
type Option func(*Planner)

// WithReasoning sets the language model gateway. Without one every node
// uses its local fallback.
func WithReasoning(gw ports.ReasoningGateway) Option {
	return func(p *Planner) {
		p.reasoning = gw
	}
}

// WithSearch sets the web search gateway.
func WithSearch(gw ports.SearchGateway) Option {
	return func(p *Planner) {
		p.search = gw
	}
}

// WithSessionStore replaces the default in-memory store.
func WithSessionStore(store ports.SessionStore) Option {
	return func(p *Planner) {
		p.store = store
	}
}

// WithLocker serializes sessions across processes sharing one store.
func WithLocker(locker ports.DistributedLocker, ttl time.Duration) Option {
	return func(p *Planner) {
		p.locker = locker
		p.lockTTL = ttl
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(p *Planner) {
		p.hooks = observability.Chain(p.hooks, hooks)
	}
}

// WithMetrics records turns, node visits and gateway calls.
func WithMetrics(m *observability.Metrics) Option {
	return func(p *Planner) {
		p.metrics = m
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Planner) {
		p.logger = logger
	}
}

// WithClock pins the reference date used for relative and year-less dates.
func WithClock(now func() time.Time) Option {
	return func(p *Planner) {
		p.now = now
	}
}

// WithMaxSearchRetries caps how often the validation handler may re-run search.
func WithMaxSearchRetries(n int) Option {
	return func(p *Planner) {
		p.maxRetries = n
	}
}

// WithTimeouts bounds each reasoning and search call.
func WithTimeouts(reasoning, search time.Duration) Option {
	return func(p *Planner) {
		p.llmTimeout = reasoning
		p.searchTimeout = search
	}
}

// WithPersonalization toggles the rewriting of questions by the language
// model. It is on by default and has no effect without a reasoning gateway.
func WithPersonalization(enabled bool) Option {
	return func(p *Planner) {
		p.personalize = enabled
	}
}

// New builds a Planner.
func New(opts ...Option) (*Planner, error) {
	p := &Planner{personalize: true}
	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = logging.NewNop()
	}
	if p.store == nil {
		p.store = memory.NewStore()
	}
	if p.now == nil {
		p.now = time.Now
	}

	hooks := p.hooks
	if p.metrics != nil {
		hooks = observability.Chain(hooks, p.metrics.Hooks())
	}

	reasoning := gateway.NewReasoning(p.reasoning, p.llmTimeout, hooks)
	search := gateway.NewSearch(p.search, p.searchTimeout, hooks)

	g, err := flow.NewGraph(flow.Config{
		Reasoning:        reasoning,
		Search:           search,
		Now:              p.now,
		MaxSearchRetries: p.maxRetries,
		Logger:           p.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build planning graph: %w", err)
	}

	engineOpts := []runtime.EngineOption{
		runtime.WithGreeting(flow.Greeting),
		runtime.WithHooks(hooks),
		runtime.WithLogger(p.logger),
	}
	if p.personalize {
		engineOpts = append(engineOpts, runtime.WithPersonalizer(flow.NewPersonalizer(reasoning)))
	}
	p.engine = runtime.NewEngine(g, engineOpts...)

	sessionOpts := []session.Option{session.WithLogger(p.logger)}
	if p.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(p.locker), session.WithLockTTL(p.lockTTL))
	}
	p.sessions = session.NewManager(p.store, sessionOpts...)

	return p, nil
}

// NewSessionID returns a fresh random session identifier.
func NewSessionID() string {
	return uuid.NewString()
}

// Greeting returns the opening line of every conversation.
func (p *Planner) Greeting() string {
	return p.engine.Greeting()
}

// Graph returns the topology of the planning graph.
func (p *Planner) Graph() domain.GraphExport {
	return p.engine.Graph().Export()
}

// ProcessInput runs one conversation turn for the session, creating it on
// first use. Turns of one session are serialized; distinct sessions run
// concurrently.
func (p *Planner) ProcessInput(ctx context.Context, sessionID, text string) (domain.Reply, error) {
	reply, err := p.process(ctx, sessionID, text)
	if p.metrics != nil {
		p.metrics.RecordTurn(reply, err)
	}
	return reply, err
}

func (p *Planner) process(ctx context.Context, sessionID, text string) (domain.Reply, error) {
	if err := validateSessionID(sessionID); err != nil {
		return domain.Reply{}, err
	}
	input, err := runner.SanitizeInput(text)
	if err != nil {
		return domain.Reply{}, err
	}

	ctx = domain.WithSessionID(ctx, sessionID)
	var reply domain.Reply
	_, err = p.sessions.Update(ctx, sessionID, func(ctx context.Context, live domain.State) (domain.State, error) {
		next, r, err := p.engine.Step(ctx, live, input)
		if err != nil {
			return domain.State{}, err
		}
		reply = r
		return next, nil
	})
	if err != nil {
		p.logger.Error("Turn failed", "session_id", sessionID, "err", err)
		return domain.Reply{}, fmt.Errorf("failed to process input: %w", err)
	}
	p.logger.Debug("Turn processed", "session_id", sessionID, "node", reply.Node, "searching", reply.Searching)
	return reply, nil
}

// Snapshot returns a copy of the session's state.
func (p *Planner) Snapshot(ctx context.Context, sessionID string) (domain.State, error) {
	if err := validateSessionID(sessionID); err != nil {
		return domain.State{}, err
	}
	return p.sessions.Load(ctx, sessionID)
}

// Reset clears the session and returns the greeting.
func (p *Planner) Reset(ctx context.Context, sessionID string) (domain.Reply, error) {
	if err := validateSessionID(sessionID); err != nil {
		return domain.Reply{}, err
	}
	greeting := p.engine.Greeting()
	_, err := p.sessions.Update(ctx, sessionID, func(context.Context, domain.State) (domain.State, error) {
		s := domain.NewState()
		s.ResponseMessage = greeting
		return s, nil
	})
	if err != nil {
		return domain.Reply{}, fmt.Errorf("failed to reset session: %w", err)
	}
	return domain.Reply{Text: greeting, Node: domain.NodeStart}, nil
}

// Delete forgets the session.
func (p *Planner) Delete(ctx context.Context, sessionID string) error {
	if err := validateSessionID(sessionID); err != nil {
		return err
	}
	return p.sessions.Delete(ctx, sessionID)
}

// Sessions lists the known session identifiers.
func (p *Planner) Sessions(ctx context.Context) ([]string, error) {
	return p.sessions.List(ctx)
}

// Calendar renders the session's itinerary as an iCalendar document.
// It returns domain.ErrNoItinerary until a plan has been generated.
func (p *Planner) Calendar(ctx context.Context, sessionID string) (string, error) {
	s, err := p.Snapshot(ctx, sessionID)
	if err != nil {
		return "", err
	}
	return calendar.Export(sessionID, s, p.now())
}

func validateSessionID(id string) error {
	if !sessionIDRe.MatchString(id) {
		return fmt.Errorf("%w: %q", domain.ErrInvalidSessionID, id)
	}
	return nil
}

// IsClientError reports whether err was caused by the caller's input rather
// than by the infrastructure.
func IsClientError(err error) bool {
	return errors.Is(err, domain.ErrInvalidSessionID) ||
		errors.Is(err, domain.ErrInputTooLarge) ||
		errors.Is(err, domain.ErrInvalidUTF8)
}
