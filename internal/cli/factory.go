// Package cli assembles a Planner from the configuration file for the
// wayfarer commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"

	"github.com/aretw0/wayfarer"
	"github.com/aretw0/wayfarer/internal/config"
	"github.com/aretw0/wayfarer/internal/logging"
	"github.com/aretw0/wayfarer/pkg/adapters/llm"
	"github.com/aretw0/wayfarer/pkg/adapters/memory"
	"github.com/aretw0/wayfarer/pkg/adapters/redis"
	"github.com/aretw0/wayfarer/pkg/adapters/search"
	"github.com/aretw0/wayfarer/pkg/observability"
	"github.com/aretw0/wayfarer/pkg/ports"
)

// KeyPrefix namespaces every redis key written by wayfarer.
const KeyPrefix = "wayfarer:"

// Assembly is a ready Planner plus the resources it holds.
type Assembly struct {
	Planner  *wayfarer.Planner
	Registry *prometheus.Registry
	Logger   *slog.Logger

	closers []func() error
}

// Close releases the search client and the redis connection.
func (a *Assembly) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

// BuildOption adjusts the assembly.
type BuildOption func(*buildOptions)

type buildOptions struct {
	logger *slog.Logger
	search ports.SearchGateway
}

// WithLogger replaces the logger derived from log.level.
func WithLogger(l *slog.Logger) BuildOption {
	return func(o *buildOptions) {
		o.logger = l
	}
}

// WithSearchGateway bypasses the MCP search client.
func WithSearchGateway(gw ports.SearchGateway) BuildOption {
	return func(o *buildOptions) {
		o.search = gw
	}
}

// Build wires the adapters named by cfg into a Planner. A search server
// that cannot be reached is logged and skipped; the planner then goes
// straight to plan generation with a note.
func Build(ctx context.Context, cfg config.Config, opts ...BuildOption) (*Assembly, error) {
	var o buildOptions
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger
	if logger == nil {
		logger = logging.New(logging.ParseLevel(cfg.Log.Level))
	}

	a := &Assembly{
		Registry: prometheus.NewRegistry(),
		Logger:   logger,
	}
	a.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewMetrics(a.Registry)

	plannerOpts := []wayfarer.Option{
		wayfarer.WithLogger(logger),
		wayfarer.WithMetrics(metrics),
		wayfarer.WithLifecycleHooks(observability.LoggingHooks(logger)),
		wayfarer.WithClock(cfg.Clock()),
		wayfarer.WithMaxSearchRetries(cfg.Planner.MaxSearchRetries),
		wayfarer.WithTimeouts(cfg.LLM.Timeout, cfg.Search.Timeout),
	}

	reasoning, err := llm.New(ctx, llm.Config{
		Provider: cfg.LLM.Provider,
		Model:    cfg.LLM.Model,
		BaseURL:  cfg.LLM.BaseURL,
		APIKey:   cfg.LLM.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create llm gateway: %w", err)
	}
	if reasoning != nil {
		plannerOpts = append(plannerOpts, wayfarer.WithReasoning(reasoning))
	} else {
		logger.Warn("No language model configured, using local fallbacks", "provider", cfg.LLM.Provider)
	}

	searchGW := o.search
	if searchGW == nil && cfg.Search.Transport != "none" {
		searchGW = a.dialSearch(ctx, cfg.Search)
	}
	if searchGW != nil {
		if cfg.Search.CacheTTL > 0 {
			searchGW = search.NewCached(searchGW, cfg.Search.CacheTTL)
		}
		plannerOpts = append(plannerOpts, wayfarer.WithSearch(searchGW))
	}

	if cfg.Redis.Addr != "" {
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			_ = a.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		a.closers = append(a.closers, client.Close)

		storeOpts := []redis.StoreOption{redis.WithIdleTTL(cfg.Session.IdleTTL)}
		if cfg.Redis.EncryptionKey != "" {
			c, err := newCipher(cfg.Redis)
			if err != nil {
				_ = a.Close()
				return nil, err
			}
			storeOpts = append(storeOpts, redis.WithCipher(c))
			logger.Debug("Session encryption enabled", "fallback_keys", len(cfg.Redis.FallbackKeys))
		}
		plannerOpts = append(plannerOpts,
			wayfarer.WithSessionStore(redis.NewStore(client, KeyPrefix, storeOpts...)),
			wayfarer.WithLocker(redis.NewLocker(client, KeyPrefix), cfg.Redis.LockTTL),
		)
		logger.Debug("Using redis session store", "addr", cfg.Redis.Addr)
	} else {
		plannerOpts = append(plannerOpts,
			wayfarer.WithSessionStore(memory.NewStore(memory.WithIdleTTL(cfg.Session.IdleTTL))))
	}

	p, err := wayfarer.New(plannerOpts...)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Planner = p
	return a, nil
}

func newCipher(cfg config.Redis) (*redis.Cipher, error) {
	active, fallbacks, err := cfg.Keys()
	if err != nil {
		return nil, err
	}
	c, err := redis.NewCipher(active, fallbacks...)
	if err != nil {
		return nil, fmt.Errorf("invalid session encryption key: %w", err)
	}
	return c, nil
}

func (a *Assembly) dialSearch(ctx context.Context, cfg config.Search) ports.SearchGateway {
	dialCtx, cancel := context.WithTimeout(ctx, 2*max(cfg.Timeout, 10*time.Second))
	defer cancel()

	gw, client, err := search.Dial(dialCtx, search.DialConfig{
		Transport: cfg.Transport,
		Command:   cfg.Command,
		Args:      cfg.Args,
		Env:       cfg.Env,
		URL:       cfg.URL,
		Headers:   cfg.Headers,
		Tool:      cfg.Tool,
		Timeout:   cfg.Timeout,
	})
	if err != nil {
		a.Logger.Warn("Search server unavailable, continuing without search", "transport", cfg.Transport, "err", err)
		return nil
	}
	a.closers = append(a.closers, client.Close)
	return gw
}
