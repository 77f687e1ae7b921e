// Package llm provides ports.ReasoningGateway implementations backed by
// OpenAI-compatible chat completion services.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/wayfarer/pkg/ports"
)

// Providers understood by New.
const (
	ProviderEino   = "eino"
	ProviderOpenAI = "openai"
	ProviderNone   = "none"
)

// SystemPrompt frames every completion.
const SystemPrompt = "You are the reasoning component of a trip-planning assistant. Follow the output format requested in each message exactly."

// Config selects and configures a provider.
type Config struct {
	Provider string
	Model    string
	BaseURL  string
	APIKey   string
}

// New builds the gateway for cfg.Provider. It returns (nil, nil) for the
// "none" provider and when no API key is configured, so callers fall back
// to their deterministic paths.
func New(ctx context.Context, cfg Config) (ports.ReasoningGateway, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if provider == "" {
		provider = ProviderEino
	}
	if provider == ProviderNone || cfg.APIKey == "" {
		return nil, nil
	}
	switch provider {
	case ProviderEino:
		gw, err := NewEino(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return gw, nil
	case ProviderOpenAI:
		return NewOpenAI(cfg), nil
	}
	return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
}
