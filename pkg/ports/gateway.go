package ports

import (
	"context"

	"github.com/aretw0/wayfarer/pkg/domain"
)

// ReasoningGateway sends a prompt to a text-generation service.
// No schema is enforced; callers parse and validate the text themselves.
type ReasoningGateway interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// SearchGateway issues a query to a web search service.
// Queries must stay under 400 characters.
type SearchGateway interface {
	Search(ctx context.Context, query string, cfg domain.SearchConfig) ([]domain.SearchResult, error)
}

// ReasoningFunc adapts a function to ReasoningGateway.
type ReasoningFunc func(ctx context.Context, prompt string) (string, error)

func (f ReasoningFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// SearchFunc adapts a function to SearchGateway.
type SearchFunc func(ctx context.Context, query string, cfg domain.SearchConfig) ([]domain.SearchResult, error)

func (f SearchFunc) Search(ctx context.Context, query string, cfg domain.SearchConfig) ([]domain.SearchResult, error) {
	return f(ctx, query, cfg)
}
