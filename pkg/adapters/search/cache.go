package search

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/aretw0/wayfarer/pkg/domain"
	"github.com/aretw0/wayfarer/pkg/ports"
)

// Cached memoizes successful searches for a while. Re-searches after a
// budget change produce new query text and therefore miss.
type Cached struct {
	next  ports.SearchGateway
	cache *cache.Cache
}

// NewCached wraps next. Entries expire after ttl.
func NewCached(next ports.SearchGateway, ttl time.Duration) *Cached {
	return &Cached{
		next:  next,
		cache: cache.New(ttl, 2*ttl),
	}
}

func (c *Cached) Search(ctx context.Context, query string, cfg domain.SearchConfig) ([]domain.SearchResult, error) {
	key := fmt.Sprintf("%s|%d|%s|%t", query, cfg.MaxResults, cfg.SearchDepth, cfg.IncludeAnswer)
	if hit, ok := c.cache.Get(key); ok {
		return cloneResults(hit.([]domain.SearchResult)), nil
	}
	results, err := c.next.Search(ctx, query, cfg)
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(key, cloneResults(results))
	return results, nil
}

func cloneResults(rs []domain.SearchResult) []domain.SearchResult {
	if rs == nil {
		return nil
	}
	return append([]domain.SearchResult(nil), rs...)
}
