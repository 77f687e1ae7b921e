package memory

import (
	"context"
	"sort"
	"time"

	"github.com/aretw0/wayfarer/pkg/domain"
	"github.com/patrickmn/go-cache"
)

// Store implements ports.SessionStore in memory.
// Sessions idle for longer than the configured TTL are evicted.
// Safe for concurrent use.
type Store struct {
	data *cache.Cache
	ttl  time.Duration
}

// Option configures the Store.
type Option func(*Store)

// WithIdleTTL evicts sessions that have not been saved for d. Zero keeps them forever.
func WithIdleTTL(d time.Duration) Option {
	return func(s *Store) {
		s.ttl = d
	}
}

// NewStore creates a new in-memory store.
func NewStore(opts ...Option) *Store {
	s := &Store{}
	for _, opt := range opts {
		opt(s)
	}
	expiration := cache.NoExpiration
	cleanup := time.Duration(0)
	if s.ttl > 0 {
		expiration = s.ttl
		cleanup = s.ttl / 2
	}
	s.data = cache.New(expiration, cleanup)
	return s
}

// Save stores a deep copy of the state.
func (s *Store) Save(ctx context.Context, sessionID string, state domain.State) error {
	s.data.Set(sessionID, state.Clone(), cache.DefaultExpiration)
	return nil
}

// Load returns a deep copy so the caller can't mutate the stored snapshot.
func (s *Store) Load(ctx context.Context, sessionID string) (domain.State, error) {
	v, ok := s.data.Get(sessionID)
	if !ok {
		return domain.State{}, domain.ErrSessionNotFound
	}
	return v.(domain.State).Clone(), nil
}

// Delete removes the state.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	s.data.Delete(sessionID)
	return nil
}

// List returns active sessions in lexical order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	items := s.data.Items()
	sessions := make([]string, 0, len(items))
	for id := range items {
		sessions = append(sessions, id)
	}
	sort.Strings(sessions)
	return sessions, nil
}
