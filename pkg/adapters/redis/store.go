package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/wayfarer/pkg/domain"
)

// Store implements ports.SessionStore on Redis, so several planner
// instances behind one lock share their sessions.
type Store struct {
	client backend.UniversalClient
	prefix string
	ttl    time.Duration
	cipher *Cipher
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithIdleTTL expires sessions that have not been saved for d.
func WithIdleTTL(d time.Duration) StoreOption {
	return func(s *Store) {
		s.ttl = d
	}
}

// WithCipher encrypts stored sessions.
func WithCipher(c *Cipher) StoreOption {
	return func(s *Store) {
		s.cipher = c
	}
}

// NewStore creates a store keeping sessions under <prefix>session:<id>.
func NewStore(client backend.UniversalClient, prefix string, opts ...StoreOption) *Store {
	s := &Store{client: client, prefix: prefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) key(sessionID string) string {
	return s.prefix + "session:" + sessionID
}

func (s *Store) indexKey() string {
	return s.prefix + "sessions"
}

// Save writes the state and refreshes its expiry.
func (s *Store) Save(ctx context.Context, sessionID string, state domain.State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	if s.cipher != nil {
		if data, err = s.cipher.Seal(data); err != nil {
			return fmt.Errorf("failed to encrypt state: %w", err)
		}
	}

	// Index score is the expiry time; zero TTL never expires.
	score := float64(time.Now().Add(s.ttl).Unix())
	if s.ttl == 0 {
		score = 4102444800 // 2100-01-01
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key(sessionID), data, s.ttl)
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{Score: score, Member: sessionID})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Load reads the state.
func (s *Store) Load(ctx context.Context, sessionID string) (domain.State, error) {
	val, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if errors.Is(err, backend.Nil) {
		return domain.State{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.State{}, fmt.Errorf("failed to get from redis: %w", err)
	}
	if s.cipher != nil {
		if val, err = s.cipher.Open(val); err != nil {
			return domain.State{}, fmt.Errorf("failed to decrypt state: %w", err)
		}
	}

	var state domain.State
	if err := json.Unmarshal(val, &state); err != nil {
		return domain.State{}, fmt.Errorf("failed to unmarshal state: %w", err)
	}
	return state, nil
}

// Delete removes the session.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.key(sessionID))
	pipe.ZRem(ctx, s.indexKey(), sessionID)
	_, err := pipe.Exec(ctx)
	return err
}

// List prunes expired entries from the index and returns the rest.
func (s *Store) List(ctx context.Context) ([]string, error) {
	now := fmt.Sprintf("%d", time.Now().Unix())
	if err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", now).Err(); err != nil {
		return nil, fmt.Errorf("failed to prune expired sessions: %w", err)
	}
	ids, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return ids, nil
}
