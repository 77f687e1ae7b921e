package redis_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/wayfarer/pkg/adapters/redis"
	"github.com/aretw0/wayfarer/pkg/domain"
	"github.com/aretw0/wayfarer/pkg/ports"
)

var (
	keyA = bytes.Repeat([]byte("a"), 32)
	keyB = bytes.Repeat([]byte("b"), 32)
)

func TestNewCipher_KeyLength(t *testing.T) {
	_, err := redis.NewCipher([]byte("short"))
	assert.ErrorContains(t, err, "32 bytes")

	_, err = redis.NewCipher(keyA, []byte("short"))
	assert.ErrorContains(t, err, "fallback key 0")
}

func TestCipher_SealOpen(t *testing.T) {
	c, err := redis.NewCipher(keyA)
	require.NoError(t, err)

	sealed, err := c.Seal([]byte("Orlando"))
	require.NoError(t, err)
	assert.NotContains(t, string(sealed), "Orlando")

	plain, err := c.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "Orlando", string(plain))

	_, err = c.Open([]byte("x"))
	assert.Error(t, err)
}

func TestCipher_Rotation(t *testing.T) {
	old, err := redis.NewCipher(keyA)
	require.NoError(t, err)
	sealed, err := old.Seal([]byte("Dallas"))
	require.NoError(t, err)

	rotated, err := redis.NewCipher(keyB, keyA)
	require.NoError(t, err)
	plain, err := rotated.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "Dallas", string(plain))

	fresh, err := redis.NewCipher(keyB)
	require.NoError(t, err)
	_, err = fresh.Open(sealed)
	assert.ErrorIs(t, err, redis.ErrDecrypt)
}

func TestRedisStore_EncryptedContract(t *testing.T) {
	c, err := redis.NewCipher(keyA)
	require.NoError(t, err)
	store, _ := newStore(t, redis.WithCipher(c))
	ports.RunSessionStoreContract(t, store)
}

func TestRedisStore_EncryptedAtRest(t *testing.T) {
	c, err := redis.NewCipher(keyA)
	require.NoError(t, err)
	store, mr := newStore(t, redis.WithCipher(c))
	ctx := context.Background()

	s := domain.NewState()
	s.DestinationCity = "Orlando"
	require.NoError(t, store.Save(ctx, "s1", s))

	raw, err := mr.Get("wayfarer:session:s1")
	require.NoError(t, err)
	assert.NotContains(t, raw, "Orlando")

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Orlando", loaded.DestinationCity)
}
