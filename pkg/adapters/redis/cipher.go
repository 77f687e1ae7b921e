package redis

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
)

// ErrDecrypt is returned when no configured key opens a stored session.
var ErrDecrypt = errors.New("decryption failed with all available keys")

// Cipher seals session payloads with AES-256-GCM. Old keys remain usable
// for reading so keys can be rotated without dropping sessions.
type Cipher struct {
	active    cipher.AEAD
	fallbacks []cipher.AEAD
}

// NewCipher builds a Cipher. Every key must be 32 bytes.
func NewCipher(activeKey []byte, fallbackKeys ...[]byte) (*Cipher, error) {
	active, err := newAEAD(activeKey)
	if err != nil {
		return nil, fmt.Errorf("active key: %w", err)
	}
	c := &Cipher{active: active}
	for i, key := range fallbackKeys {
		aead, err := newAEAD(key)
		if err != nil {
			return nil, fmt.Errorf("fallback key %d: %w", i, err)
		}
		c.fallbacks = append(c.fallbacks, aead)
	}
	return c, nil
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("key must be 32 bytes (AES-256), got %d", len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Seal encrypts plaintext with the active key; the nonce is prepended.
func (c *Cipher) Seal(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, c.active.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return c.active.Seal(nonce, nonce, plaintext, nil), nil
}

// Open decrypts with the active key, then with each fallback in order.
func (c *Cipher) Open(ciphertext []byte) ([]byte, error) {
	for _, aead := range append([]cipher.AEAD{c.active}, c.fallbacks...) {
		if len(ciphertext) < aead.NonceSize() {
			return nil, errors.New("ciphertext too short")
		}
		nonce, body := ciphertext[:aead.NonceSize()], ciphertext[aead.NonceSize():]
		if plain, err := aead.Open(nil, nonce, body, nil); err == nil {
			return plain, nil
		}
	}
	return nil, ErrDecrypt
}
