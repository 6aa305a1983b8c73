// Package credcodec encodes a username/password pair into a compact,
// authenticated token that can be handed out in a calendar link and
// redeemed later for a fresh portal login, without storing credentials
// server-side.
package credcodec

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidToken covers every decode failure: malformed base64, a
// truncated buffer, an authentication tag mismatch or a missing
// separator. Tokens that fail to decode are corrupt or hostile, never
// transient, so callers must not retry.
var ErrInvalidToken = errors.New("credcodec: invalid token")

const KeySize = 32

// Codec seals credentials with AES-256-GCM under a single process-wide
// key. Safe for unsynchronized concurrent use; the key is read-only
// after construction and never logged.
type Codec struct {
	aead cipher.AEAD
}

func New(key []byte) (*Codec, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("credcodec: key must be %d bytes, got %d", KeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Codec{aead: aead}, nil
}

// NewFromBase64 builds a codec from a standard-base64 key, the form it
// takes in configuration.
func NewFromBase64(key string) (*Codec, error) {
	raw, err := base64.StdEncoding.DecodeString(key)
	if err != nil {
		return nil, fmt.Errorf("credcodec: malformed key: %w", err)
	}
	return New(raw)
}

// Encode seals "username:password" under a fresh random nonce and
// returns base64url (no padding) of nonce||ciphertext. The nonce is
// drawn from crypto/rand inside this call on every invocation; reusing
// one under the same key would break both confidentiality and
// integrity.
//
// Usernames containing ':' cannot be recovered faithfully by Decode,
// which splits on the first separator.
func (c *Codec) Encode(username, password string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	plaintext := fmt.Sprintf("%s:%s", username, password)
	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Decode authenticates and opens a token produced by Encode. It fails
// closed: any tampering, truncation or key mismatch yields
// ErrInvalidToken with no partial output.
func (c *Codec) Decode(token string) (username, password string, err error) {
	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	nonceSize := c.aead.NonceSize()
	if len(data) < nonceSize {
		return "", "", fmt.Errorf("%w: truncated", ErrInvalidToken)
	}

	plaintext, err := c.aead.Open(nil, data[:nonceSize], data[nonceSize:], nil)
	if err != nil {
		return "", "", fmt.Errorf("%w: authentication failed", ErrInvalidToken)
	}

	username, password, ok := strings.Cut(string(plaintext), ":")
	if !ok {
		return "", "", fmt.Errorf("%w: missing separator", ErrInvalidToken)
	}
	return username, password, nil
}
