// Package secrets seals credentials before they leave the gateway.
package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	nonceSize   = 12
	framePrefix = "ENC[v1]:"
)

var (
	ErrInvalidFrame = errors.New("invalid sealed-secret frame")
	ErrOpenFailed   = errors.New("failed to open sealed secret")
)

// Sealer encrypts provider API keys and generated wallet keys with
// AES-256-GCM before they are forwarded to the trading backend. The backend
// holds the same key and unwraps on arrival, so raw secrets never cross the
// wire in clear text.
type Sealer struct {
	key [32]byte
}

// NewSealer derives a sealing key from the configured passphrase.
func NewSealer(passphrase string) (*Sealer, error) {
	if passphrase == "" {
		return nil, errors.New("empty secrets key")
	}
	return &Sealer{key: sha256.Sum256([]byte(passphrase))}, nil
}

// Seal wraps plaintext as ENC[v1]:base64(nonce || ciphertext).
func (s *Sealer) Seal(plaintext string) (string, error) {
	block, err := aes.NewCipher(s.key[:])
	if err != nil {
		return "", fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("create GCM: %w", err)
	}

	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return framePrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// Open reverses Seal. Tampered or truncated frames fail.
func (s *Sealer) Open(sealed string) (string, error) {
	if !strings.HasPrefix(sealed, framePrefix) {
		return "", ErrInvalidFrame
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(sealed, framePrefix))
	if err != nil {
		return "", ErrInvalidFrame
	}
	if len(data) < nonceSize {
		return "", ErrInvalidFrame
	}

	block, err := aes.NewCipher(s.key[:])
	if err != nil {
		return "", fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("create GCM: %w", err)
	}

	plaintext, err := gcm.Open(nil, data[:nonceSize], data[nonceSize:], nil)
	if err != nil {
		return "", ErrOpenFailed
	}
	return string(plaintext), nil
}

// IsSealed reports whether a value already carries the sealed frame.
func IsSealed(value string) bool {
	return strings.HasPrefix(value, framePrefix)
}
