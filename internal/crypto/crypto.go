// Package crypto seals session secrets at rest with AES-256-GCM.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// KeySize is the AES-256 key length in bytes.
const KeySize = 32

var (
	ErrInvalidKeySize = errors.New("session key must be 32 bytes")
	ErrSealedTooShort = errors.New("sealed value too short")
	ErrTampered       = errors.New("sealed value failed authentication")
)

// Sealer encrypts short secrets. The output is base64(nonce || ciphertext).
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer builds a sealer from a raw 32-byte key.
func NewSealer(key []byte) (*Sealer, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKeySize
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return &Sealer{aead: aead}, nil
}

// NewSealerFromBase64 builds a sealer from a base64-encoded key.
func NewSealerFromBase64(encoded string) (*Sealer, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, fmt.Errorf("failed to decode session key: %w", err)
	}
	return NewSealer(key)
}

// Seal encrypts plaintext. Empty input stays empty.
func (s *Sealer) Seal(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := s.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Open reverses Seal.
func (s *Sealer) Open(sealed string) (string, error) {
	if sealed == "" {
		return "", nil
	}

	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("failed to decode sealed value: %w", err)
	}

	n := s.aead.NonceSize()
	if len(raw) < n {
		return "", ErrSealedTooShort
	}

	plaintext, err := s.aead.Open(nil, raw[:n], raw[n:], nil)
	if err != nil {
		return "", ErrTampered
	}
	return string(plaintext), nil
}

// GenerateKey returns a fresh random key, base64-encoded.
func GenerateKey() (string, error) {
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return "", fmt.Errorf("failed to generate key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(key), nil
}

// KeySource lists where a session key may come from, in priority order:
// an explicit value, an environment variable, then a key file that is
// created on first use.
type KeySource struct {
	Explicit string
	EnvVar   string
	FilePath string
}

// Resolve returns the base64 key and whether it was newly generated.
func (k KeySource) Resolve() (key string, generated bool, err error) {
	if k.Explicit != "" {
		return k.Explicit, false, nil
	}
	if k.EnvVar != "" {
		if v := os.Getenv(k.EnvVar); v != "" {
			return v, false, nil
		}
	}
	if k.FilePath == "" {
		return "", false, errors.New("no session key configured and no key file path given")
	}

	if data, err := os.ReadFile(k.FilePath); err == nil {
		return strings.TrimSpace(string(data)), false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", false, fmt.Errorf("failed to read key file %s: %w", k.FilePath, err)
	}

	key, err = GenerateKey()
	if err != nil {
		return "", false, err
	}
	if err := os.MkdirAll(filepath.Dir(k.FilePath), 0o700); err != nil {
		return "", false, fmt.Errorf("failed to create key directory: %w", err)
	}
	if err := os.WriteFile(k.FilePath, []byte(key), 0o600); err != nil {
		return "", false, fmt.Errorf("failed to save key to %s: %w", k.FilePath, err)
	}
	return key, true, nil
}
