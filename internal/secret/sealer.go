// Package secret seals caller-supplied API keys before they are stored.
package secret

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
)

const nonceSize = 24

// ErrMalformed is returned when a sealed value cannot be opened.
var ErrMalformed = errors.New("secret: malformed sealed value")

// Sealer encrypts short strings with NaCl secretbox.
type Sealer struct {
	key [32]byte
}

// NewSealer derives the sealing key from passphrase. An empty passphrase
// yields a random key, so sealed values do not survive a restart.
func NewSealer(passphrase string) (*Sealer, error) {
	s := &Sealer{}
	if passphrase == "" {
		if _, err := io.ReadFull(rand.Reader, s.key[:]); err != nil {
			return nil, fmt.Errorf("generate key: %w", err)
		}
		return s, nil
	}
	s.key = sha256.Sum256([]byte(passphrase))
	return s, nil
}

// Seal encrypts plaintext and returns it base64 encoded with the nonce
// prepended.
func (s *Sealer) Seal(plaintext string) (string, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	out := secretbox.Seal(nonce[:], []byte(plaintext), &nonce, &s.key)
	return base64.RawStdEncoding.EncodeToString(out), nil
}

// Open reverses Seal.
func (s *Sealer) Open(sealed string) (string, error) {
	raw, err := base64.RawStdEncoding.DecodeString(sealed)
	if err != nil || len(raw) < nonceSize+secretbox.Overhead {
		return "", ErrMalformed
	}
	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])

	plain, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, &s.key)
	if !ok {
		return "", ErrMalformed
	}
	return string(plain), nil
}
