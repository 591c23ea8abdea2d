package assistant

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
)

const nonceSize = 24

// Sealer encrypts API keys at rest with NaCl secretbox.
type Sealer struct {
	key [32]byte
}

// NewSealer accepts a 32 byte key, raw or base64 encoded.
func NewSealer(secret string) (*Sealer, error) {
	raw := []byte(secret)
	if len(raw) != 32 {
		decoded, err := base64.StdEncoding.DecodeString(secret)
		if err != nil || len(decoded) != 32 {
			return nil, fmt.Errorf("assistant: secret key must be 32 bytes (raw or base64)")
		}
		raw = decoded
	}
	s := &Sealer{}
	copy(s.key[:], raw)
	return s, nil
}

// Seal encrypts plain under a fresh random nonce.
func (s *Sealer) Seal(plain string) (string, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("assistant: nonce: %w", err)
	}
	box := secretbox.Seal(nonce[:], []byte(plain), &nonce, &s.key)
	return base64.StdEncoding.EncodeToString(box), nil
}

// Open decrypts a value produced by Seal.
func (s *Sealer) Open(sealed string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil || len(raw) < nonceSize+secretbox.Overhead {
		return "", ErrCorruptSecret
	}
	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])
	plain, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, &s.key)
	if !ok {
		return "", ErrCorruptSecret
	}
	return string(plain), nil
}
