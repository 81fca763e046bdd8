// Package sealer encrypts small secrets with AES-256-GCM, binding each
// ciphertext to the subject and purpose it was produced for.
package sealer

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Purpose separates key material and AAD between unrelated uses.
type Purpose string

const (
	// PurposeOTPSecret protects HOTP secrets at rest.
	PurposeOTPSecret Purpose = "otp_secret"
	// PurposeOTPDelivery protects codes travelling through the message broker.
	PurposeOTPDelivery Purpose = "otp_delivery"
)

// Scope is authenticated alongside the ciphertext. Opening with a different
// scope fails.
type Scope struct {
	SubjectID int64
	Purpose   Purpose
}

// Sealer seals and opens scoped secrets.
type Sealer interface {
	Seal(plaintext []byte, scope Scope) ([]byte, error)
	Open(ciphertext []byte, scope Scope) ([]byte, error)
}

// KeyProvider returns a 32-byte key for a scope.
type KeyProvider interface {
	Key(scope Scope) ([]byte, error)
}

// Layout: uint16 version | 12-byte nonce | ciphertext+tag.
const (
	version   uint16 = 1
	nonceSize        = 12
	keySize          = 32
	headerLen        = 2 + nonceSize
)

var (
	ErrNotConfigured      = errors.New("sealer: key provider not configured")
	ErrPlaintextEmpty     = errors.New("sealer: plaintext is empty")
	ErrInvalidKeyLength   = errors.New("sealer: invalid key length")
	ErrCiphertextTooShort = errors.New("sealer: ciphertext too short")
	ErrUnsupportedVersion = errors.New("sealer: unsupported ciphertext version")
	ErrOpenFailed         = errors.New("sealer: open failed")
)

// AESGCM is the Sealer used in production.
type AESGCM struct {
	keys KeyProvider
}

// NewAESGCM returns an AES-256-GCM sealer backed by keys.
func NewAESGCM(keys KeyProvider) *AESGCM {
	return &AESGCM{keys: keys}
}

func (s *AESGCM) aead(scope Scope) (cipher.AEAD, error) {
	if s == nil || s.keys == nil {
		return nil, ErrNotConfigured
	}

	key, err := s.keys.Key(scope)
	if err != nil {
		return nil, fmt.Errorf("sealer: key provider: %w", err)
	}
	if len(key) != keySize {
		return nil, fmt.Errorf("sealer: got %d byte key: %w", len(key), ErrInvalidKeyLength)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCMWithNonceSize(block, nonceSize)
}

// Seal encrypts plaintext for scope.
func (s *AESGCM) Seal(plaintext []byte, scope Scope) ([]byte, error) {
	if len(plaintext) == 0 {
		return nil, ErrPlaintextEmpty
	}

	gcm, err := s.aead(scope)
	if err != nil {
		return nil, err
	}

	out := make([]byte, headerLen, headerLen+len(plaintext)+gcm.Overhead())
	binary.BigEndian.PutUint16(out[:2], version)
	if _, err := io.ReadFull(rand.Reader, out[2:headerLen]); err != nil {
		return nil, fmt.Errorf("sealer: nonce: %w", err)
	}

	return gcm.Seal(out, out[2:headerLen], plaintext, aad(scope)), nil
}

// Open decrypts ciphertext sealed for scope. Any mismatch is reported as
// ErrOpenFailed without saying which part was wrong.
func (s *AESGCM) Open(ciphertext []byte, scope Scope) ([]byte, error) {
	if len(ciphertext) <= headerLen {
		return nil, ErrCiphertextTooShort
	}
	if v := binary.BigEndian.Uint16(ciphertext[:2]); v != version {
		return nil, fmt.Errorf("sealer: version %d: %w", v, ErrUnsupportedVersion)
	}

	gcm, err := s.aead(scope)
	if err != nil {
		return nil, err
	}

	plain, err := gcm.Open(nil, ciphertext[2:headerLen], ciphertext[headerLen:], aad(scope))
	if err != nil {
		return nil, ErrOpenFailed
	}
	return plain, nil
}

func aad(s Scope) []byte {
	sum := sha256.Sum256(fmt.Appendf(nil, "subject=%d\npurpose=%s\n", s.SubjectID, s.Purpose))
	return sum[:]
}
