package sealer

import (
	"crypto/sha256"
	"errors"
	"io"
	"sync"

	"golang.org/x/crypto/hkdf"
)

// ErrMasterKeyTooShort is returned for master secrets under 32 bytes.
var ErrMasterKeyTooShort = errors.New("sealer: master key must be at least 32 bytes")

// HKDFKeys derives one key per purpose from a single master secret, so a
// leaked delivery key does not open stored OTP secrets.
type HKDFKeys struct {
	master []byte
	salt   []byte

	mu    sync.Mutex
	cache map[Purpose][]byte
}

// NewHKDFKeys returns a provider for master. salt may be empty.
func NewHKDFKeys(master, salt []byte) (*HKDFKeys, error) {
	if len(master) < keySize {
		return nil, ErrMasterKeyTooShort
	}
	return &HKDFKeys{
		master: append([]byte(nil), master...),
		salt:   append([]byte(nil), salt...),
		cache:  make(map[Purpose][]byte),
	}, nil
}

// Key returns the derived key for scope.Purpose.
func (p *HKDFKeys) Key(scope Scope) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if k, ok := p.cache[scope.Purpose]; ok {
		return append([]byte(nil), k...), nil
	}

	k := make([]byte, keySize)
	r := hkdf.New(sha256.New, p.master, p.salt, []byte("authotp/"+string(scope.Purpose)))
	if _, err := io.ReadFull(r, k); err != nil {
		return nil, err
	}
	p.cache[scope.Purpose] = k

	return append([]byte(nil), k...), nil
}
