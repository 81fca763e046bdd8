package hash

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// Hasher computes keyed digests that can be stored in place of a secret.
type Hasher interface {
	Hash(str string) string
	Verify(hashed, str string) bool
}

// HMACSHA256 is a Hasher keyed with a server secret.
type HMACSHA256 struct {
	secret []byte
}

// NewHMACSHA256 returns a hasher keyed with secret.
func NewHMACSHA256(secret []byte) *HMACSHA256 {
	k := make([]byte, len(secret))
	copy(k, secret)
	return &HMACSHA256{secret: k}
}

// Hash returns the hex encoded HMAC-SHA256 of str.
func (s *HMACSHA256) Hash(str string) string {
	return hex.EncodeToString(s.sum(str))
}

// Verify reports whether hashed is the digest of str. The comparison is constant time.
func (s *HMACSHA256) Verify(hashed, str string) bool {
	return subtle.ConstantTimeCompare([]byte(hashed), []byte(s.Hash(str))) == 1
}

func (s *HMACSHA256) sum(str string) []byte {
	h := hmac.New(sha256.New, s.secret)
	h.Write([]byte(str))
	return h.Sum(nil)
}
