// Package cookie issues and reads HMAC-signed cookies.
package cookie

import (
	"net/http"
	"strings"
	"time"

	"github.com/benefactorum/authotp/internal/pkg/hash"
)

// Permanent is the lifetime used for "remember me until sign-out" cookies.
const Permanent = 20 * 365 * 24 * time.Hour

// Options describes the cookie attributes. HttpOnly is always set.
type Options struct {
	Name     string
	Domain   string
	Path     string
	Secure   bool
	SameSite http.SameSite
	MaxAge   time.Duration
}

// Signer signs cookie values so a tampered value is rejected before it
// reaches any lookup.
type Signer struct {
	mac  hash.Hasher
	opts Options
}

// NewSigner returns a signer for one cookie described by opts.
func NewSigner(mac hash.Hasher, opts Options) *Signer {
	if opts.Path == "" {
		opts.Path = "/"
	}
	if opts.SameSite == 0 {
		opts.SameSite = http.SameSiteLaxMode
	}
	if opts.MaxAge <= 0 {
		opts.MaxAge = Permanent
	}
	return &Signer{mac: mac, opts: opts}
}

// Name is the cookie name.
func (s *Signer) Name() string {
	return s.opts.Name
}

// Sign returns "value.signature".
func (s *Signer) Sign(value string) string {
	return value + "." + s.mac.Hash(value)
}

// Verify returns the value inside signed when its signature holds.
func (s *Signer) Verify(signed string) (string, bool) {
	i := strings.LastIndexByte(signed, '.')
	if i <= 0 || i == len(signed)-1 {
		return "", false
	}
	value, sig := signed[:i], signed[i+1:]
	if !s.mac.Verify(sig, value) {
		return "", false
	}
	return value, true
}

// Issue builds the Set-Cookie for value.
func (s *Signer) Issue(value string) *http.Cookie {
	return &http.Cookie{
		Name:     s.opts.Name,
		Value:    s.Sign(value),
		Domain:   s.opts.Domain,
		Path:     s.opts.Path,
		Secure:   s.opts.Secure,
		HttpOnly: true,
		SameSite: s.opts.SameSite,
		MaxAge:   int(s.opts.MaxAge / time.Second),
	}
}

// Clear builds a Set-Cookie that deletes the cookie.
func (s *Signer) Clear() *http.Cookie {
	return &http.Cookie{
		Name:     s.opts.Name,
		Value:    "",
		Domain:   s.opts.Domain,
		Path:     s.opts.Path,
		Secure:   s.opts.Secure,
		HttpOnly: true,
		SameSite: s.opts.SameSite,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
	}
}

// Read returns the verified value of the cookie on r.
func (s *Signer) Read(r *http.Request) (string, bool) {
	c, err := r.Cookie(s.opts.Name)
	if err != nil || c.Value == "" {
		return "", false
	}
	return s.Verify(c.Value)
}
