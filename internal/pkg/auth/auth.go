// Package auth carries the authenticated caller through a request context.
package auth

import (
	"context"
	"errors"
)

// ErrUnauthenticated is returned by resolvers when a token matches no live session.
var ErrUnauthenticated = errors.New("auth: unauthenticated")

// Principal is the caller behind a valid session cookie.
type Principal struct {
	IdentityID int64
	SessionID  int64
	Email      string
}

type principalKey struct{}

// SetPrincipal returns a copy of ctx carrying p.
func SetPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// GetPrincipal returns the principal on ctx, or nil for guests.
func GetPrincipal(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey{}).(*Principal)
	return p
}
