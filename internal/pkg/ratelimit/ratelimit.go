// Package ratelimit counts attempts per key inside fixed windows.
//
// A window opens on the first attempt for a key and lasts Policy.Window.
// Denied attempts are not counted, so the stored count never exceeds the limit.
package ratelimit

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrInvalidPolicy is returned for a non-positive limit or window.
var ErrInvalidPolicy = errors.New("ratelimit: limit and window must be positive")

// Policy is the ceiling for one action.
type Policy struct {
	Limit  int64
	Window time.Duration
}

func (p Policy) valid() bool {
	return p.Limit > 0 && p.Window > 0
}

// Decision is the outcome of one admission check.
type Decision struct {
	Allowed    bool
	Count      int64
	Remaining  int64
	RetryAfter time.Duration
}

// Limiter admits or denies one attempt for key.
type Limiter interface {
	Allow(ctx context.Context, key string, p Policy) (Decision, error)
}

// Key builds "<action>:<discriminator>", falling back to the caller address
// when the discriminator is blank and to "unknown" when both are.
func Key(action, discriminator, addr string) string {
	d := strings.TrimSpace(discriminator)
	if d == "" {
		if addr = strings.TrimSpace(addr); addr != "" {
			d = "ip:" + addr
		} else {
			d = "unknown"
		}
	}
	return action + ":" + d
}

func decide(count, limit int64, allowed bool, ttl time.Duration) Decision {
	d := Decision{Allowed: allowed, Count: count, Remaining: max(limit-count, 0)}
	if !allowed {
		d.RetryAfter = max(ttl, 0)
	}
	return d
}
