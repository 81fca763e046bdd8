// Package otp wraps counter-based one-time passwords (HOTP, RFC 4226).
//
// A code is a pure function of a shared secret and a counter. The caller owns
// the counter and its expiry; this package only derives and compares codes.
package otp
