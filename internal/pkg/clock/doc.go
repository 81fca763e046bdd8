// Package clock hides time.Now behind a small interface.
//
// OTP expiry and rate-limit windows depend on the current instant, so the
// usecases take a Clocker and tests drive a Manual clock forward explicitly.
package clock
