package otp

import (
	"errors"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/hotp"
)

// ErrEmptySecret is returned when a code is requested for a blank secret.
var ErrEmptySecret = errors.New("otp: secret is empty")

// OTP derives and checks counter-based codes.
type OTP interface {
	// GenerateSecret returns a fresh base32 secret.
	GenerateSecret(accountName string) (string, error)
	// GenerateCode derives the code for secret at counter.
	GenerateCode(secret string, counter uint64) (string, error)
	// Validate reports whether code matches secret at counter.
	Validate(code, secret string, counter uint64) bool
}

// HOTP implements OTP with RFC 4226 over SHA1.
type HOTP struct {
	issuer string
	digits otp.Digits
}

// NewHOTP returns an HOTP engine. Digits other than six or eight fall back to six.
func NewHOTP(issuer string, digits otp.Digits) *HOTP {
	if digits != otp.DigitsSix && digits != otp.DigitsEight {
		digits = otp.DigitsSix
	}
	return &HOTP{issuer: issuer, digits: digits}
}

// Digits returns the configured code length.
func (o *HOTP) Digits() int {
	return o.digits.Length()
}

func (o *HOTP) opts() hotp.ValidateOpts {
	return hotp.ValidateOpts{Digits: o.digits, Algorithm: otp.AlgorithmSHA1}
}

// GenerateSecret returns a 160-bit base32 secret.
func (o *HOTP) GenerateSecret(accountName string) (string, error) {
	key, err := hotp.Generate(hotp.GenerateOpts{
		Issuer:      o.issuer,
		AccountName: accountName,
		SecretSize:  20,
		Digits:      o.digits,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", err
	}
	return key.Secret(), nil
}

// GenerateCode derives the code for secret at counter.
func (o *HOTP) GenerateCode(secret string, counter uint64) (string, error) {
	if secret == "" {
		return "", ErrEmptySecret
	}
	return hotp.GenerateCodeCustom(secret, counter, o.opts())
}

// Validate compares in constant time. Malformed input yields false.
func (o *HOTP) Validate(code, secret string, counter uint64) bool {
	if secret == "" || code == "" {
		return false
	}
	ok, err := hotp.ValidateCustom(code, counter, secret, o.opts())
	return ok && err == nil
}
