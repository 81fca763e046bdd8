package otp

import (
	"encoding/base32"
	"testing"

	"github.com/pquerna/otp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RFC 4226 appendix D.
var rfcSecret = base32.StdEncoding.EncodeToString([]byte("12345678901234567890"))

func TestHOTP_GenerateCode_RFC4226(t *testing.T) {
	want := []string{"755224", "287082", "359152", "969429", "338314", "254676", "287922", "162583", "399871", "520489"}
	o := NewHOTP("authotp", otp.DigitsSix)

	for counter, code := range want {
		got, err := o.GenerateCode(rfcSecret, uint64(counter))
		require.NoError(t, err)
		assert.Equal(t, code, got, "counter %d", counter)
	}
}

func TestHOTP_Validate(t *testing.T) {
	o := NewHOTP("authotp", otp.DigitsSix)

	assert.True(t, o.Validate("287082", rfcSecret, 1))
	assert.False(t, o.Validate("287082", rfcSecret, 2))
	assert.False(t, o.Validate("000000", rfcSecret, 1))
	assert.False(t, o.Validate("", rfcSecret, 1))
	assert.False(t, o.Validate("287082", "", 1))
	assert.False(t, o.Validate("28708", rfcSecret, 1))
}

func TestHOTP_GenerateSecret(t *testing.T) {
	o := NewHOTP("authotp", otp.DigitsSix)

	a, err := o.GenerateSecret("a@example.com")
	require.NoError(t, err)
	b, err := o.GenerateSecret("a@example.com")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)

	code, err := o.GenerateCode(a, 7)
	require.NoError(t, err)
	assert.Len(t, code, 6)
	assert.True(t, o.Validate(code, a, 7))
}

func TestHOTP_EmptySecret(t *testing.T) {
	_, err := NewHOTP("authotp", 0).GenerateCode("", 1)
	assert.ErrorIs(t, err, ErrEmptySecret)
}
