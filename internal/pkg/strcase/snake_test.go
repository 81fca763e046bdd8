package strcase

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToLowerSnake(t *testing.T) {
	tests := map[string]string{
		"":                   "",
		"email":              "email",
		"FirstName":          "first_name",
		"CaptchaToken":       "captcha_token",
		"IdentityID":         "identity_id",
		"HTTPServer":         "http_server",
		"accepts_conditions": "accepts_conditions",
		"first-name":         "first_name",
		"user agent":         "user_agent",
		"Code2FA":            "code2_fa",
		"__x__":              "x",
	}
	for in, want := range tests {
		assert.Equal(t, want, ToLowerSnake(in), in)
	}
}
