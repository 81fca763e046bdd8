package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/benefactorum/authotp/internal/identity/entity"
	"github.com/benefactorum/authotp/internal/pkg/goerror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRegistration() RegistrationInput {
	return RegistrationInput{
		Email:             "grace@example.com",
		FirstName:         "Grace",
		LastName:          "Hopper",
		AcceptsConditions: true,
		CaptchaToken:      "token",
		RemoteAddr:        "203.0.113.7",
	}
}

func TestUsecase_Registration(t *testing.T) {
	t.Run("creates the identity and sends the first code", func(t *testing.T) {
		// Arrange
		f := newFixture(t)

		// Act
		out, err := f.uc.Registration(context.Background(), validRegistration())

		// Assert
		require.NoError(t, err)
		assert.Equal(t, entity.RedirectSignIn, out.RedirectTo)

		idn := f.db.identity("grace@example.com")
		require.NotNil(t, idn)
		assert.False(t, idn.Verified)
		assert.Equal(t, "Grace", idn.FirstName)
		assert.Equal(t, f.clock.Now(), idn.TermsAcceptedAt)
		assert.Equal(t, uint64(1), idn.OTPCounter)
		assert.NotContains(t, string(idn.OTPSecret), "GRACE")

		events := f.flush(t)
		require.Len(t, events, 1)
		assert.Equal(t, "grace@example.com", events[0].Email)
		assert.Equal(t, "Grace", events[0].FirstName)
		assert.Equal(t, f.currentCode(t, "grace@example.com"), f.openCode(t, events[0]))
	})

	tests := []struct {
		name    string
		mutate  func(*RegistrationInput)
		setup   func(*testing.T, *fixture)
		code    goerror.Code
		field   string
		created bool
	}{
		{
			name:   "consent withheld",
			mutate: func(in *RegistrationInput) { in.AcceptsConditions = false },
			code:   goerror.CodeInvalidInput,
			field:  "accepts_conditions",
		},
		{
			name:  "captcha rejected",
			setup: func(_ *testing.T, f *fixture) { f.captcha.ok = false },
			code:  goerror.CodeInvalidInput,
			field: "captcha_token",
		},
		{
			name:  "captcha provider down",
			setup: func(_ *testing.T, f *fixture) { f.captcha.err = errors.New("timeout") },
			code:  goerror.CodeInternal,
		},
		{
			name:   "invalid names",
			mutate: func(in *RegistrationInput) { in.FirstName = "R2D2" },
			code:   goerror.CodeInvalidInput,
			field:  "first_name",
		},
		{
			name:    "email taken",
			setup:   func(t *testing.T, f *fixture) { f.seedIdentity(t, "grace@example.com") },
			code:    goerror.CodeInvalidInput,
			field:   "email",
			created: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			f := newFixture(t)
			if tt.setup != nil {
				tt.setup(t, f)
			}
			in := validRegistration()
			if tt.mutate != nil {
				tt.mutate(&in)
			}

			// Act
			out, err := f.uc.Registration(context.Background(), in)

			// Assert
			assert.Nil(t, out)
			requireCode(t, err, tt.code)
			if tt.field != "" {
				assert.Contains(t, fieldErrors(err), tt.field)
			}
			if !tt.created {
				assert.Nil(t, f.db.identity("grace@example.com"))
			}
			assert.Empty(t, f.flush(t))
		})
	}
}
