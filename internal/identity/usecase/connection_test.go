package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benefactorum/authotp/internal/identity/entity"
	"github.com/benefactorum/authotp/internal/pkg/goerror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsecase_Connection(t *testing.T) {
	t.Run("unknown email goes to sign-up without side effects", func(t *testing.T) {
		// Arrange
		f := newFixture(t)

		// Act
		out, err := f.uc.Connection(context.Background(), ConnectionInput{Email: "new@example.com"})

		// Assert
		require.NoError(t, err)
		assert.Equal(t, entity.RedirectSignUp, out.RedirectTo)
		assert.False(t, out.CodeSent)
		assert.Nil(t, f.db.identity("new@example.com"))
		assert.Empty(t, f.flush(t))
	})

	t.Run("known email gets one code and repeated calls reuse it", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		f.seedIdentity(t, "alice@example.com")

		// Act
		first, err1 := f.uc.Connection(context.Background(), ConnectionInput{Email: "Alice@Example.com "})
		second, err2 := f.uc.Connection(context.Background(), ConnectionInput{Email: "alice@example.com"})

		// Assert
		require.NoError(t, err1)
		require.NoError(t, err2)
		assert.Equal(t, entity.RedirectSignIn, first.RedirectTo)
		assert.True(t, first.CodeSent)
		assert.Equal(t, entity.RedirectSignIn, second.RedirectTo)
		assert.False(t, second.CodeSent)

		idn := f.db.identity("alice@example.com")
		assert.Equal(t, uint64(1), idn.OTPCounter)
		require.NotNil(t, idn.OTPExpiresAt)
		assert.Equal(t, f.clock.Now().Add(defaultOTPValidity), *idn.OTPExpiresAt)

		events := f.flush(t)
		require.Len(t, events, 1)
		assert.Equal(t, idn.ID, events[0].IdentityID)
		assert.Equal(t, uint64(1), events[0].Counter)
		assert.Equal(t, f.currentCode(t, "alice@example.com"), f.openCode(t, events[0]))
	})

	t.Run("code is published inline when the manager refuses work", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		f.seedIdentity(t, "alice@example.com")
		require.NoError(t, f.gm.Wait())

		// Act
		out, err := f.uc.Connection(context.Background(), ConnectionInput{Email: "alice@example.com"})

		// Assert
		require.NoError(t, err)
		assert.True(t, out.CodeSent)
		require.Equal(t, 1, f.mq.count())
		events := f.flush(t)
		assert.Equal(t, uint64(1), events[0].Counter)
		assert.Equal(t, f.currentCode(t, "alice@example.com"), f.openCode(t, events[0]))
	})

	t.Run("expired code is replaced", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		f.seedIdentity(t, "alice@example.com")
		_, err := f.uc.Connection(context.Background(), ConnectionInput{Email: "alice@example.com"})
		require.NoError(t, err)
		f.clock.Advance(defaultOTPValidity)

		// Act
		out, err := f.uc.Connection(context.Background(), ConnectionInput{Email: "alice@example.com"})

		// Assert
		require.NoError(t, err)
		assert.True(t, out.CodeSent)
		assert.Equal(t, uint64(2), f.db.identity("alice@example.com").OTPCounter)

		events := f.flush(t)
		require.Len(t, events, 2)
		assert.NotEqual(t, f.openCode(t, events[0]), f.openCode(t, events[1]))
	})

	t.Run("malformed email is rejected", func(t *testing.T) {
		// Arrange
		f := newFixture(t)

		// Act
		out, err := f.uc.Connection(context.Background(), ConnectionInput{Email: "not-an-email"})

		// Assert
		assert.Nil(t, out)
		requireCode(t, err, goerror.CodeInvalidInput)
		assert.Contains(t, fieldErrors(err), "email")
	})

	t.Run("eleventh attempt in a minute is denied", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		for range 10 {
			_, err := f.uc.Connection(context.Background(), ConnectionInput{Email: "bob@example.com"})
			require.NoError(t, err)
		}

		// Act
		out, err := f.uc.Connection(context.Background(), ConnectionInput{Email: "bob@example.com"})

		// Assert
		assert.Nil(t, out)
		gerr := requireCode(t, err, goerror.CodeTooManyRequest)
		assert.Positive(t, gerr.RetryAfter())

		f.clock.Advance(time.Minute)
		_, err = f.uc.Connection(context.Background(), ConnectionInput{Email: "bob@example.com"})
		assert.NoError(t, err)
	})

	t.Run("store failure is a server error", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		f.db.err = errors.New("connection reset")

		// Act
		out, err := f.uc.Connection(context.Background(), ConnectionInput{Email: "alice@example.com"})

		// Assert
		assert.Nil(t, out)
		requireCode(t, err, goerror.CodeInternal)
	})
}
