package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/benefactorum/authotp/internal/identity/entity"
	"github.com/benefactorum/authotp/internal/pkg/goerror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsecase_Resend(t *testing.T) {
	t.Run("rotates an outstanding code", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		f.seedIdentity(t, "alice@example.com")
		_, err := f.uc.Connection(context.Background(), ConnectionInput{Email: "alice@example.com"})
		require.NoError(t, err)

		// Act
		out, err := f.uc.Resend(context.Background(), ResendInput{Email: "alice@example.com"})

		// Assert
		require.NoError(t, err)
		assert.Equal(t, entity.RedirectSignIn, out.RedirectTo)
		assert.Equal(t, uint64(2), f.db.identity("alice@example.com").OTPCounter)

		events := f.flush(t)
		require.Len(t, events, 2)
		assert.Equal(t, uint64(2), events[1].Counter)
		assert.Equal(t, f.currentCode(t, "alice@example.com"), f.openCode(t, events[1]))
	})

	t.Run("superseded code delivered last still reads as superseded", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		f.seedIdentity(t, "alice@example.com")
		release := make(chan struct{})
		f.mq.hold = func(msg OTPIssuedEvent) {
			if msg.Counter == 1 {
				<-release
			}
		}
		_, err := f.uc.Connection(context.Background(), ConnectionInput{Email: "alice@example.com"})
		require.NoError(t, err)

		// Act
		_, err = f.uc.Resend(context.Background(), ResendInput{Email: "alice@example.com"})
		require.NoError(t, err)
		require.Eventually(t, func() bool { return f.mq.count() == 1 }, time.Second, time.Millisecond)
		close(release)

		// Assert
		events := f.flush(t)
		require.Len(t, events, 2)
		assert.Equal(t, uint64(1), events[0].Counter)
		assert.Equal(t, uint64(2), events[1].Counter)
		assert.Equal(t, f.currentCode(t, "alice@example.com"), f.openCode(t, events[1]))
		assert.NotEqual(t, f.currentCode(t, "alice@example.com"), f.openCode(t, events[0]))
	})

	t.Run("unknown and malformed emails answer the same", func(t *testing.T) {
		for _, email := range []string{"ghost@example.com", "not-an-email"} {
			// Arrange
			f := newFixture(t)

			// Act
			out, err := f.uc.Resend(context.Background(), ResendInput{Email: email})

			// Assert
			require.NoError(t, err, email)
			assert.Equal(t, entity.RedirectSignIn, out.RedirectTo)
			assert.Empty(t, f.flush(t))
		}
	})

	t.Run("second resend in a minute is denied", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		f.seedIdentity(t, "alice@example.com")
		_, err := f.uc.Resend(context.Background(), ResendInput{Email: "alice@example.com"})
		require.NoError(t, err)

		// Act
		out, err := f.uc.Resend(context.Background(), ResendInput{Email: "alice@example.com"})

		// Assert
		assert.Nil(t, out)
		requireCode(t, err, goerror.CodeTooManyRequest)
		assert.Equal(t, uint64(1), f.db.identity("alice@example.com").OTPCounter)
	})
}
