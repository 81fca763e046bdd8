package captcha

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benefactorum/authotp/internal/pkg/instrument"
	"github.com/sethvargo/go-retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCaptcha(t *testing.T, h http.HandlerFunc) *Captcha {
	t.Helper()

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c := New(Options{Enabled: true, VerifyURL: srv.URL, SecretKey: "secret"}, instrument.NewNoop())
	c.backoff = func() retry.Backoff {
		return retry.WithMaxRetries(2, retry.NewConstant(time.Millisecond))
	}
	return c
}

func TestCaptcha_Verify(t *testing.T) {
	t.Run("passes the form and returns the verdict", func(t *testing.T) {
		// Arrange
		c := newTestCaptcha(t, func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "secret", r.PostForm.Get("secret"))
			assert.Equal(t, "tok", r.PostForm.Get("response"))
			assert.Equal(t, "203.0.113.9", r.PostForm.Get("remoteip"))
			_, _ = w.Write([]byte(`{"success":true,"hostname":"example.com"}`))
		})

		// Act
		ok, err := c.Verify(context.Background(), "tok", "203.0.113.9")

		// Assert
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("rejection is a false verdict", func(t *testing.T) {
		// Arrange
		c := newTestCaptcha(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"success":false,"error-codes":["invalid-input-response"]}`))
		})

		// Act
		ok, err := c.Verify(context.Background(), "tok", "")

		// Assert
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("blank token never reaches the verifier", func(t *testing.T) {
		// Arrange
		var calls atomic.Int32
		c := newTestCaptcha(t, func(http.ResponseWriter, *http.Request) { calls.Add(1) })

		// Act
		ok, err := c.Verify(context.Background(), "  ", "")

		// Assert
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Zero(t, calls.Load())
	})

	t.Run("server errors are retried", func(t *testing.T) {
		// Arrange
		var calls atomic.Int32
		c := newTestCaptcha(t, func(w http.ResponseWriter, _ *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			_, _ = w.Write([]byte(`{"success":true}`))
		})

		// Act
		ok, err := c.Verify(context.Background(), "tok", "")

		// Assert
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("persistent failure is an error", func(t *testing.T) {
		// Arrange
		c := newTestCaptcha(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})

		// Act
		ok, err := c.Verify(context.Background(), "tok", "")

		// Assert
		assert.False(t, ok)
		assert.ErrorIs(t, err, errUnexpectedStatus)
	})

	t.Run("disabled accepts everything", func(t *testing.T) {
		// Arrange
		c := New(Options{}, instrument.NewNoop())

		// Act
		ok, err := c.Verify(context.Background(), "", "")

		// Assert
		require.NoError(t, err)
		assert.True(t, ok)
	})
}
