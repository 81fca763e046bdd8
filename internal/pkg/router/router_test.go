package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/benefactorum/authotp/internal/pkg/auth"
	"github.com/benefactorum/authotp/internal/pkg/goerror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type redirectResp struct {
	To string `json:"redirect_to"`
}

func (r redirectResp) RedirectTo() string { return r.To }
func (redirectResp) Message() string      { return "signed in" }
func (redirectResp) Cookies() []*http.Cookie {
	return []*http.Cookie{{Name: "session_token", Value: "v", HttpOnly: true}}
}

func TestChain_Order(t *testing.T) {
	var order []string
	mw := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { order = append(order, "handler") }), mw("a"), mw("b"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"a", "b", "handler"}, order)
}

func TestRouter_SuccessEnvelope(t *testing.T) {
	// Arrange
	r := NewRouter(Config{})
	r.POST("/sessions", func(*Request) (any, error) { return redirectResp{To: "/"}, nil })

	// Act
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sessions", strings.NewReader(`{}`)))

	// Assert
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.Contains(t, rec.Header().Get("Set-Cookie"), "session_token=v")

	var body struct {
		Message string       `json:"message"`
		Data    redirectResp `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "signed in", body.Message)
	assert.Equal(t, "/", body.Data.To)
}

func TestRouter_ErrorEnvelope(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantRetry  string
		wantFields map[string]string
	}{
		{name: "rate limited", err: goerror.NewRateLimited(1500 * time.Millisecond), wantStatus: http.StatusTooManyRequests, wantRetry: "2"},
		{name: "field error", err: goerror.NewInvalidInput(nil, "email", "is invalid"), wantStatus: http.StatusUnprocessableEntity, wantFields: map[string]string{"email": "is invalid"}},
		{name: "plain error", err: errors.New("boom"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRouter(Config{})
			r.POST("/x", func(*Request) (any, error) { return nil, tt.err })

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/x", nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantRetry, rec.Header().Get("Retry-After"))

			var body errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantFields, body.Error)
		})
	}
}

func TestRouter_RecoversPanic(t *testing.T) {
	r := NewRouter(Config{})
	r.GET("/panic", func(*Request) (any, error) { panic("boom") })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

type stubTokens struct{ token string }

func (s stubTokens) Read(*http.Request) (string, bool) { return s.token, s.token != "" }

type stubResolver struct {
	p   *auth.Principal
	err error
}

func (s stubResolver) Authenticate(context.Context, string) (*auth.Principal, error) {
	return s.p, s.err
}

func TestRequireSession(t *testing.T) {
	tests := []struct {
		name       string
		tokens     stubTokens
		resolver   stubResolver
		wantStatus int
	}{
		{name: "no cookie", tokens: stubTokens{}, wantStatus: http.StatusUnauthorized},
		{name: "unknown token", tokens: stubTokens{"t"}, resolver: stubResolver{err: auth.ErrUnauthenticated}, wantStatus: http.StatusUnauthorized},
		{name: "store down", tokens: stubTokens{"t"}, resolver: stubResolver{err: errors.New("db")}, wantStatus: http.StatusInternalServerError},
		{name: "live session", tokens: stubTokens{"t"}, resolver: stubResolver{p: &auth.Principal{IdentityID: 7}}, wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen *auth.Principal
			h := RequireSession(tt.tokens, tt.resolver)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = auth.GetPrincipal(r.Context())
			}))

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, int64(7), seen.IdentityID)
			}
		})
	}
}

func TestGuestOnly(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTeapot) })

	rec := httptest.NewRecorder()
	GuestOnly(stubTokens{}, stubResolver{}, "/")(next).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)

	rec = httptest.NewRecorder()
	GuestOnly(stubTokens{"t"}, stubResolver{err: auth.ErrUnauthenticated}, "/")(next).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)

	rec = httptest.NewRecorder()
	GuestOnly(stubTokens{"t"}, stubResolver{p: &auth.Principal{IdentityID: 1}}, "/")(next).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestRealIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1", realIP(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", realIP(r))

	r.Header.Set("X-Real-IP", "not-an-ip")
	assert.Equal(t, "203.0.113.9", realIP(r))
}
