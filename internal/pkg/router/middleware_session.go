package router

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/benefactorum/authotp/internal/pkg/auth"
)

// SessionResolver turns a verified cookie token into the caller behind it.
// It returns auth.ErrUnauthenticated when the token matches no session.
type SessionResolver interface {
	Authenticate(ctx context.Context, token string) (*auth.Principal, error)
}

// TokenReader extracts the verified session token from a request.
type TokenReader interface {
	Read(r *http.Request) (string, bool)
}

func resolve(r *http.Request, tokens TokenReader, resolver SessionResolver) (*auth.Principal, error) {
	token, ok := tokens.Read(r)
	if !ok {
		return nil, auth.ErrUnauthenticated
	}
	return resolver.Authenticate(r.Context(), token)
}

// RequireSession lets only callers with a live session through and puts
// their principal on the request context.
func RequireSession(tokens TokenReader, resolver SessionResolver) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := resolve(r, tokens, resolver)
			switch {
			case errors.Is(err, auth.ErrUnauthenticated):
				writeJSON(w, errorResponse{Message: "Authentication required"}, http.StatusUnauthorized)
				return
			case err != nil:
				slog.ErrorContext(r.Context(), "failed to resolve session", "error", err)
				writeJSON(w, errorResponse{Message: "Internal server error"}, http.StatusInternalServerError)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.SetPrincipal(r.Context(), p)))
		})
	}
}

// GuestOnly rejects callers that already hold a live session and points
// them back to home.
func GuestOnly(tokens TokenReader, resolver SessionResolver, home string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, err := resolve(r, tokens, resolver)
			switch {
			case errors.Is(err, auth.ErrUnauthenticated):
				next.ServeHTTP(w, r)
			case err != nil:
				slog.ErrorContext(r.Context(), "failed to resolve session", "error", err)
				writeJSON(w, errorResponse{Message: "Internal server error"}, http.StatusInternalServerError)
			default:
				w.Header().Set("Location", home)
				writeJSON(w, errorResponse{Message: "Already authenticated", RedirectTo: home}, http.StatusForbidden)
			}
		})
	}
}
