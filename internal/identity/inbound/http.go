package inbound

import (
	"context"
	"net/http"

	"github.com/benefactorum/authotp/internal/identity/entity"
	"github.com/benefactorum/authotp/internal/identity/usecase"
	"github.com/benefactorum/authotp/internal/pkg/auth"
	"github.com/benefactorum/authotp/internal/pkg/router"
)

type uc interface {
	Connection(ctx context.Context, in usecase.ConnectionInput) (*usecase.ConnectionOutput, error)
	Resend(ctx context.Context, in usecase.ResendInput) (*usecase.ResendOutput, error)
	Registration(ctx context.Context, in usecase.RegistrationInput) (*usecase.RegistrationOutput, error)
	SignIn(ctx context.Context, in usecase.SignInInput) (*usecase.SignInOutput, error)
	SignOut(ctx context.Context, in usecase.SignOutInput) (*usecase.SignOutOutput, error)

	Authenticate(ctx context.Context, token string) (*auth.Principal, error)
	ListSessions(ctx context.Context) ([]usecase.SessionItem, error)
	Me(ctx context.Context) (*usecase.MeOutput, error)
}

// sessionCookie issues, clears and reads the signed session cookie.
type sessionCookie interface {
	router.TokenReader
	Issue(value string) *http.Cookie
	Clear() *http.Cookie
}

func RegisterHTTPEndpoint(r *router.Router, uc uc, cookies sessionCookie) {
	end := &HTTPEndpoint{uc: uc, cookies: cookies}

	guest := router.GuestOnly(cookies, uc, entity.RedirectHome)
	member := router.RequireSession(cookies, uc)

	// Guests only
	r.POST("/api/v1/identity/connections", end.Connection, guest)
	r.POST("/api/v1/identity/connections/resend", end.Resend, guest)
	r.POST("/api/v1/identity/registrations", end.Registration, guest)
	r.POST("/api/v1/identity/sessions", end.SignIn, guest)

	// Signed in
	r.GET("/api/v1/identity/sessions", end.ListSessions, member)
	r.DELETE("/api/v1/identity/sessions/:id", end.SignOut, member)
	r.GET("/api/v1/identity/me", end.Me, member)
}
