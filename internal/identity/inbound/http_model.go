package inbound

import (
	"net/http"
	"time"

	"github.com/benefactorum/authotp/internal/pkg/valueobject"
)

// redirect is embedded by responses that tell the client where to go next.
type redirect struct {
	To string `json:"redirect_to"`
}

func (r redirect) RedirectTo() string { return r.To }

type ConnectionRequest struct {
	Email string `json:"email"`
}

type ConnectionResponse struct {
	redirect
	codeSent bool
}

func (r ConnectionResponse) Message() string {
	if r.codeSent {
		return "A sign-in code has been sent to your email."
	}
	return "Continue to the next step."
}

type ResendRequest struct {
	Email string `json:"email"`
}

type ResendResponse struct {
	redirect
}

func (ResendResponse) Message() string {
	return "If an account with that email exists, a new code has been sent."
}

type RegistrationRequest struct {
	Email             string           `json:"email"`
	FirstName         string           `json:"first_name"`
	LastName          string           `json:"last_name"`
	AcceptsConditions valueobject.Bool `json:"accepts_conditions"`
	CaptchaToken      string           `json:"captcha_token"`
}

type RegistrationResponse struct {
	redirect
}

func (RegistrationResponse) Message() string {
	return "Registration successful. A sign-in code has been sent to your email."
}

type SignInRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type SignInResponse struct {
	redirect
	cookie *http.Cookie
}

func (SignInResponse) Message() string { return "Signed in." }

func (r SignInResponse) Cookies() []*http.Cookie { return []*http.Cookie{r.cookie} }

type SignOutResponse struct {
	redirect
	cookie *http.Cookie
}

func (SignOutResponse) Message() string { return "Signed out." }

func (r SignOutResponse) Cookies() []*http.Cookie {
	if r.cookie == nil {
		return nil
	}
	return []*http.Cookie{r.cookie}
}

type SessionResponse struct {
	ID        int64     `json:"id,string"`
	UserAgent string    `json:"user_agent"`
	IPAddress string    `json:"ip_address"`
	CreatedAt time.Time `json:"created_at"`
	Current   bool      `json:"current"`
}

type MeResponse struct {
	ID              int64     `json:"id,string"`
	Email           string    `json:"email"`
	FirstName       string    `json:"first_name"`
	LastName        string    `json:"last_name"`
	Verified        bool      `json:"verified"`
	TermsAcceptedAt time.Time `json:"terms_accepted_at"`
	CreatedAt       time.Time `json:"created_at"`
}
