package inbound

import (
	"github.com/benefactorum/authotp/internal/identity/usecase"
	"github.com/benefactorum/authotp/internal/pkg/router"
	"github.com/samber/lo"
)

// HTTPEndpoint exposes the passwordless sign-in flows.
type HTTPEndpoint struct {
	uc      uc
	cookies sessionCookie
}

// Connection starts sign-in or sign-up for an email.
// @Summary Start a connection
// @Description Sends a code to a known email and points to sign-in, or points an unknown email to sign-up.
// @Tags Identity
// @Accept json
// @Produce json
// @Param request body ConnectionRequest true "Connection payload"
// @Success 200 {object} router.successResponse{data=ConnectionResponse} "Next step"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 403 {object} router.errorResponse "Already authenticated"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 429 {object} router.errorResponse "Too many attempts"
// @Router /api/v1/identity/connections [post]
func (h *HTTPEndpoint) Connection(r *router.Request) (any, error) {
	var req ConnectionRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Connection(r.Context(), usecase.ConnectionInput{
		Email:      req.Email,
		RemoteAddr: r.ClientIP(),
	})
	if err != nil {
		return nil, err
	}

	return ConnectionResponse{redirect: redirect{To: resp.RedirectTo}, codeSent: resp.CodeSent}, nil
}

// Resend rotates the code for an email.
// @Summary Resend a code
// @Description Always answers the same way whether or not the email is registered.
// @Tags Identity
// @Accept json
// @Produce json
// @Param request body ResendRequest true "Resend payload"
// @Success 200 {object} router.successResponse{data=ResendResponse} "Next step"
// @Failure 403 {object} router.errorResponse "Already authenticated"
// @Failure 429 {object} router.errorResponse "Too many attempts"
// @Router /api/v1/identity/connections/resend [post]
func (h *HTTPEndpoint) Resend(r *router.Request) (any, error) {
	var req ResendRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Resend(r.Context(), usecase.ResendInput{
		Email:      req.Email,
		RemoteAddr: r.ClientIP(),
	})
	if err != nil {
		return nil, err
	}

	return ResendResponse{redirect: redirect{To: resp.RedirectTo}}, nil
}

// Registration creates an identity and sends its first code.
// @Summary Register
// @Tags Identity
// @Accept json
// @Produce json
// @Param request body RegistrationRequest true "Registration payload"
// @Success 200 {object} router.successResponse{data=RegistrationResponse} "Next step"
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 403 {object} router.errorResponse "Already authenticated"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 429 {object} router.errorResponse "Too many attempts"
// @Router /api/v1/identity/registrations [post]
func (h *HTTPEndpoint) Registration(r *router.Request) (any, error) {
	var req RegistrationRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Registration(r.Context(), usecase.RegistrationInput{
		Email:             req.Email,
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		AcceptsConditions: req.AcceptsConditions.Bool(),
		CaptchaToken:      req.CaptchaToken,
		RemoteAddr:        r.ClientIP(),
	})
	if err != nil {
		return nil, err
	}

	return RegistrationResponse{redirect: redirect{To: resp.RedirectTo}}, nil
}

// SignIn exchanges a code for a session cookie.
// @Summary Sign in with a code
// @Tags Identity
// @Accept json
// @Produce json
// @Param request body SignInRequest true "Sign-in payload"
// @Success 200 {object} router.successResponse{data=SignInResponse} "Signed in, session cookie set"
// @Failure 401 {object} router.errorResponse "Invalid or expired code"
// @Failure 403 {object} router.errorResponse "Already authenticated"
// @Failure 404 {object} router.errorResponse "Identity not found"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 429 {object} router.errorResponse "Too many attempts"
// @Router /api/v1/identity/sessions [post]
func (h *HTTPEndpoint) SignIn(r *router.Request) (any, error) {
	var req SignInRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.SignIn(r.Context(), usecase.SignInInput{
		Email:      req.Email,
		Code:       req.Code,
		UserAgent:  r.UserAgent(),
		RemoteAddr: r.ClientIP(),
	})
	if err != nil {
		return nil, err
	}

	return SignInResponse{redirect: redirect{To: resp.RedirectTo}, cookie: h.cookies.Issue(resp.Token)}, nil
}

// SignOut closes one of the caller's sessions.
// @Summary Sign out
// @Tags Identity
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} router.successResponse{data=SignOutResponse} "Session closed"
// @Failure 401 {object} router.errorResponse "Authentication required"
// @Failure 404 {object} router.errorResponse "Session not found"
// @Router /api/v1/identity/sessions/{id} [delete]
func (h *HTTPEndpoint) SignOut(r *router.Request) (any, error) {
	id, err := r.GetParamInt64("id")
	if err != nil {
		return nil, err
	}

	resp, err := h.uc.SignOut(r.Context(), usecase.SignOutInput{SessionID: id})
	if err != nil {
		return nil, err
	}

	out := SignOutResponse{redirect: redirect{To: resp.RedirectTo}}
	if resp.Current {
		out.cookie = h.cookies.Clear()
	}
	return out, nil
}

// ListSessions lists the caller's sessions.
// @Summary List sessions
// @Tags Identity
// @Produce json
// @Success 200 {object} router.successResponse{data=[]SessionResponse} "Sessions, newest first"
// @Failure 401 {object} router.errorResponse "Authentication required"
// @Router /api/v1/identity/sessions [get]
func (h *HTTPEndpoint) ListSessions(r *router.Request) (any, error) {
	items, err := h.uc.ListSessions(r.Context())
	if err != nil {
		return nil, err
	}

	return lo.Map(items, func(it usecase.SessionItem, _ int) SessionResponse {
		return SessionResponse{
			ID:        it.ID,
			UserAgent: it.UserAgent,
			IPAddress: it.IPAddress,
			CreatedAt: it.CreatedAt,
			Current:   it.Current,
		}
	}), nil
}

// Me returns the signed-in identity.
// @Summary Current identity
// @Tags Identity
// @Produce json
// @Success 200 {object} router.successResponse{data=MeResponse} "Identity"
// @Failure 401 {object} router.errorResponse "Authentication required"
// @Router /api/v1/identity/me [get]
func (h *HTTPEndpoint) Me(r *router.Request) (any, error) {
	me, err := h.uc.Me(r.Context())
	if err != nil {
		return nil, err
	}

	return MeResponse{
		ID:              me.ID,
		Email:           me.Email,
		FirstName:       me.FirstName,
		LastName:        me.LastName,
		Verified:        me.Verified,
		TermsAcceptedAt: me.TermsAcceptedAt,
		CreatedAt:       me.CreatedAt,
	}, nil
}
