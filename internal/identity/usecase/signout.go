package usecase

import (
	"context"
	"log/slog"

	"github.com/benefactorum/authotp/internal/identity/entity"
	"github.com/benefactorum/authotp/internal/pkg/auth"
	"github.com/benefactorum/authotp/internal/pkg/goerror"
)

type SignOutInput struct {
	SessionID int64
}

type SignOutOutput struct {
	RedirectTo string
	// Current is true when the caller closed the session it is using, so the
	// cookie should be cleared.
	Current bool
}

// SignOut closes one of the caller's sessions. A session owned by anyone
// else is reported as not found and left untouched.
func (s *Usecase) SignOut(ctx context.Context, in SignOutInput) (*SignOutOutput, error) {
	ctx, span := s.startSpan(ctx, "SignOut")
	defer span.End()

	p := auth.GetPrincipal(ctx)
	if p == nil {
		return nil, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}

	deleted, err := s.repoDB.DeleteSession(ctx, in.SessionID, p.IdentityID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo delete session", "session_id", in.SessionID, "error", err)
		return nil, goerror.NewServer(err)
	}
	if !deleted {
		slog.WarnContext(ctx, "sign out of a session not owned by caller", "identity_id", p.IdentityID, "session_id", in.SessionID)
		return nil, goerror.NewBusiness("Session not found", goerror.CodeNotFound)
	}

	return &SignOutOutput{RedirectTo: entity.RedirectHome, Current: in.SessionID == p.SessionID}, nil
}
