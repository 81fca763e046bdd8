package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/benefactorum/authotp/internal/identity/entity"
	"github.com/benefactorum/authotp/internal/pkg/goerror"
)

type ResendInput struct {
	Email      string `validate:"required,email,max=255"`
	RemoteAddr string
}

type ResendOutput struct {
	RedirectTo string
}

// Resend always rotates the code of a known identity. Unknown or malformed
// emails get the same answer so the endpoint reveals nothing.
func (s *Usecase) Resend(ctx context.Context, in ResendInput) (*ResendOutput, error) {
	ctx, span := s.startSpan(ctx, "Resend")
	defer span.End()

	in.Email = strings.TrimSpace(strings.ToLower(in.Email))

	if err := s.admit(ctx, entity.ActionResend, in.Email, in.RemoteAddr); err != nil {
		return nil, err
	}

	out := &ResendOutput{RedirectTo: entity.RedirectSignIn}

	if err := s.validator.Validate(in); err != nil {
		slog.WarnContext(ctx, "malformed email for resend", "error", err)
		return out, nil
	}

	idn, err := s.repoDB.GetIdentityByEmail(ctx, in.Email)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "email not registered for resend", "email", in.Email)
		return out, nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get identity by email", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	code, err := s.issueCode(ctx, idn, entity.IssueModeRotate)
	if err != nil {
		return nil, goerror.NewServer(err)
	}

	s.notifyOTP(ctx, idn, code)

	return out, nil
}
