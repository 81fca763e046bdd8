package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/benefactorum/authotp/internal/identity/entity"
	"github.com/benefactorum/authotp/internal/pkg/goerror"
)

type ConnectionInput struct {
	Email      string `validate:"required,email,max=255"`
	RemoteAddr string
}

type ConnectionOutput struct {
	RedirectTo string
	CodeSent   bool
}

// Connection starts a login or a sign-up. A known email gets a code, reusing
// an outstanding one, and moves on to sign-in. An unknown one moves on to
// sign-up.
func (s *Usecase) Connection(ctx context.Context, in ConnectionInput) (*ConnectionOutput, error) {
	ctx, span := s.startSpan(ctx, "Connection")
	defer span.End()

	in.Email = strings.TrimSpace(strings.ToLower(in.Email))

	if err := s.admit(ctx, entity.ActionConnect, in.Email, in.RemoteAddr); err != nil {
		return nil, err
	}

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	idn, err := s.repoDB.GetIdentityByEmail(ctx, in.Email)
	if errors.Is(err, goerror.ErrNotFound) {
		return &ConnectionOutput{RedirectTo: entity.RedirectSignUp}, nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get identity by email", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	code, err := s.issueCode(ctx, idn, entity.IssueModeReuse)
	if err != nil {
		return nil, goerror.NewServer(err)
	}

	if code.Fresh {
		s.notifyOTP(ctx, idn, code)
	}

	return &ConnectionOutput{RedirectTo: entity.RedirectSignIn, CodeSent: code.Fresh}, nil
}
