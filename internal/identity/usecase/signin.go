package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/benefactorum/authotp/internal/identity/entity"
	"github.com/benefactorum/authotp/internal/pkg/goerror"
)

const msgInvalidCode = "is invalid or has expired"

type SignInInput struct {
	Email      string `validate:"required,email,max=255"`
	Code       string `validate:"required,otpcode"`
	UserAgent  string
	RemoteAddr string
}

type SignInOutput struct {
	IdentityID int64
	SessionID  int64
	// Token is the raw session token. It goes into the cookie and nowhere else.
	Token      string
	RedirectTo string
}

// SignIn checks the code, consumes it and opens a session. The rate limit is
// applied before the identity is looked up.
func (s *Usecase) SignIn(ctx context.Context, in SignInInput) (*SignInOutput, error) {
	ctx, span := s.startSpan(ctx, "SignIn")
	defer span.End()

	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	in.Code = strings.TrimSpace(in.Code)

	if err := s.admit(ctx, entity.ActionSignIn, in.Email, in.RemoteAddr); err != nil {
		return nil, err
	}

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	idn, err := s.repoDB.GetIdentityByEmail(ctx, in.Email)
	if errors.Is(err, goerror.ErrNotFound) {
		return nil, goerror.NewBusiness("Identity not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get identity by email", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	if !s.validateCode(ctx, idn, in.Code, true) {
		slog.WarnContext(ctx, "otp code rejected", "identity_id", idn.ID)
		return nil, goerror.NewInvalidCredential("code", msgInvalidCode)
	}

	consumed, err := s.repoDB.ConsumeOTP(ctx, entity.Consume{
		IdentityID: idn.ID,
		Counter:    idn.OTPCounter,
		At:         s.clock.Now(),
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo consume otp", "identity_id", idn.ID, "error", err)
		return nil, goerror.NewServer(err)
	}
	if !consumed {
		slog.WarnContext(ctx, "otp code consumed by a concurrent request", "identity_id", idn.ID)
		return nil, goerror.NewInvalidCredential("code", msgInvalidCode)
	}

	sess, token, err := s.openSession(ctx, idn.ID, in.UserAgent, in.RemoteAddr)
	if err != nil {
		return nil, goerror.NewServer(err)
	}

	return &SignInOutput{
		IdentityID: idn.ID,
		SessionID:  sess.ID,
		Token:      token,
		RedirectTo: entity.RedirectHome,
	}, nil
}
