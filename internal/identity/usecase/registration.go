package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/benefactorum/authotp/internal/identity/entity"
	"github.com/benefactorum/authotp/internal/pkg/goerror"
)

type RegistrationInput struct {
	Email     string `validate:"required,email,max=255"`
	FirstName string `validate:"required,max=100,personname"`
	LastName  string `validate:"required,max=100,personname"`
	// AcceptsConditions is the parsed consent flag. The acceptance time is
	// always taken from the server clock.
	AcceptsConditions bool
	CaptchaToken      string
	RemoteAddr        string
}

type RegistrationOutput struct {
	RedirectTo string
}

func (s *Usecase) Registration(ctx context.Context, in RegistrationInput) (*RegistrationOutput, error) {
	ctx, span := s.startSpan(ctx, "Registration")
	defer span.End()

	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.CaptchaToken = strings.TrimSpace(in.CaptchaToken)

	if err := s.admit(ctx, entity.ActionRegistration, in.Email, in.RemoteAddr); err != nil {
		return nil, err
	}

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	if !in.AcceptsConditions {
		return nil, goerror.NewInvalidInput(nil, "accepts_conditions", "must be accepted")
	}

	ok, err := s.captcha.Verify(ctx, in.CaptchaToken, in.RemoteAddr)
	if err != nil {
		slog.ErrorContext(ctx, "failed to verify captcha", "error", err)
		return nil, goerror.NewServer(err)
	}
	if !ok {
		return nil, goerror.NewInvalidInput(nil, "captcha_token", "verification failed, please try again")
	}

	now := s.clock.Now()
	id := s.uid.Generate()

	secret, err := s.newSealedSecret(id, in.Email)
	if err != nil {
		slog.ErrorContext(ctx, "failed to create otp secret", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	err = s.repoDB.CreateIdentity(ctx, entity.NewIdentity{
		ID:              id,
		Email:           in.Email,
		FirstName:       in.FirstName,
		LastName:        in.LastName,
		TermsAcceptedAt: now,
		OTPSecret:       secret,
		CreatedAt:       now,
	})
	if errors.Is(err, goerror.ErrConflict) {
		return nil, goerror.NewInvalidInput(nil, "email", "has already been taken")
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo create identity", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	idn := &entity.Identity{
		ID:              id,
		Email:           in.Email,
		FirstName:       in.FirstName,
		LastName:        in.LastName,
		TermsAcceptedAt: now,
		OTPSecret:       secret,
	}

	code, err := s.issueCode(ctx, idn, entity.IssueModeRotate)
	if err != nil {
		return nil, goerror.NewServer(err)
	}

	s.notifyOTP(ctx, idn, code)

	slog.InfoContext(ctx, "identity registered", "identity_id", id)

	return &RegistrationOutput{RedirectTo: entity.RedirectSignIn}, nil
}
