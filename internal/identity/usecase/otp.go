package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/benefactorum/authotp/internal/identity/entity"
	"github.com/benefactorum/authotp/internal/pkg/sealer"
)

// inlinePublishTimeout caps the request-path publish used when background
// scheduling is refused.
const inlinePublishTimeout = 2 * time.Second

type issuedCode struct {
	Code    string
	Counter uint64
	// Fresh is false when a reuse issue kept the outstanding code, in which
	// case nothing should be sent.
	Fresh bool
}

// issueCode advances the counter according to mode and derives the code for
// the resulting counter.
func (s *Usecase) issueCode(ctx context.Context, idn *entity.Identity, mode entity.IssueMode) (*issuedCode, error) {
	now := s.clock.Now()

	state, err := s.repoDB.AdvanceOTP(ctx, idn.ID, mode, now.Add(s.otpValidity), now)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo advance otp", "identity_id", idn.ID, "mode", mode.String(), "error", err)
		return nil, err
	}
	idn.OTPCounter = state.Counter
	idn.OTPExpiresAt = state.ExpiresAt

	secret, err := s.openSecret(idn)
	if err != nil {
		slog.ErrorContext(ctx, "failed to open otp secret", "identity_id", idn.ID, "error", err)
		return nil, err
	}

	code, err := s.otp.GenerateCode(secret, state.Counter)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate otp code", "identity_id", idn.ID, "error", err)
		return nil, err
	}

	return &issuedCode{Code: code, Counter: state.Counter, Fresh: state.Advanced}, nil
}

// validateCode never fails loudly: a mismatch, an expired or missing code and
// an unreadable secret all yield false.
func (s *Usecase) validateCode(ctx context.Context, idn *entity.Identity, code string, checkExpiration bool) bool {
	if checkExpiration && !idn.HasValidCode(s.clock.Now()) {
		return false
	}
	if idn.OTPCounter == 0 {
		return false
	}

	secret, err := s.openSecret(idn)
	if err != nil {
		slog.WarnContext(ctx, "failed to open otp secret for validation", "identity_id", idn.ID, "error", err)
		return false
	}

	return s.otp.Validate(code, secret, idn.OTPCounter)
}

func (s *Usecase) openSecret(idn *entity.Identity) (string, error) {
	raw, err := s.sealer.Open(idn.OTPSecret, sealer.Scope{SubjectID: idn.ID, Purpose: sealer.PurposeOTPSecret})
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func (s *Usecase) newSealedSecret(id int64, email string) ([]byte, error) {
	secret, err := s.otp.GenerateSecret(email)
	if err != nil {
		return nil, err
	}
	return s.sealer.Seal([]byte(secret), sealer.Scope{SubjectID: id, Purpose: sealer.PurposeOTPSecret})
}

// notifyOTP hands the code to the broker off the request path. Failures are
// logged; the user can always ask for a resend.
func (s *Usecase) notifyOTP(ctx context.Context, idn *entity.Identity, code *issuedCode) {
	sealed, err := s.sealer.Seal([]byte(code.Code), sealer.Scope{SubjectID: idn.ID, Purpose: sealer.PurposeOTPDelivery})
	if err != nil {
		slog.ErrorContext(ctx, "failed to seal otp for delivery", "identity_id", idn.ID, "error", err)
		return
	}

	ev := OTPIssuedEvent{
		IdentityID: idn.ID,
		Email:      idn.Email,
		FirstName:  idn.FirstName,
		Counter:    code.Counter,
		SealedCode: sealed,
	}
	if idn.OTPExpiresAt != nil {
		ev.ExpiresAt = *idn.OTPExpiresAt
	}

	publish := func(ctx context.Context) error {
		if err := s.repoMessaging.PublishOTPIssued(ctx, ev); err != nil {
			slog.ErrorContext(ctx, "failed to publish otp issued", "identity_id", ev.IdentityID, "error", err)
			return err
		}
		return nil
	}
	if s.goroutine.Go(context.WithoutCancel(ctx), publish) {
		return
	}

	// The manager is full or draining: publish inline under a short deadline
	// rather than drop the code.
	slog.WarnContext(ctx, "otp issued publish not scheduled, publishing inline", "identity_id", idn.ID)
	inlineCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), inlinePublishTimeout)
	defer cancel()
	_ = publish(inlineCtx)
}
