package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/benefactorum/authotp/internal/pkg/idempotency"
	"github.com/benefactorum/authotp/internal/pkg/sealer"
)

// ErrInvalidPayload marks an event that can never be delivered.
var ErrInvalidPayload = errors.New("notification: invalid otp issued payload")

type ConsumeOTPIssuedInput struct {
	IdentityID int64  `validate:"required,gt=0"`
	Email      string `validate:"required,email"`
	FirstName  string `validate:"max=100"`
	Counter    uint64 `validate:"required,gt=0"`
	SealedCode []byte `validate:"required"`
	ExpiresAt  time.Time
}

// ConsumeOTPIssued mails one code at most once per identity and counter.
// Codes that expired while queued are dropped.
func (s *Usecase) ConsumeOTPIssued(ctx context.Context, in ConsumeOTPIssuedInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeOTPIssued")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "Validation failed", "identity_id", in.IdentityID, "error", err)
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	now := s.clock.Now()
	if !in.ExpiresAt.IsZero() && !now.Before(in.ExpiresAt) {
		slog.WarnContext(ctx, "otp expired before delivery", "identity_id", in.IdentityID, "counter", in.Counter)
		return nil
	}

	ttl := 10 * time.Minute
	if !in.ExpiresAt.IsZero() {
		ttl = in.ExpiresAt.Sub(now)
	}

	key := "otp:" + strconv.FormatInt(in.IdentityID, 10) + ":" + strconv.FormatUint(in.Counter, 10)
	err := s.idempotency.Exec(ctx, key, func(ctx context.Context) error {
		return s.sendOTP(ctx, in, now)
	}, idempotency.WithStateTTL(ttl), idempotency.WithLockDuration(time.Minute), idempotency.WithRetryFailed())
	if idempotency.IsDuplicate(err) {
		slog.InfoContext(ctx, "otp already delivered or in flight", "key", key)
		return nil
	}

	return err
}

func (s *Usecase) sendOTP(ctx context.Context, in ConsumeOTPIssuedInput, now time.Time) error {
	code, err := s.sealer.Open(in.SealedCode, sealer.Scope{SubjectID: in.IdentityID, Purpose: sealer.PurposeOTPDelivery})
	if err != nil {
		slog.ErrorContext(ctx, "failed to open sealed otp", "identity_id", in.IdentityID, "error", err)
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	data := s.baseEmailTemplateData()
	data["first_name"] = in.FirstName
	data["code"] = string(code)
	data["valid_minutes"] = max(int(in.ExpiresAt.Sub(now).Round(time.Minute)/time.Minute), 1)

	return s.sendEmailNotification(ctx, emailNotificationInput{
		IdentityID:   in.IdentityID,
		Email:        in.Email,
		TemplateData: data,
	})
}
