package inbound

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/benefactorum/authotp/internal/notification/usecase"
	"github.com/benefactorum/authotp/internal/pkg/instrument"
	"github.com/benefactorum/authotp/internal/pkg/messaging"
	"github.com/benefactorum/authotp/internal/pkg/uid"
	"github.com/benefactorum/authotp/internal/shared/event"
)

const keyOfCorrelationID string = "cID"

type MQHandler struct {
	uc   uc
	uuid uid.StringID
	ins  instrument.Instrumentation
}

func (h *MQHandler) ensureCorrelationID(ctx context.Context, msg *messaging.Message) context.Context {
	if cID := msg.Header(keyOfCorrelationID); cID != "" {
		return instrument.SetCorrelationID(ctx, cID)
	}
	return instrument.SetCorrelationID(ctx, h.uuid.Generate())
}

// OTPIssuedNotification never logs the body: it carries a sealed code.
func (h *MQHandler) OTPIssuedNotification(ctx context.Context, msg *messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg)

	ctx, span := h.ins.Tracer("notification.inbound.mq").Start(ctx, "OTPIssuedNotification")
	defer span.End()

	slog.InfoContext(ctx, "consume: otp issued notification", "msg_id", msg.ID, "attempt", msg.Attempt)

	var payload event.OTPIssuedMessage
	if err := json.Unmarshal(msg.Body, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of otp issued notification", "msg_id", msg.ID, "error", err)
		return messaging.Permanent(err)
	}

	in := usecase.ConsumeOTPIssuedInput{
		IdentityID: payload.IdentityID,
		Email:      payload.Email,
		FirstName:  payload.FirstName,
		Counter:    payload.Counter,
		SealedCode: payload.SealedCode,
	}
	if payload.ExpiresAt > 0 {
		in.ExpiresAt = time.Unix(payload.ExpiresAt, 0)
	}

	err := h.uc.ConsumeOTPIssued(ctx, in)
	if errors.Is(err, usecase.ErrInvalidPayload) {
		return messaging.Permanent(err)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to consume otp issued", "identity_id", payload.IdentityID, "error", err)
		return err
	}

	return nil
}
