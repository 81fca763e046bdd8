package usecase

import (
	"context"
	"log/slog"

	"github.com/benefactorum/authotp/internal/notification/entity"
	"github.com/benefactorum/authotp/internal/pkg/mail"
	"github.com/benefactorum/authotp/internal/pkg/valueobject"
)

type emailNotificationInput struct {
	IdentityID   int64
	Email        string
	TemplateData map[string]any
}

// sendEmailNotification records a queued delivery, sends it and stores the
// outcome. A send failure is returned so the event is redelivered.
func (s *Usecase) sendEmailNotification(ctx context.Context, in emailNotificationInput) error {
	tpl, err := s.repoTemplate.Get(ctx, entity.TriggerKeyOTPCode)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get template", "trigger_key", entity.TriggerKeyOTPCode, "error", err)
		return err
	}

	subject, body, err := s.render(tpl, in.TemplateData)
	if err != nil {
		slog.ErrorContext(ctx, "failed to render email", "identity_id", in.IdentityID, "version", tpl.Version, "error", err)
		return err
	}

	logID := s.uid.Generate()
	if err := s.repoDB.CreateDeliveryLog(ctx, entity.CreateDeliveryLog{
		ID:         logID,
		IdentityID: in.IdentityID,
		Channel:    entity.ChannelEmail,
		TriggerKey: entity.TriggerKeyOTPCode,
		Recipient:  in.Email,
		Status:     entity.DeliveryStatusQueued,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to repo create delivery log", "identity_id", in.IdentityID, "error", err)
		return err
	}

	mailErr := s.repoMail.Send(ctx, mail.Message{
		To:       []string{in.Email},
		Subject:  subject,
		HTMLBody: body,
	})
	if mailErr == nil {
		if err := s.repoDB.UpdateDeliveryLogStatus(ctx, entity.UpdateDeliveryLog{
			ID:               logID,
			Status:           entity.DeliveryStatusSent,
			ProviderResponse: valueobject.JSONMap{},
		}); err != nil {
			slog.ErrorContext(ctx, "failed to repo update delivery log status sent", "log_id", logID, "error", err)
		}
		return nil
	}

	if err := s.repoDB.UpdateDeliveryLogStatus(ctx, entity.UpdateDeliveryLog{
		ID:               logID,
		Status:           entity.DeliveryStatusFailed,
		ProviderResponse: valueobject.JSONMap{"error": mailErr.Error()},
	}); err != nil {
		slog.ErrorContext(ctx, "failed to repo update delivery log status failed", "log_id", logID, "error", err)
	}

	slog.ErrorContext(ctx, "failed to send notification email", "log_id", logID, "identity_id", in.IdentityID, "error", mailErr)
	return mailErr
}
