package email

import (
	"context"
	"time"

	"github.com/benefactorum/authotp/internal/pkg/instrument"
	"github.com/benefactorum/authotp/internal/pkg/mail"
	"github.com/sethvargo/go-retry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type Mail struct {
	client  mail.Mail
	ins     instrument.Instrumentation
	backoff func() retry.Backoff
}

func New(client mail.Mail, ins instrument.Instrumentation) *Mail {
	return &Mail{
		client: client,
		ins:    ins,
		backoff: func() retry.Backoff {
			return retry.WithMaxRetries(2, retry.NewFibonacci(500*time.Millisecond))
		},
	}
}

// Send tries a few times before giving up. The broker redelivers after that.
func (m *Mail) Send(ctx context.Context, msg mail.Message) error {
	ctx, span := m.ins.Tracer("notification.outbound.email").Start(ctx, "Send")
	defer span.End()

	attempts := 0
	err := retry.Do(ctx, m.backoff(), func(ctx context.Context) error {
		attempts++
		if err := m.client.Send(ctx, msg); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	span.SetAttributes(attribute.Int("mail.attempts", attempts))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
