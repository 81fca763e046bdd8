package mq

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/benefactorum/authotp/internal/identity/usecase"
	"github.com/benefactorum/authotp/internal/pkg/instrument"
	"github.com/benefactorum/authotp/internal/pkg/messaging"
	"github.com/benefactorum/authotp/internal/shared/event"
	"github.com/sethvargo/go-retry"
	"go.opentelemetry.io/otel/codes"
)

const keyOfCorrelationID string = "cID"

type Messaging struct {
	client  messaging.Messaging
	ins     instrument.Instrumentation
	backoff func() retry.Backoff
}

func NewMessaging(client messaging.Messaging, ins instrument.Instrumentation) *Messaging {
	return &Messaging{
		client: client,
		ins:    ins,
		backoff: func() retry.Backoff {
			b := retry.NewExponential(100 * time.Millisecond)
			b = retry.WithCappedDuration(2*time.Second, b)
			return retry.WithMaxRetries(4, b)
		},
	}
}

// PublishOTPIssued queues the code for delivery. Broker errors are retried
// with exponential backoff; the identity id is the partition key so codes for
// one identity stay ordered.
func (m *Messaging) PublishOTPIssued(ctx context.Context, msg usecase.OTPIssuedEvent) error {
	ctx, span := m.ins.Tracer("identity.outbound.mq").Start(ctx, "PublishOTPIssued")
	defer span.End()

	body, err := json.Marshal(event.OTPIssuedMessage{
		IdentityID: msg.IdentityID,
		Email:      msg.Email,
		FirstName:  msg.FirstName,
		Counter:    msg.Counter,
		SealedCode: msg.SealedCode,
		ExpiresAt:  msg.ExpiresAt.Unix(),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	out := messaging.Outgoing{
		Key:     []byte(strconv.FormatInt(msg.IdentityID, 10)),
		Body:    body,
		Headers: map[string]string{keyOfCorrelationID: instrument.GetCorrelationID(ctx)},
	}

	err = retry.Do(ctx, m.backoff(), func(ctx context.Context) error {
		if err := m.client.Publish(ctx, event.OTPIssuedDestination, out); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
