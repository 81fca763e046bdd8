package messaging

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type settleRecorder struct {
	acks, nacks int
}

func (r *settleRecorder) ack() error  { r.acks++; return nil }
func (r *settleRecorder) nack() error { r.nacks++; return nil }

func TestDispatch(t *testing.T) {
	tests := []struct {
		name      string
		handler   Handler
		wantAcks  int
		wantNacks int
	}{
		{
			name:     "success acks",
			handler:  func(context.Context, *Message) error { return nil },
			wantAcks: 1,
		},
		{
			name:      "failure nacks",
			handler:   func(context.Context, *Message) error { return errors.New("smtp down") },
			wantNacks: 1,
		},
		{
			name:     "permanent failure acks",
			handler:  func(context.Context, *Message) error { return Permanent(errors.New("bad payload")) },
			wantAcks: 1,
		},
		{
			name:      "panic nacks",
			handler:   func(context.Context, *Message) error { panic("boom") },
			wantNacks: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			rec := &settleRecorder{}
			msg := &Message{Topic: "otp.issued"}

			// Act
			err := dispatch(context.Background(), "test", msg, tt.handler, rec.ack, rec.nack)

			// Assert
			require.NoError(t, err)
			assert.Equal(t, tt.wantAcks, rec.acks)
			assert.Equal(t, tt.wantNacks, rec.nacks)
		})
	}
}

func TestDispatch_SettlesOnce(t *testing.T) {
	rec := &settleRecorder{}
	msg := &Message{}
	h := func(context.Context, *Message) error { return nil }

	require.NoError(t, dispatch(context.Background(), "test", msg, h, rec.ack, rec.nack))
	require.NoError(t, dispatch(context.Background(), "test", msg, h, rec.ack, rec.nack))

	assert.Equal(t, 1, rec.acks)
}

func TestPermanent(t *testing.T) {
	cause := errors.New("cause")

	assert.Nil(t, Permanent(nil))
	assert.True(t, IsPermanent(Permanent(cause)))
	assert.ErrorIs(t, Permanent(cause), cause)
	assert.False(t, IsPermanent(cause))
}

func TestNewConsumeOptions(t *testing.T) {
	co := newConsumeOptions(WithGroup("notification"), WithConcurrency(4), nil)

	assert.Equal(t, "notification", co.group)
	assert.Equal(t, 4, co.concurrency)
	assert.Equal(t, 4, co.maxInFlight)

	co = newConsumeOptions(WithConcurrency(-1), WithMaxInFlight(10))
	assert.Equal(t, 1, co.concurrency)
	assert.Equal(t, 10, co.maxInFlight)
}

func TestValidateConsume(t *testing.T) {
	ctx := context.Background()
	h := func(context.Context, *Message) error { return nil }

	assert.ErrorIs(t, validateConsume(ctx, "", h), ErrTopicRequired)
	assert.ErrorIs(t, validateConsume(ctx, "otp.issued", nil), ErrHandlerRequired)
	assert.NoError(t, validateConsume(ctx, "otp.issued", h))

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, validateConsume(cctx, "otp.issued", h), context.Canceled)
}

func TestNewFromDriver_Unknown(t *testing.T) {
	_, err := NewFromDriver(context.Background(), "rabbitmq", FactoryOptions{})
	assert.ErrorIs(t, err, ErrUnknownDriver)
}
