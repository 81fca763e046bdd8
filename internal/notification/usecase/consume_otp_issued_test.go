package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/benefactorum/authotp/internal/notification/entity"
	"github.com/benefactorum/authotp/internal/pkg/clock"
	"github.com/benefactorum/authotp/internal/pkg/config"
	"github.com/benefactorum/authotp/internal/pkg/idempotency"
	"github.com/benefactorum/authotp/internal/pkg/instrument"
	"github.com/benefactorum/authotp/internal/pkg/mail"
	"github.com/benefactorum/authotp/internal/pkg/sealer"
	"github.com/benefactorum/authotp/internal/pkg/uid"
	"github.com/benefactorum/authotp/internal/pkg/validator"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTemplate = `{{define "subject"}}Code {{.code}}{{end}}{{define "body"}}<p>Hi {{.first_name}}, {{.code}} for {{.valid_minutes}} min</p>{{end}}`

type fakeDB struct {
	mu      sync.Mutex
	created []entity.CreateDeliveryLog
	updated []entity.UpdateDeliveryLog
}

func (f *fakeDB) CreateDeliveryLog(_ context.Context, in entity.CreateDeliveryLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, in)
	return nil
}

func (f *fakeDB) UpdateDeliveryLogStatus(_ context.Context, u entity.UpdateDeliveryLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updated = append(f.updated, u)
	return nil
}

type fakeMail struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (f *fakeMail) Send(_ context.Context, msg mail.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

type fakeTemplate struct{}

func (fakeTemplate) Get(_ context.Context, tk entity.TriggerKey) (*entity.Template, error) {
	return &entity.Template{TriggerKey: tk, Source: testTemplate, Version: "test"}, nil
}

type fixture struct {
	uc     *Usecase
	db     *fakeDB
	mail   *fakeMail
	sealer sealer.Sealer
	clock  *clock.Manual
	redis  *miniredis.Miniredis
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cfg, err := config.NewViperFromBytes("yaml", []byte("app:\n  name: Benefactorum\n"))
	require.NoError(t, err)
	v, err := validator.NewV10Validator()
	require.NoError(t, err)
	keys, err := sealer.NewHKDFKeys([]byte("0123456789abcdef0123456789abcdef"), []byte("test"))
	require.NoError(t, err)
	snow, err := uid.NewSnowflake(2)
	require.NoError(t, err)

	f := &fixture{
		db:     &fakeDB{},
		mail:   &fakeMail{},
		sealer: sealer.NewAESGCM(keys),
		clock:  clock.NewManual(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)),
		redis:  mr,
	}
	f.uc = NewNotification(Dependency{
		RepoDB:       f.db,
		RepoMail:     f.mail,
		RepoTemplate: fakeTemplate{},
		Idempotency:  idempotency.New(client),
		Sealer:       f.sealer,
		Config:       cfg,
		UID:          snow,
		Clock:        f.clock,
		Validator:    v,
		Instrument:   instrument.NewNoop(),
	})
	return f
}

func (f *fixture) input(t *testing.T, code string) ConsumeOTPIssuedInput {
	t.Helper()

	sealed, err := f.sealer.Seal([]byte(code), sealer.Scope{SubjectID: 42, Purpose: sealer.PurposeOTPDelivery})
	require.NoError(t, err)
	return ConsumeOTPIssuedInput{
		IdentityID: 42,
		Email:      "alice@example.com",
		FirstName:  "Alice",
		Counter:    1,
		SealedCode: sealed,
		ExpiresAt:  f.clock.Now().Add(10 * time.Minute),
	}
}

func TestUsecase_ConsumeOTPIssued(t *testing.T) {
	t.Run("mails the opened code and logs the delivery", func(t *testing.T) {
		// Arrange
		f := newFixture(t)

		// Act
		err := f.uc.ConsumeOTPIssued(context.Background(), f.input(t, "123456"))

		// Assert
		require.NoError(t, err)
		require.Len(t, f.mail.sent, 1)
		assert.Equal(t, []string{"alice@example.com"}, f.mail.sent[0].To)
		assert.Equal(t, "Code 123456", f.mail.sent[0].Subject)
		assert.Equal(t, "<p>Hi Alice, 123456 for 10 min</p>", f.mail.sent[0].HTMLBody)

		require.Len(t, f.db.created, 1)
		assert.Equal(t, entity.DeliveryStatusQueued, f.db.created[0].Status)
		assert.Equal(t, entity.TriggerKeyOTPCode, f.db.created[0].TriggerKey)
		require.Len(t, f.db.updated, 1)
		assert.Equal(t, entity.DeliveryStatusSent, f.db.updated[0].Status)
	})

	t.Run("redelivery of the same counter sends nothing", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		in := f.input(t, "123456")
		require.NoError(t, f.uc.ConsumeOTPIssued(context.Background(), in))

		// Act
		err := f.uc.ConsumeOTPIssued(context.Background(), in)

		// Assert
		require.NoError(t, err)
		assert.Len(t, f.mail.sent, 1)
	})

	t.Run("failed send is retried on redelivery", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		in := f.input(t, "123456")
		f.mail.err = errors.New("421 service not available")

		// Act
		firstErr := f.uc.ConsumeOTPIssued(context.Background(), in)
		f.mail.err = nil
		secondErr := f.uc.ConsumeOTPIssued(context.Background(), in)

		// Assert
		assert.EqualError(t, firstErr, "421 service not available")
		require.NoError(t, secondErr)
		assert.Len(t, f.mail.sent, 1)
		require.Len(t, f.db.updated, 2)
		assert.Equal(t, entity.DeliveryStatusFailed, f.db.updated[0].Status)
		assert.Equal(t, "421 service not available", f.db.updated[0].ProviderResponse["error"])
		assert.Equal(t, entity.DeliveryStatusSent, f.db.updated[1].Status)
	})

	t.Run("expired code is dropped", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		in := f.input(t, "123456")
		f.clock.Advance(10 * time.Minute)

		// Act
		err := f.uc.ConsumeOTPIssued(context.Background(), in)

		// Assert
		require.NoError(t, err)
		assert.Empty(t, f.mail.sent)
		assert.Empty(t, f.db.created)
	})

	t.Run("code sealed for someone else is invalid", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		in := f.input(t, "123456")
		in.IdentityID = 43

		// Act
		err := f.uc.ConsumeOTPIssued(context.Background(), in)

		// Assert
		assert.ErrorIs(t, err, ErrInvalidPayload)
		assert.Empty(t, f.mail.sent)
	})

	t.Run("malformed payload is invalid", func(t *testing.T) {
		// Arrange
		f := newFixture(t)
		in := f.input(t, "123456")
		in.Email = "nope"

		// Act
		err := f.uc.ConsumeOTPIssued(context.Background(), in)

		// Assert
		assert.ErrorIs(t, err, ErrInvalidPayload)
		assert.False(t, f.redis.Exists("idempotency:otp:42:1"))
	})
}
