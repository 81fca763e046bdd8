package usecase

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/benefactorum/authotp/internal/identity/entity"
	"github.com/benefactorum/authotp/internal/pkg/clock"
	"github.com/benefactorum/authotp/internal/pkg/config"
	"github.com/benefactorum/authotp/internal/pkg/goerror"
	"github.com/benefactorum/authotp/internal/pkg/goroutine"
	"github.com/benefactorum/authotp/internal/pkg/hash"
	"github.com/benefactorum/authotp/internal/pkg/instrument"
	"github.com/benefactorum/authotp/internal/pkg/otp"
	"github.com/benefactorum/authotp/internal/pkg/ratelimit"
	"github.com/benefactorum/authotp/internal/pkg/sealer"
	"github.com/benefactorum/authotp/internal/pkg/uid"
	"github.com/benefactorum/authotp/internal/pkg/validator"
	libOTP "github.com/pquerna/otp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDB mirrors the conditional updates of the postgres store in memory.
type fakeDB struct {
	mu         sync.Mutex
	identities map[int64]*entity.Identity
	sessions   map[int64]entity.Session
	err        error
}

func newFakeDB() *fakeDB {
	return &fakeDB{identities: map[int64]*entity.Identity{}, sessions: map[int64]entity.Session{}}
}

func (f *fakeDB) GetIdentityByEmail(_ context.Context, email string) (*entity.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, idn := range f.identities {
		if idn.Email == email {
			cp := *idn
			return &cp, nil
		}
	}
	return nil, goerror.ErrNotFound
}

func (f *fakeDB) GetIdentityByID(_ context.Context, id int64) (*entity.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	idn, ok := f.identities[id]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	cp := *idn
	return &cp, nil
}

func (f *fakeDB) CreateIdentity(_ context.Context, in entity.NewIdentity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, idn := range f.identities {
		if idn.Email == in.Email {
			return goerror.ErrConflict
		}
	}
	f.identities[in.ID] = &entity.Identity{
		ID:              in.ID,
		Email:           in.Email,
		FirstName:       in.FirstName,
		LastName:        in.LastName,
		TermsAcceptedAt: in.TermsAcceptedAt,
		OTPSecret:       in.OTPSecret,
		CreatedAt:       in.CreatedAt,
		UpdatedAt:       in.CreatedAt,
	}
	return nil
}

func (f *fakeDB) AdvanceOTP(_ context.Context, id int64, mode entity.IssueMode, expiresAt, now time.Time) (*entity.OTPState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	idn, ok := f.identities[id]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	if mode == entity.IssueModeReuse && idn.HasValidCode(now) {
		return &entity.OTPState{Counter: idn.OTPCounter, ExpiresAt: idn.OTPExpiresAt}, nil
	}
	idn.OTPCounter++
	idn.OTPExpiresAt = &expiresAt
	return &entity.OTPState{Counter: idn.OTPCounter, ExpiresAt: &expiresAt, Advanced: true}, nil
}

func (f *fakeDB) ConsumeOTP(_ context.Context, in entity.Consume) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	idn, ok := f.identities[in.IdentityID]
	if !ok || idn.OTPCounter != in.Counter || !idn.HasValidCode(in.At) {
		return false, nil
	}
	at := in.At
	idn.Verified = true
	idn.OTPExpiresAt = &at
	return true, nil
}

func (f *fakeDB) CreateSession(_ context.Context, in entity.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[in.ID] = in
	return nil
}

func (f *fakeDB) GetSessionOwner(_ context.Context, tokenHash string) (*entity.SessionOwner, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sessions {
		if s.TokenHash == tokenHash {
			return &entity.SessionOwner{SessionID: s.ID, IdentityID: s.IdentityID, Email: f.identities[s.IdentityID].Email}, nil
		}
	}
	return nil, goerror.ErrNotFound
}

func (f *fakeDB) ListSessions(_ context.Context, identityID int64) ([]entity.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entity.Session
	for _, s := range f.sessions {
		if s.IdentityID == identityID {
			out = append(out, s)
		}
	}
	slices.SortFunc(out, func(a, b entity.Session) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out, nil
}

func (f *fakeDB) DeleteSession(_ context.Context, id, identityID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok || s.IdentityID != identityID {
		return false, nil
	}
	delete(f.sessions, id)
	return true, nil
}

func (f *fakeDB) identity(email string) *entity.Identity {
	idn, _ := f.GetIdentityByEmail(context.Background(), email)
	return idn
}

type fakeMQ struct {
	mu     sync.Mutex
	events []OTPIssuedEvent
	err    error
	// hold, when set, runs before a publish is recorded.
	hold func(OTPIssuedEvent)
}

func (f *fakeMQ) PublishOTPIssued(_ context.Context, msg OTPIssuedEvent) error {
	if f.hold != nil {
		f.hold(msg)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, msg)
	return nil
}

type fakeCaptcha struct {
	ok  bool
	err error
}

func (f *fakeCaptcha) Verify(context.Context, string, string) (bool, error) {
	return f.ok, f.err
}

type fixture struct {
	uc      *Usecase
	db      *fakeDB
	mq      *fakeMQ
	captcha *fakeCaptcha
	clock   *clock.Manual
	gm      *goroutine.Manager
	sealer  sealer.Sealer
	hotp    *otp.HOTP
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(`
modules:
  identity:
    otp:
      validity_minutes: 10
`))
	require.NoError(t, err)

	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	keys, err := sealer.NewHKDFKeys([]byte("0123456789abcdef0123456789abcdef"), []byte("test"))
	require.NoError(t, err)

	snow, err := uid.NewSnowflake(1)
	require.NoError(t, err)

	clk := clock.NewManual(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))

	f := &fixture{
		db:      newFakeDB(),
		mq:      &fakeMQ{},
		captcha: &fakeCaptcha{ok: true},
		clock:   clk,
		gm:      goroutine.NewManager(10),
		sealer:  sealer.NewAESGCM(keys),
		hotp:    otp.NewHOTP("authotp", libOTP.DigitsSix),
	}

	f.uc = New(Dependency{
		RepoDB:        f.db,
		RepoMessaging: f.mq,
		Captcha:       f.captcha,
		Limiter:       ratelimit.NewMemory(clk),
		Validator:     v,
		Config:        cfg,
		HMAC:          hash.NewHMACSHA256([]byte("session-secret")),
		Sealer:        f.sealer,
		OTP:           f.hotp,
		UID:           snow,
		Clock:         clk,
		Instrument:    instrument.NewNoop(),
		Goroutine:     f.gm,
	})

	return f
}

// flush waits for queued publishes and returns them in issue order. The
// manager accepts no work afterwards, so later publishes run inline.
func (f *fixture) flush(t *testing.T) []OTPIssuedEvent {
	t.Helper()
	require.NoError(t, f.gm.Wait())

	f.mq.mu.Lock()
	events := slices.Clone(f.mq.events)
	f.mq.mu.Unlock()

	// Publishes run concurrently, so arrival order is not issue order.
	slices.SortStableFunc(events, func(a, b OTPIssuedEvent) int {
		return cmp.Compare(a.Counter, b.Counter)
	})
	return events
}

func (f *fixture) seedIdentity(t *testing.T, email string) *entity.Identity {
	t.Helper()

	id := f.uc.uid.Generate()
	secret, err := f.uc.newSealedSecret(id, email)
	require.NoError(t, err)

	require.NoError(t, f.db.CreateIdentity(context.Background(), entity.NewIdentity{
		ID:              id,
		Email:           email,
		FirstName:       "Ada",
		LastName:        "Lovelace",
		TermsAcceptedAt: f.clock.Now(),
		OTPSecret:       secret,
		CreatedAt:       f.clock.Now(),
	}))
	return f.db.identity(email)
}

// currentCode derives the code an identity would accept right now.
func (f *fixture) currentCode(t *testing.T, email string) string {
	t.Helper()

	idn := f.db.identity(email)
	require.NotNil(t, idn)
	secret, err := f.uc.openSecret(idn)
	require.NoError(t, err)
	code, err := f.hotp.GenerateCode(secret, idn.OTPCounter)
	require.NoError(t, err)
	return code
}

func (f *fixture) openCode(t *testing.T, ev OTPIssuedEvent) string {
	t.Helper()

	raw, err := f.sealer.Open(ev.SealedCode, sealer.Scope{SubjectID: ev.IdentityID, Purpose: sealer.PurposeOTPDelivery})
	require.NoError(t, err)
	return string(raw)
}

func requireCode(t *testing.T, err error, code goerror.Code) *goerror.Error {
	t.Helper()

	var gerr *goerror.Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, code, gerr.Code())
	return gerr
}

func fieldErrors(err error) map[string]string {
	var verr validator.V10ValidationError
	if errors.As(err, &verr) {
		return verr.Values()
	}
	var gerr *goerror.Error
	if errors.As(err, &gerr) {
		return gerr.Fields()
	}
	return nil
}

func (f *fakeMQ) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}
