package usecase

import (
	"context"
	"log/slog"
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
	"github.com/samber/lo"
	"go.opentelemetry.io/otel/trace"
)

const defaultOTPValidity = 10 * time.Minute

var defaultPolicies = map[entity.Action]ratelimit.Policy{
	entity.ActionConnect:      {Limit: 10, Window: time.Minute},
	entity.ActionResend:       {Limit: 1, Window: time.Minute},
	entity.ActionSignIn:       {Limit: 5, Window: time.Minute},
	entity.ActionRegistration: {Limit: 100, Window: 24 * time.Hour},
}

// OTPIssuedEvent asks the notification side to mail a code. The code is
// sealed for the identity so it never crosses the broker in clear text.
type OTPIssuedEvent struct {
	IdentityID int64
	Email      string
	FirstName  string
	Counter    uint64
	SealedCode []byte
	ExpiresAt  time.Time
}

type repoMessaging interface {
	PublishOTPIssued(ctx context.Context, msg OTPIssuedEvent) error
}

type captchaVerifier interface {
	Verify(ctx context.Context, token, remoteIP string) (bool, error)
}

type repoDB interface {
	GetIdentityByEmail(ctx context.Context, email string) (*entity.Identity, error)
	GetIdentityByID(ctx context.Context, id int64) (*entity.Identity, error)
	CreateIdentity(ctx context.Context, in entity.NewIdentity) error

	// AdvanceOTP moves the counter forward in a single statement. With
	// IssueModeReuse it changes nothing while an unexpired code exists.
	AdvanceOTP(ctx context.Context, id int64, mode entity.IssueMode, expiresAt, now time.Time) (*entity.OTPState, error)
	// ConsumeOTP verifies and force-expires the code at the given counter.
	// It reports false when another request consumed it first.
	ConsumeOTP(ctx context.Context, in entity.Consume) (bool, error)

	CreateSession(ctx context.Context, in entity.Session) error
	GetSessionOwner(ctx context.Context, tokenHash string) (*entity.SessionOwner, error)
	ListSessions(ctx context.Context, identityID int64) ([]entity.Session, error)
	// DeleteSession reports false when no session with that id belongs to identityID.
	DeleteSession(ctx context.Context, id, identityID int64) (bool, error)
}

type Usecase struct {
	repoDB        repoDB
	repoMessaging repoMessaging
	captcha       captchaVerifier
	limiter       ratelimit.Limiter
	validator     validator.Validator
	hmac          hash.Hasher
	sealer        sealer.Sealer
	otp           otp.OTP
	uid           uid.NumberID
	clock         clock.Clocker
	ins           instrument.Instrumentation
	goroutine     *goroutine.Manager

	policies    map[entity.Action]ratelimit.Policy
	otpValidity time.Duration
}

type Dependency struct {
	RepoDB        repoDB
	RepoMessaging repoMessaging
	Captcha       captchaVerifier
	Limiter       ratelimit.Limiter
	Validator     validator.Validator
	Config        config.Config
	HMAC          hash.Hasher
	Sealer        sealer.Sealer
	OTP           otp.OTP
	UID           uid.NumberID
	Clock         clock.Clocker
	Instrument    instrument.Instrumentation
	Goroutine     *goroutine.Manager
}

func New(dep Dependency) *Usecase {
	validity := dep.Config.GetMinute("modules.identity.otp.validity_minutes")
	if validity <= 0 {
		validity = defaultOTPValidity
	}

	return &Usecase{
		repoDB:        dep.RepoDB,
		repoMessaging: dep.RepoMessaging,
		captcha:       dep.Captcha,
		limiter:       dep.Limiter,
		validator:     dep.Validator,
		hmac:          dep.HMAC,
		sealer:        dep.Sealer,
		otp:           dep.OTP,
		uid:           dep.UID,
		clock:         dep.Clock,
		ins:           dep.Instrument,
		goroutine:     dep.Goroutine,
		policies:      policiesFromConfig(dep.Config),
		otpValidity:   validity,
	}
}

// policiesFromConfig reads modules.identity.rate_limit.<action>.{limit,window_seconds}
// and keeps the default for any action left unset.
func policiesFromConfig(cfg config.Config) map[entity.Action]ratelimit.Policy {
	return lo.SliceToMap(entity.Actions, func(a entity.Action) (entity.Action, ratelimit.Policy) {
		p := defaultPolicies[a]
		prefix := "modules.identity.rate_limit." + string(a)
		if limit := cfg.GetInt64(prefix + ".limit"); limit > 0 {
			p.Limit = limit
		}
		if window := cfg.GetSecond(prefix + ".window_seconds"); window > 0 {
			p.Window = window
		}
		return a, p
	})
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("identity.usecase").Start(ctx, name)
}

// admit counts one attempt for action. The key is the email, or the caller
// address when no email was given. Backend failures deny the request.
func (s *Usecase) admit(ctx context.Context, action entity.Action, email, remoteAddr string) error {
	key := ratelimit.Key(string(action), email, remoteAddr)

	d, err := s.limiter.Allow(ctx, key, s.policies[action])
	if err != nil {
		slog.ErrorContext(ctx, "failed to check rate limit", "action", action, "error", err)
		return goerror.NewServer(err)
	}
	if !d.Allowed {
		slog.WarnContext(ctx, "rate limit exceeded", "action", action, "count", d.Count, "retry_after", d.RetryAfter)
		return goerror.NewRateLimited(d.RetryAfter)
	}

	return nil
}
