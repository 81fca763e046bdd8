package identity

import (
	"github.com/benefactorum/authotp/internal/identity/inbound"
	"github.com/benefactorum/authotp/internal/identity/outbound/captcha"
	"github.com/benefactorum/authotp/internal/identity/outbound/db"
	"github.com/benefactorum/authotp/internal/identity/outbound/mq"
	"github.com/benefactorum/authotp/internal/identity/usecase"
	"github.com/benefactorum/authotp/internal/pkg/clock"
	"github.com/benefactorum/authotp/internal/pkg/config"
	"github.com/benefactorum/authotp/internal/pkg/cookie"
	"github.com/benefactorum/authotp/internal/pkg/goroutine"
	"github.com/benefactorum/authotp/internal/pkg/hash"
	"github.com/benefactorum/authotp/internal/pkg/instrument"
	"github.com/benefactorum/authotp/internal/pkg/messaging"
	"github.com/benefactorum/authotp/internal/pkg/otp"
	"github.com/benefactorum/authotp/internal/pkg/ratelimit"
	"github.com/benefactorum/authotp/internal/pkg/router"
	"github.com/benefactorum/authotp/internal/pkg/sealer"
	"github.com/benefactorum/authotp/internal/pkg/uid"
	"github.com/benefactorum/authotp/internal/pkg/validator"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Dependency struct {
	DBConn     *pgxpool.Pool              `validate:"required"`
	Goroutine  *goroutine.Manager         `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Messaging  messaging.Messaging        `validate:"required"`
	Limiter    ratelimit.Limiter          `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UID        uid.NumberID               `validate:"required"`
	HMAC       hash.Hasher                `validate:"required"`
	Sealer     sealer.Sealer              `validate:"required"`
	Cookie     *cookie.Signer             `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	OTP        otp.OTP                    `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	repoDB := db.NewDB(dep.DBConn, dep.Instrument)
	repoMsg := mq.NewMessaging(dep.Messaging, dep.Instrument)
	verifier := captcha.New(captcha.Options{
		Enabled:   dep.Config.GetBool("captcha.enabled"),
		VerifyURL: dep.Config.GetString("captcha.verify_url"),
		SecretKey: dep.Config.GetString("captcha.secret_key"),
		Timeout:   dep.Config.GetSecond("captcha.timeout_seconds"),
	}, dep.Instrument)

	uc := usecase.New(usecase.Dependency{
		RepoDB:        repoDB,
		RepoMessaging: repoMsg,
		Captcha:       verifier,
		Limiter:       dep.Limiter,
		Validator:     dep.Validator,
		Config:        dep.Config,
		HMAC:          dep.HMAC,
		Sealer:        dep.Sealer,
		OTP:           dep.OTP,
		UID:           dep.UID,
		Clock:         dep.Clock,
		Instrument:    dep.Instrument,
		Goroutine:     dep.Goroutine,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc, dep.Cookie)

	return nil
}
