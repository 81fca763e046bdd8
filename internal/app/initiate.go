package app

import (
	"context"
	"log/slog"
	"os"

	"github.com/benefactorum/authotp/internal/pkg/clock"
	"github.com/benefactorum/authotp/internal/pkg/config"
	"github.com/benefactorum/authotp/internal/pkg/cookie"
	"github.com/benefactorum/authotp/internal/pkg/goroutine"
	"github.com/benefactorum/authotp/internal/pkg/hash"
	"github.com/benefactorum/authotp/internal/pkg/instrument"
	"github.com/benefactorum/authotp/internal/pkg/otp"
	"github.com/benefactorum/authotp/internal/pkg/sealer"
	"github.com/benefactorum/authotp/internal/pkg/uid"
	"github.com/benefactorum/authotp/internal/pkg/validator"
	"github.com/joho/godotenv"
	libOTP "github.com/pquerna/otp"
)

// fatal logs and exits; used only while wiring, before anything is served.
func fatal(msg string, args ...any) {
	slog.Error(msg, args...)
	os.Exit(1)
}

func (a *App) initConfig() {
	if os.Getenv("LOCAL") == "true" {
		// .env is optional; real environment variables win.
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			slog.Warn("failed to load .env", "error", err)
		}
	}

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "/config/config.yaml"
		if os.Getenv("LOCAL") == "true" {
			path = "./config/config.yaml"
		}
	}

	cfg, err := config.NewViper(path)
	if err != nil {
		fatal("failed to init config", "error", err)
	}

	//nolint:errcheck,gosec // ignore error
	os.Setenv("TZ", cfg.GetString("app.tz"))

	a.config = cfg
}

func (a *App) initInstrument() {
	ins, err := instrument.New(context.Background(), &instrument.Config{
		Enabled:          a.config.GetBool("instrument.enabled"),
		ServiceName:      a.config.GetString("instrument.service_name"),
		ServiceVersion:   a.config.GetString("instrument.service_version"),
		Environment:      a.config.GetString("instrument.env"),
		OTLPEndpoint:     a.config.GetString("instrument.otlp_endpoint"),
		OTLPSecure:       a.config.GetBool("instrument.otlp_secure"),
		TraceSampleRatio: a.config.GetFloat64("instrument.trace_sample_ratio"),
		MetricsInterval:  a.config.GetSecond("instrument.metric_interval_seconds"),
		MaskFields:       a.config.GetArray("instrument.log_mask_fields"),
	})
	if err != nil {
		fatal("failed to init instrumentation", "error", err)
	}
	a.ins = ins
}

func (a *App) initLibraries() {
	a.clock = clock.New()
	a.uuid = uid.NewUUID()
	a.goroutine = goroutine.NewManager(a.config.GetInt("app.server.max_goroutine"))
	a.hmac = hash.NewHMACSHA256(a.config.GetBinary("secret.hmac"))

	validator, err := validator.NewV10Validator()
	if err != nil {
		fatal("failed to init validation v10 validator", "error", err)
	}
	a.validator = validator

	snow, err := uid.NewSnowflake(a.config.GetInt64("app.node_id"))
	if err != nil {
		fatal("failed to init uid number snowflake", "error", err)
	}
	a.uid = snow

	a.hotp = otp.NewHOTP(a.config.GetString("modules.identity.otp.issuer"), libOTP.DigitsSix)

	keys, err := sealer.NewHKDFKeys(a.config.GetBinary("secret.master_key"), a.config.GetBinary("secret.salt"))
	if err != nil {
		fatal("failed to init sealer keys, secret.master_key must be 32 bytes base64", "error", err)
	}
	a.sealer = sealer.NewAESGCM(keys)

	a.cookie = cookie.NewSigner(a.hmac, cookie.Options{
		Name:   a.config.GetString("modules.identity.cookie.name"),
		Domain: a.config.GetString("modules.identity.cookie.domain"),
		Secure: a.config.GetBool("modules.identity.cookie.secure"),
		MaxAge: a.config.GetDay("modules.identity.cookie.max_age_days"),
	})
}

