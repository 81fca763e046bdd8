package app

import (
	"context"
	"net/http"

	"github.com/benefactorum/authotp/internal/pkg/clock"
	"github.com/benefactorum/authotp/internal/pkg/config"
	"github.com/benefactorum/authotp/internal/pkg/cookie"
	"github.com/benefactorum/authotp/internal/pkg/goroutine"
	"github.com/benefactorum/authotp/internal/pkg/hash"
	"github.com/benefactorum/authotp/internal/pkg/idempotency"
	"github.com/benefactorum/authotp/internal/pkg/instrument"
	"github.com/benefactorum/authotp/internal/pkg/mail"
	"github.com/benefactorum/authotp/internal/pkg/messaging"
	"github.com/benefactorum/authotp/internal/pkg/otp"
	"github.com/benefactorum/authotp/internal/pkg/ratelimit"
	"github.com/benefactorum/authotp/internal/pkg/router"
	"github.com/benefactorum/authotp/internal/pkg/sealer"
	"github.com/benefactorum/authotp/internal/pkg/storage"
	"github.com/benefactorum/authotp/internal/pkg/uid"
	"github.com/benefactorum/authotp/internal/pkg/validator"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine *goroutine.Manager
	validator validator.Validator
	clock     clock.Clocker
	hmac      hash.Hasher
	sealer    sealer.Sealer
	uid       uid.NumberID
	uuid      uid.StringID
	hotp      otp.OTP
	cookie    *cookie.Signer

	// resources
	dbConn    *pgxpool.Pool
	cacheConn *redis.Client
	idemp     idempotency.Idempotency
	limiter   ratelimit.Limiter
	mail      mail.Mail
	messaging messaging.Messaging
	storage   storage.Storage

	// server
	router     *router.Router
	httpServer *http.Server

	//
	closers []struct {
		name string
		fn   func(context.Context) error
	}
}

// New initializes the application with default wiring and returns an App instance.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
	}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initDatabase()
	app.initCache()
	app.initRateLimiter()
	app.initMail()
	app.initStorage()
	app.initMessaging()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}
