package app

import (
	"github.com/benefactorum/authotp/internal/identity"
	"github.com/benefactorum/authotp/internal/notification"
)

func (a *App) initModules() {
	if a.config.GetBool("modules.identity.enabled") {
		if err := identity.New(identity.Dependency{
			DBConn:     a.dbConn,
			Goroutine:  a.goroutine,
			Router:     a.router,
			Messaging:  a.messaging,
			Limiter:    a.limiter,
			Config:     a.config,
			Instrument: a.ins,
			UID:        a.uid,
			HMAC:       a.hmac,
			Sealer:     a.sealer,
			Cookie:     a.cookie,
			Clock:      a.clock,
			OTP:        a.hotp,
			Validator:  a.validator,
		}); err != nil {
			fatal("failed to init module identity", "error", err)
		}
	}

	if a.config.GetBool("modules.notification.enabled") {
		if err := notification.New(notification.Dependency{
			Ctx:         a.ctx,
			DBConn:      a.dbConn,
			Messaging:   a.messaging,
			Config:      a.config,
			Instrument:  a.ins,
			UID:         a.uid,
			UUID:        a.uuid,
			Clock:       a.clock,
			Goroutine:   a.goroutine,
			Validator:   a.validator,
			Mail:        a.mail,
			Sealer:      a.sealer,
			Idempotency: a.idemp,
			Storage:     a.storage,
		}); err != nil {
			fatal("failed to init module notification", "error", err)
		}
	}
}
