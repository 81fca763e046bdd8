package notification

import (
	"context"

	"github.com/benefactorum/authotp/internal/notification/inbound"
	"github.com/benefactorum/authotp/internal/notification/outbound/db"
	"github.com/benefactorum/authotp/internal/notification/outbound/email"
	"github.com/benefactorum/authotp/internal/notification/outbound/template"
	"github.com/benefactorum/authotp/internal/notification/usecase"
	"github.com/benefactorum/authotp/internal/pkg/clock"
	"github.com/benefactorum/authotp/internal/pkg/config"
	"github.com/benefactorum/authotp/internal/pkg/goroutine"
	"github.com/benefactorum/authotp/internal/pkg/idempotency"
	"github.com/benefactorum/authotp/internal/pkg/instrument"
	"github.com/benefactorum/authotp/internal/pkg/mail"
	"github.com/benefactorum/authotp/internal/pkg/messaging"
	"github.com/benefactorum/authotp/internal/pkg/sealer"
	"github.com/benefactorum/authotp/internal/pkg/storage"
	"github.com/benefactorum/authotp/internal/pkg/uid"
	"github.com/benefactorum/authotp/internal/pkg/validator"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Dependency struct {
	// Ctx scopes the consumers; nil skips them (HTTP-only replicas).
	Ctx         context.Context
	DBConn      *pgxpool.Pool              `validate:"required"`
	Messaging   messaging.Messaging        `validate:"required"`
	Config      config.Config              `validate:"required"`
	Instrument  instrument.Instrumentation `validate:"required"`
	UID         uid.NumberID               `validate:"required"`
	UUID        uid.StringID               `validate:"required"`
	Clock       clock.Clocker              `validate:"required"`
	Goroutine   *goroutine.Manager         `validate:"required"`
	Validator   validator.Validator        `validate:"required"`
	Mail        mail.Mail                  `validate:"required"`
	Sealer      sealer.Sealer              `validate:"required"`
	Idempotency idempotency.Idempotency    `validate:"required"`
	// Storage is optional; the embedded templates are used without it.
	Storage storage.Storage
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	dbNotif := db.NewDB(dep.DBConn, dep.Instrument)
	repoMail := email.New(dep.Mail, dep.Instrument)
	repoTemplate := template.New(dep.Storage, template.Options{
		Bucket: dep.Config.GetString("modules.notification.template.bucket"),
		Prefix: dep.Config.GetString("modules.notification.template.prefix"),
	}, dep.Instrument)

	uc := usecase.NewNotification(usecase.Dependency{
		RepoDB:       dbNotif,
		RepoMail:     repoMail,
		RepoTemplate: repoTemplate,
		Idempotency:  dep.Idempotency,
		Sealer:       dep.Sealer,
		Config:       dep.Config,
		UID:          dep.UID,
		Clock:        dep.Clock,
		Validator:    dep.Validator,
		Instrument:   dep.Instrument,
	})

	if dep.Ctx != nil {
		inbound.RegisterMQConsumer(dep.Ctx, dep.Config, dep.Goroutine, dep.Messaging, dep.UUID, uc, dep.Instrument)
	}

	return nil
}
