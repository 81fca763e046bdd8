package usecase

import (
	"bytes"
	"context"
	"html/template"

	"github.com/benefactorum/authotp/internal/notification/entity"
	"github.com/benefactorum/authotp/internal/pkg/clock"
	"github.com/benefactorum/authotp/internal/pkg/config"
	"github.com/benefactorum/authotp/internal/pkg/idempotency"
	"github.com/benefactorum/authotp/internal/pkg/instrument"
	"github.com/benefactorum/authotp/internal/pkg/mail"
	"github.com/benefactorum/authotp/internal/pkg/sealer"
	"github.com/benefactorum/authotp/internal/pkg/uid"
	"github.com/benefactorum/authotp/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

type repoDB interface {
	CreateDeliveryLog(ctx context.Context, in entity.CreateDeliveryLog) error
	UpdateDeliveryLogStatus(ctx context.Context, u entity.UpdateDeliveryLog) error
}

type repoMail interface {
	Send(ctx context.Context, msg mail.Message) error
}

type repoTemplate interface {
	Get(ctx context.Context, tk entity.TriggerKey) (*entity.Template, error)
}

type Usecase struct {
	repoDB       repoDB
	repoMail     repoMail
	repoTemplate repoTemplate
	idempotency  idempotency.Idempotency
	sealer       sealer.Sealer
	cfg          config.Config
	uid          uid.NumberID
	clock        clock.Clocker
	validator    validator.Validator
	ins          instrument.Instrumentation
}

type Dependency struct {
	RepoDB       repoDB
	RepoMail     repoMail
	RepoTemplate repoTemplate
	Idempotency  idempotency.Idempotency
	Sealer       sealer.Sealer
	Config       config.Config
	UID          uid.NumberID
	Clock        clock.Clocker
	Validator    validator.Validator
	Instrument   instrument.Instrumentation
}

func NewNotification(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:       dep.RepoDB,
		repoMail:     dep.RepoMail,
		repoTemplate: dep.RepoTemplate,
		idempotency:  dep.Idempotency,
		sealer:       dep.Sealer,
		cfg:          dep.Config,
		uid:          dep.UID,
		clock:        dep.Clock,
		validator:    dep.Validator,
		ins:          dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("notification.usecase").Start(ctx, name)
}

// render executes the "subject" and "body" blocks of tpl.
func (s *Usecase) render(tpl *entity.Template, data map[string]any) (subject, body string, err error) {
	t, err := template.New(tpl.TriggerKey.String()).Option("missingkey=zero").Parse(tpl.Source)
	if err != nil {
		return "", "", err
	}

	var sb, bb bytes.Buffer
	if err := t.ExecuteTemplate(&sb, "subject", data); err != nil {
		return "", "", err
	}
	if err := t.ExecuteTemplate(&bb, "body", data); err != nil {
		return "", "", err
	}

	return sb.String(), bb.String(), nil
}

func (s *Usecase) baseEmailTemplateData() map[string]any {
	appName := s.cfg.GetString("app.name")
	if appName == "" {
		appName = "Benefactorum"
	}
	return map[string]any{
		"app_name":      appName,
		"support_email": s.cfg.GetString("modules.notification.support_email"),
		"year":          s.clock.Now().Format("2006"),
	}
}
