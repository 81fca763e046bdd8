// Package template loads email templates from object storage and falls back
// to the copies embedded in the binary.
package template

import (
	"context"
	"embed"
	"errors"
	"log/slog"
	"sync"

	"github.com/benefactorum/authotp/internal/notification/entity"
	"github.com/benefactorum/authotp/internal/pkg/goerror"
	"github.com/benefactorum/authotp/internal/pkg/instrument"
	"github.com/benefactorum/authotp/internal/pkg/storage"
	"go.opentelemetry.io/otel/codes"
)

//go:embed default/*.html
var defaults embed.FS

type Options struct {
	Bucket string
	// Prefix is prepended to "<trigger>.html", e.g. "templates/email/".
	Prefix string
}

// Loader serves templates by trigger key. Objects are re-read only when their
// ETag changes.
type Loader struct {
	store storage.Storage
	opts  Options
	ins   instrument.Instrumentation

	mu    sync.Mutex
	cache map[entity.TriggerKey]entity.Template
}

// New returns a loader. A nil store serves the embedded templates only.
func New(store storage.Storage, opts Options, ins instrument.Instrumentation) *Loader {
	return &Loader{store: store, opts: opts, ins: ins, cache: map[entity.TriggerKey]entity.Template{}}
}

func (l *Loader) Get(ctx context.Context, tk entity.TriggerKey) (_ *entity.Template, err error) {
	ctx, span := l.ins.Tracer("notification.outbound.template").Start(ctx, "Get")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if l.store != nil && l.opts.Bucket != "" {
		tpl, err := l.fromStorage(ctx, tk)
		if err == nil {
			return tpl, nil
		}
		if !errors.Is(err, storage.ErrObjectNotFound) {
			slog.WarnContext(ctx, "failed to load template from storage, using embedded copy", "trigger_key", tk, "error", err)
		}
	}

	src, err := defaults.ReadFile("default/" + tk.String() + ".html")
	if err != nil {
		return nil, goerror.ErrNotFound
	}

	return &entity.Template{TriggerKey: tk, Source: string(src), Version: "embedded"}, nil
}

func (l *Loader) fromStorage(ctx context.Context, tk entity.TriggerKey) (*entity.Template, error) {
	key := l.opts.Prefix + tk.String() + ".html"

	info, err := l.store.Stat(ctx, l.opts.Bucket, key)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	cached, ok := l.cache[tk]
	l.mu.Unlock()
	if ok && info.ETag != "" && cached.Version == info.ETag {
		return &cached, nil
	}

	body, info, err := l.store.Get(ctx, l.opts.Bucket, key)
	if err != nil {
		return nil, err
	}

	tpl := entity.Template{TriggerKey: tk, Source: string(body), Version: info.ETag}

	l.mu.Lock()
	l.cache[tk] = tpl
	l.mu.Unlock()

	return &tpl, nil
}
