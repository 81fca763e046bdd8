// Package captcha verifies challenge tokens against a reCAPTCHA-compatible
// siteverify endpoint (Google reCAPTCHA, hCaptcha, Cloudflare Turnstile).
package captcha

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/benefactorum/authotp/internal/pkg/instrument"
	"github.com/sethvargo/go-retry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const DefaultVerifyURL = "https://www.google.com/recaptcha/api/siteverify"

var errUnexpectedStatus = errors.New("captcha: unexpected status from verifier")

type Options struct {
	// Enabled false accepts every token. Only meant for local runs and tests.
	Enabled   bool
	VerifyURL string
	SecretKey string
	Timeout   time.Duration
}

type Captcha struct {
	client  *http.Client
	opts    Options
	ins     instrument.Instrumentation
	backoff func() retry.Backoff
}

type siteverifyResponse struct {
	Success    bool     `json:"success"`
	Hostname   string   `json:"hostname"`
	ErrorCodes []string `json:"error-codes"`
}

func New(opts Options, ins instrument.Instrumentation) *Captcha {
	if opts.VerifyURL == "" {
		opts.VerifyURL = DefaultVerifyURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}

	return &Captcha{
		client: &http.Client{Timeout: opts.Timeout},
		opts:   opts,
		ins:    ins,
		backoff: func() retry.Backoff {
			return retry.WithMaxRetries(2, retry.NewExponential(200*time.Millisecond))
		},
	}
}

// Verify reports the verifier's verdict. A blank token is a false verdict
// without a network call; transport failures and 5xx answers are errors.
func (c *Captcha) Verify(ctx context.Context, token, remoteIP string) (_ bool, err error) {
	ctx, span := c.ins.Tracer("identity.outbound.captcha").Start(ctx, "Verify")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if !c.opts.Enabled {
		return true, nil
	}
	if strings.TrimSpace(token) == "" {
		return false, nil
	}

	form := url.Values{"secret": {c.opts.SecretKey}, "response": {token}}
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	var out siteverifyResponse
	err = retry.Do(ctx, c.backoff(), func(ctx context.Context) error {
		res, perr := c.post(ctx, form)
		if errors.Is(perr, errUnexpectedStatus) || isTransient(perr) {
			return retry.RetryableError(perr)
		}
		out = res
		return perr
	})
	if err != nil {
		return false, err
	}

	span.SetAttributes(attribute.Bool("captcha.success", out.Success))
	if !out.Success {
		slog.WarnContext(ctx, "captcha rejected", "error_codes", out.ErrorCodes, "hostname", out.Hostname)
	}

	return out.Success, nil
}

func (c *Captcha) post(ctx context.Context, form url.Values) (siteverifyResponse, error) {
	var out siteverifyResponse

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.VerifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return out, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return out, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return out, fmt.Errorf("%w: %d", errUnexpectedStatus, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return out, fmt.Errorf("captcha: verifier answered %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return out, fmt.Errorf("captcha: decode response: %w", err)
	}

	return out, nil
}

func isTransient(err error) bool {
	if err == nil {
		return false
	}
	var uerr *url.Error
	return errors.As(err, &uerr) && !errors.Is(err, context.Canceled)
}
