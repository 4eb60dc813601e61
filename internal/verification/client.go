// Package verification checks a carrier's operating authority against the FMCSA
// QC services registry.
//
// Every outcome, including transport failures, is returned as a
// domain.CarrierVerification; Verify never returns an error. Only timeouts are
// retried, with exponential backoff, up to Config.MaxRetries extra attempts.
package verification

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"carriercheck/internal/domain"
)

const (
	// redactionMarker replaces the web key wherever a URL or error is echoed.
	redactionMarker = "****"

	// maxResponseBytes bounds a registry response body.
	maxResponseBytes = 4 << 20

	fallbackFailure = "request_failed"
)

// Config configures the registry client. An empty BaseURL or non-positive
// Timeout falls back to the defaults in NewClient. Backoff zero retries without
// waiting; a negative Backoff means DefaultBackoff. WebKey has no default.
type Config struct {
	WebKey     string
	BaseURL    string
	MaxRetries int
	Backoff    time.Duration
	Timeout    time.Duration
}

const (
	DefaultBaseURL = "https://mobile.fmcsa.dot.gov/qc/services"
	DefaultBackoff = 750 * time.Millisecond
	DefaultTimeout = 28 * time.Second
)

// Client calls /carriers/{mc}?webKey=... and normalizes the response.
type Client struct {
	cfg     Config
	http    *http.Client
	logger  *slog.Logger
	metrics *Metrics
	clock   func() time.Time
	tracer  trace.Tracer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the transport. Per-attempt timeouts are applied
// through the request context regardless.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithClock sets the clock used for checked_at.
func WithClock(clock func() time.Time) Option {
	return func(c *Client) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// NewClient constructs a registry client.
func NewClient(cfg Config, opts ...Option) *Client {
	cfg.WebKey = strings.TrimSpace(cfg.WebKey)
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.Backoff < 0 {
		cfg.Backoff = DefaultBackoff
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	c := &Client{
		cfg:    cfg,
		http:   &http.Client{},
		logger: slog.New(slog.DiscardHandler),
		clock:  time.Now,
		tracer: otel.Tracer("carriercheck/verification"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Verify checks one carrier. checked_at is stamped once, before the first attempt.
func (c *Client) Verify(ctx context.Context, mc string) domain.CarrierVerification {
	checkedAt := c.clock().UTC()
	mcClean := domain.NormalizeMC(mc)
	if c.cfg.WebKey == "" || mcClean == "" {
		msg := domain.ErrMissingWebKeyOrMC
		return domain.CarrierVerification{Valid: false, Error: &msg, CheckedAt: checkedAt}
	}

	ctx, span := c.tracer.Start(ctx, "verification.Verify")
	defer span.End()
	start := time.Now()

	endpoint := c.endpoint(mcClean)
	var (
		result   domain.CarrierVerification
		lastErr  *VerifyError
		attempts int
	)
	err := retry.Do(ctx, c.backoff(), func(ctx context.Context) error {
		attempts++
		res, verr := c.attempt(ctx, endpoint)
		if verr == nil {
			c.metrics.observeAttempt("success")
			result = res
			return nil
		}
		c.metrics.observeAttempt(string(verr.Category))
		lastErr = verr
		if verr.Retryable {
			c.logger.WarnContext(ctx, "fmcsa attempt timed out",
				"attempt", attempts,
				"max_retries", c.cfg.MaxRetries,
			)
			return retry.RetryableError(verr)
		}
		return verr
	})
	span.SetAttributes(attribute.Int("verification.attempts", attempts))

	if err == nil {
		result.Endpoint = c.redact(endpoint)
		result.CheckedAt = checkedAt
		span.SetAttributes(attribute.Bool("verification.valid", result.Valid))
		c.metrics.observeResult(result.Valid, time.Since(start))
		return result
	}

	desc := fallbackFailure
	switch {
	case lastErr != nil:
		desc = lastErr.Description()
	case !errors.Is(err, context.Canceled):
		desc = err.Error()
	}
	desc = c.redact(desc)
	span.SetStatus(codes.Error, desc)
	c.logger.WarnContext(ctx, "fmcsa verification failed",
		"attempts", attempts,
		"category", GetCategory(err),
		"error", desc,
	)
	c.metrics.observeResult(false, time.Since(start))
	return domain.CarrierVerification{
		Valid:     false,
		Endpoint:  c.redact(endpoint),
		CheckedAt: checkedAt,
		Error:     &desc,
	}
}

// attempt performs one GET under the per-attempt timeout.
func (c *Client) attempt(ctx context.Context, endpoint string) (domain.CarrierVerification, *VerifyError) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.CarrierVerification{}, newError(ErrorUpstream, "", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.CarrierVerification{}, classifyTransport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		msg := fmt.Sprintf("HTTP Error %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
		return domain.CarrierVerification{}, newError(ErrorBadStatus, msg, nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return domain.CarrierVerification{}, classifyTransport(err)
	}
	return parseCarrier(body), nil
}

// backoff waits Backoff * 2^attempt between attempts, MaxRetries times at most.
func (c *Client) backoff() retry.Backoff {
	var b retry.Backoff
	if c.cfg.Backoff > 0 {
		b = retry.NewExponential(c.cfg.Backoff)
	} else {
		b = retry.BackoffFunc(func() (time.Duration, bool) { return 0, false })
	}
	return retry.WithMaxRetries(uint64(c.cfg.MaxRetries), b)
}

func (c *Client) endpoint(mc string) string {
	return fmt.Sprintf("%s/carriers/%s?webKey=%s", c.cfg.BaseURL, url.PathEscape(mc), url.QueryEscape(c.cfg.WebKey))
}

// redact removes the web key, raw or URL-escaped, from s.
func (c *Client) redact(s string) string {
	if c.cfg.WebKey == "" {
		return s
	}
	s = strings.ReplaceAll(s, c.cfg.WebKey, redactionMarker)
	if escaped := url.QueryEscape(c.cfg.WebKey); escaped != c.cfg.WebKey {
		s = strings.ReplaceAll(s, escaped, redactionMarker)
	}
	return s
}
