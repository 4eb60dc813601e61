// Package results persists intake results for later retrieval and enrichment.
//
// Repository never surfaces backend errors: a failed save reports false and a
// failed read is indistinguishable from a miss. Both are logged and counted.
package results

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"carriercheck/internal/domain"
	"carriercheck/pkg/platform/sentinel"
	"carriercheck/pkg/requestcontext"
)

// DefaultTTL is the retention window applied when none is configured.
const DefaultTTL = 24 * time.Hour

// Backend is a keyed document store. Put receives the absolute expiry that was
// stamped into the document; a zero time never expires. Get reports a miss as
// sentinel.ErrNotFound.
type Backend interface {
	Put(ctx context.Context, id string, r *domain.Result, expiresAt time.Time) error
	Get(ctx context.Context, id string) (*domain.Result, error)
}

// Pinger is implemented by backends that can report their health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Repository adapts a Backend to the best-effort save/get contract.
type Repository struct {
	backend Backend
	ttl     time.Duration
	clock   func() time.Time
	logger  *slog.Logger
	metrics *Metrics
}

// Option configures a Repository.
type Option func(*Repository)

func WithTTL(ttl time.Duration) Option {
	return func(r *Repository) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

func WithClock(clock func() time.Time) Option {
	return func(r *Repository) {
		if clock != nil {
			r.clock = clock
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Repository) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(r *Repository) {
		r.metrics = m
	}
}

// New wraps backend. A nil backend is a valid "no store configured" repository.
func New(backend Backend, opts ...Option) *Repository {
	r := &Repository{
		backend: backend,
		ttl:     DefaultTTL,
		clock:   time.Now,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Configured reports whether results are persisted at all.
func (r *Repository) Configured() bool {
	return r != nil && r.backend != nil
}

// Save stores a copy of result under id with request_id set to id and ttl set
// to now+TTL in epoch seconds. Existing documents are overwritten.
func (r *Repository) Save(ctx context.Context, id string, result *domain.Result) bool {
	if !r.Configured() {
		r.logger.WarnContext(ctx, "result store not configured, skipping save",
			"request_id", requestcontext.RequestID(ctx),
			"result_id", id,
		)
		r.metrics.observe(opSave, outcomeUnavailable)
		return false
	}
	if result == nil || id == "" {
		r.metrics.observe(opSave, outcomeError)
		return false
	}

	doc := result.Clone()
	doc.RequestID = id
	expiresAt := time.Unix(r.clock().Add(r.ttl).Unix(), 0).UTC()
	doc.TTL = expiresAt.Unix()

	if err := r.backend.Put(ctx, id, doc, expiresAt); err != nil {
		r.logger.ErrorContext(ctx, "failed to save result",
			"request_id", requestcontext.RequestID(ctx),
			"result_id", id,
			"error", err,
		)
		r.metrics.observe(opSave, outcomeError)
		return false
	}
	r.metrics.observe(opSave, outcomeOK)
	return true
}

// Get returns the stored result, or false when absent, expired, unconfigured
// or unreadable.
func (r *Repository) Get(ctx context.Context, id string) (*domain.Result, bool) {
	if !r.Configured() {
		r.metrics.observe(opGet, outcomeUnavailable)
		return nil, false
	}
	if id == "" {
		return nil, false
	}

	doc, err := r.backend.Get(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		r.metrics.observe(opGet, outcomeMiss)
		return nil, false
	}
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to read result",
			"request_id", requestcontext.RequestID(ctx),
			"result_id", id,
			"error", err,
		)
		r.metrics.observe(opGet, outcomeError)
		return nil, false
	}
	r.metrics.observe(opGet, outcomeOK)
	return doc, true
}

// Health pings the backend when it supports it.
func (r *Repository) Health(ctx context.Context) error {
	if !r.Configured() {
		return sentinel.ErrNotConfigured
	}
	if p, ok := r.backend.(Pinger); ok {
		if err := p.Ping(ctx); err != nil {
			return fmt.Errorf("%w: %w", sentinel.ErrUnavailable, err)
		}
	}
	return nil
}
