// Package service owns the intake result lifecycle: create (verify + match +
// persist), enrich (merge optional fields) and retrieve.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"carriercheck/internal/audit"
	"carriercheck/internal/domain"
	"carriercheck/internal/intake/metrics"
	"carriercheck/internal/matching"
	dErrors "carriercheck/pkg/domain-errors"
	"carriercheck/pkg/requestcontext"
)

// Lifecycle failures, reachable with errors.Is through the returned domain error.
var (
	ErrResultNotFound    = errors.New("result not found")
	ErrNoUpdatableFields = errors.New("no updatable fields")
	ErrPersistFailed     = errors.New("failed to persist result")
)

type Verifier interface {
	Verify(ctx context.Context, mc string) domain.CarrierVerification
}

type LoadSource interface {
	List(ctx context.Context) []domain.Load
}

type Matcher interface {
	Match(intake domain.Intake, loads []domain.Load, limit int) domain.MatchResult
}

// ResultStore never errors; false means the write was not accepted.
type ResultStore interface {
	Save(ctx context.Context, id string, result *domain.Result) bool
	Get(ctx context.Context, id string) (*domain.Result, bool)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event)
}

// CreateResult is reported to the caller instead of the stored document.
type CreateResult struct {
	RequestID  string
	ReceivedAt time.Time
	Summary    domain.Summary
}

type EnrichResult struct {
	RequestID string
	UpdatedAt time.Time
}

// Service orchestrates verification, matching and persistence.
type Service struct {
	verifier   Verifier
	loads      LoadSource
	store      ResultStore
	matcher    Matcher
	matchLimit int
	newID      func() string
	clock      func() time.Time
	logger     *slog.Logger
	metrics    *metrics.Metrics
	audit      AuditPublisher
	tracer     trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.audit = publisher
	}
}

func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithIDGenerator replaces the random UUID request id source.
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) {
		if gen != nil {
			s.newID = gen
		}
	}
}

func WithMatchLimit(limit int) Option {
	return func(s *Service) {
		s.matchLimit = limit
	}
}

func WithMatcher(m Matcher) Option {
	return func(s *Service) {
		if m != nil {
			s.matcher = m
		}
	}
}

// New constructs a Service. store may be a repository with no backend; saves
// then report false and creates still succeed.
func New(verifier Verifier, loads LoadSource, store ResultStore, opts ...Option) *Service {
	s := &Service{
		verifier:   verifier,
		loads:      loads,
		store:      store,
		matcher:    matching.NewEngine(),
		matchLimit: matching.DefaultLimit,
		newID:      func() string { return uuid.NewString() },
		clock:      time.Now,
		logger:     slog.New(slog.DiscardHandler),
		tracer:     otel.Tracer("carriercheck/intake"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates every required field, then verifies the carrier and matches
// loads concurrently. The result is saved best-effort.
func (s *Service) Create(ctx context.Context, fields domain.IntakeFields) (*CreateResult, error) {
	if violations := fields.Violations(); violations != nil {
		return nil, dErrors.NewValidation("Missing or invalid fields", violations)
	}

	ctx, span := s.tracer.Start(ctx, "intake.Create")
	defer span.End()

	intake := fields.Normalize()
	requestID := s.newID()
	receivedAt := s.clock().UTC()
	span.SetAttributes(attribute.String("intake.request_id", requestID))

	var (
		verification domain.CarrierVerification
		matches      domain.MatchResult
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		verification = s.verifier.Verify(gctx, intake.MCNumber)
		return nil
	})
	g.Go(func() error {
		matches = s.matcher.Match(intake, s.loads.List(gctx), s.matchLimit)
		return nil
	})
	_ = g.Wait()

	result := &domain.Result{
		RequestID:  requestID,
		ReceivedAt: receivedAt,
		Intake:     intake,
		FMCSA:      verification,
		Loads:      matches,
		Status:     domain.StatusReady,
	}
	summary := result.Summarize()

	if !s.store.Save(ctx, requestID, result) {
		s.logger.WarnContext(ctx, "intake result not persisted",
			"request_id", requestcontext.RequestID(ctx),
			"result_id", requestID,
		)
		s.metrics.IncPersistFailure("create")
		s.emit(ctx, audit.ActionResultPersistFailed, requestID, intake.MCNumber, map[string]string{"op": "create"})
	}

	s.logger.InfoContext(ctx, "intake result created",
		"request_id", requestcontext.RequestID(ctx),
		"result_id", requestID,
		"mc_valid", summary.MCValid,
		"matches_count", summary.MatchesCount,
	)
	s.metrics.IncCreated(summary.MCValid, summary.MatchesCount)
	s.emit(ctx, audit.ActionResultCreated, requestID, intake.MCNumber, map[string]string{
		"mc_valid":      strconv.FormatBool(summary.MCValid),
		"matches_count": strconv.Itoa(summary.MatchesCount),
	})

	return &CreateResult{
		RequestID:  requestID,
		ReceivedAt: receivedAt,
		Summary:    summary,
	}, nil
}

// Enrich merges the supplied optional fields into a stored result. Required
// fields and the verification and matching sub-results are never touched.
func (s *Service) Enrich(ctx context.Context, requestID string, update domain.IntakeUpdate) (*EnrichResult, error) {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "Invalid request_id")
	}

	ctx, span := s.tracer.Start(ctx, "intake.Enrich")
	defer span.End()
	span.SetAttributes(attribute.String("intake.request_id", requestID))

	existing, ok := s.store.Get(ctx, requestID)
	if !ok {
		return nil, dErrors.Wrap(ErrResultNotFound, dErrors.CodeNotFound, "request_id not found")
	}
	if update.Empty() {
		return nil, dErrors.Wrap(ErrNoUpdatableFields, dErrors.CodeBadRequest, "No updatable fields provided")
	}

	updated := existing.Clone()
	update.ApplyTo(&updated.Intake)
	updatedAt := s.clock().UTC()
	updated.UpdatedAt = &updatedAt

	if !s.store.Save(ctx, requestID, updated) {
		s.logger.ErrorContext(ctx, "failed to persist enrichment",
			"request_id", requestcontext.RequestID(ctx),
			"result_id", requestID,
		)
		s.metrics.IncPersistFailure("enrich")
		s.emit(ctx, audit.ActionResultPersistFailed, requestID, updated.Intake.MCNumber, map[string]string{"op": "enrich"})
		return nil, dErrors.Wrap(ErrPersistFailed, dErrors.CodeInternal, "Failed to save")
	}

	s.logger.InfoContext(ctx, "intake result enriched",
		"request_id", requestcontext.RequestID(ctx),
		"result_id", requestID,
	)
	s.metrics.IncEnriched()
	s.emit(ctx, audit.ActionResultEnriched, requestID, updated.Intake.MCNumber, nil)

	return &EnrichResult{RequestID: requestID, UpdatedAt: updatedAt}, nil
}

// Retrieve is a pure read.
func (s *Service) Retrieve(ctx context.Context, requestID string) (*domain.Result, error) {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "Missing request_id")
	}
	result, ok := s.store.Get(ctx, requestID)
	if !ok {
		return nil, dErrors.Wrap(ErrResultNotFound, dErrors.CodeNotFound, "Not found")
	}
	return result, nil
}

func (s *Service) emit(ctx context.Context, action audit.Action, requestID, mc string, detail map[string]string) {
	if s.audit == nil {
		return
	}
	s.audit.Emit(ctx, audit.Event{
		Action:    action,
		RequestID: requestID,
		MCNumber:  mc,
		Detail:    detail,
	})
}
