// Package handler exposes the intake lifecycle over HTTP.
package handler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"carriercheck/internal/domain"
	"carriercheck/internal/intake/service"
	"carriercheck/internal/platform/middleware"
	dErrors "carriercheck/pkg/domain-errors"
	"carriercheck/pkg/platform/httputil"
	"carriercheck/pkg/platform/sentinel"
)

// Service defines the lifecycle operations the handler drives.
type Service interface {
	Create(ctx context.Context, fields domain.IntakeFields) (*service.CreateResult, error)
	Enrich(ctx context.Context, requestID string, update domain.IntakeUpdate) (*service.EnrichResult, error)
	Retrieve(ctx context.Context, requestID string) (*domain.Result, error)
}

// HealthChecker reports result store health.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Handler handles intake endpoints.
type Handler struct {
	service Service
	health  HealthChecker
	logger  *slog.Logger
}

// New creates an intake Handler. health may be nil.
func New(svc Service, health HealthChecker, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{service: svc, health: health, logger: logger}
}

// Register registers the intake routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/healthz", h.handleHealth)
	r.Options("/", h.handlePreflight)
	r.Options("/*", h.handlePreflight)
	r.Get("/", h.handleRetrieve)
	r.Get("/{request_id}", h.handleRetrieve)
	r.Post("/", h.handlePost)
}

func (h *Handler) handlePreflight(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, okResponse{OK: true})
}

// handleRetrieve serves GET /{request_id} and GET /?request_id=.
func (h *Handler) handleRetrieve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := chi.URLParam(r, "request_id")
	if requestID == "" {
		requestID = r.URL.Query().Get("request_id")
	}

	result, err := h.service.Retrieve(ctx, requestID)
	if err != nil {
		h.writeError(ctx, w, "retrieve", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resultResponse{OK: true, Result: result})
}

// handlePost creates a result, or enriches one when the body names a request_id.
func (h *Handler) handlePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := readPayload(w, r)
	if err != nil {
		h.writeError(ctx, w, "decode", err)
		return
	}

	if body.has("request_id") {
		h.enrich(ctx, w, body)
		return
	}
	h.create(ctx, w, body)
}

func (h *Handler) create(ctx context.Context, w http.ResponseWriter, body payload) {
	res, err := h.service.Create(ctx, body.intakeFields())
	if err != nil {
		h.writeError(ctx, w, "create", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, createResponse{
		OK:         true,
		RequestID:  res.RequestID,
		ReceivedAt: res.ReceivedAt,
		Summary:    res.Summary,
	})
}

func (h *Handler) enrich(ctx context.Context, w http.ResponseWriter, body payload) {
	update, err := body.intakeUpdate()
	if err != nil {
		h.writeError(ctx, w, "enrich", err)
		return
	}
	res, err := h.service.Enrich(ctx, body.requestID(), update)
	if err != nil {
		h.writeError(ctx, w, "enrich", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, enrichResponse{
		OK:        true,
		RequestID: res.RequestID,
		UpdatedAt: res.UpdatedAt,
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if h.health == nil {
		httputil.WriteJSON(w, http.StatusOK, healthResponse{OK: true, Store: "not_configured"})
		return
	}
	err := h.health.Health(r.Context())
	switch {
	case err == nil:
		httputil.WriteJSON(w, http.StatusOK, healthResponse{OK: true, Store: "ok"})
	case errors.Is(err, sentinel.ErrNotConfigured):
		httputil.WriteJSON(w, http.StatusOK, healthResponse{OK: true, Store: "not_configured"})
	default:
		h.logger.WarnContext(r.Context(), "result store unhealthy",
			"request_id", middleware.GetRequestID(r.Context()),
			"error", err,
		)
		httputil.WriteJSON(w, http.StatusServiceUnavailable, healthResponse{OK: false, Store: "unavailable"})
	}
}

// readPayload decodes a JSON object body. An empty body is an empty object.
func readPayload(w http.ResponseWriter, r *http.Request) (payload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "Invalid JSON")
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return payload{}, nil
	}
	r.Body = io.NopCloser(bytes.NewReader(raw))
	var body payload
	if err := httputil.DecodeJSON(w, r, &body); err != nil {
		return nil, err
	}
	if body == nil {
		// literal null
		body = payload{}
	}
	return body, nil
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, op string, err error) {
	attrs := []any{
		"request_id", middleware.GetRequestID(ctx),
		"op", op,
		"error", err,
	}
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, "intake request failed", attrs...)
	} else {
		h.logger.WarnContext(ctx, "intake request rejected", attrs...)
	}
	httputil.WriteError(w, err)
}
