package audit

import (
	"context"
	"log/slog"
)

// LogSink writes events to a structured logger. Used when no broker is configured.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Write(ctx context.Context, event Event) error {
	attrs := []any{
		"action", string(event.Action),
		"request_id", event.RequestID,
		"timestamp", event.Timestamp,
	}
	if event.MCNumber != "" {
		attrs = append(attrs, "mc_number", event.MCNumber)
	}
	for k, v := range event.Detail {
		attrs = append(attrs, k, v)
	}
	s.logger.InfoContext(ctx, "audit", attrs...)
	return nil
}
