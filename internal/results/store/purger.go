package store

import (
	"context"
	"log/slog"
	"time"
)

// Purger is implemented by backends without native expiry.
type Purger interface {
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// RunPurger removes expired results every interval until ctx is cancelled.
// Failures are logged and retried on the next tick.
func RunPurger(ctx context.Context, p Purger, interval time.Duration, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			removed, err := p.PurgeExpired(ctx, time.Now())
			if err != nil {
				logger.WarnContext(ctx, "purge expired results failed", "error", err)
				continue
			}
			if removed > 0 {
				logger.InfoContext(ctx, "purged expired results", "count", removed)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
