package sentinel

import "errors"

// Infrastructure facts returned (optionally wrapped) by stores and clients.
// Services translate them into domain errors; handlers never see them directly.
var (
	// ErrNotFound: no live record under the key (absent or expired).
	ErrNotFound = errors.New("not found")
	// ErrUnavailable: backend unreachable or rejected the operation.
	ErrUnavailable = errors.New("unavailable")
	// ErrNotConfigured: optional dependency intentionally left unset.
	ErrNotConfigured = errors.New("not configured")
)
