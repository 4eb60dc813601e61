// Package requesttime pins a single "now" per HTTP request so every timestamp
// written while handling it (received_at, checked_at, updated_at) agrees.
package requesttime

import (
	"net/http"
	"time"

	"carriercheck/pkg/requestcontext"
)

// Middleware captures the current UTC time at the start of the request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now().UTC())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
