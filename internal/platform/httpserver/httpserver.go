package httpserver

import (
	"net/http"
	"time"
)

// New builds the HTTP server. WriteTimeout stays above the registry timeout so a
// slow verification still gets its response written.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      35 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
