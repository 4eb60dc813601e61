package middleware

import "net/http"

// CORS sets the permissive headers the intake endpoint has always returned to
// browser-based callers.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Headers", "Content-Type,X-API-Key")
		h.Set("Access-Control-Allow-Methods", "OPTIONS,POST,GET")
		next.ServeHTTP(w, r)
	})
}
