package middleware

import "net/http"

// CORS header values sent on every response.
const (
	AllowedHeaders = "Content-Type, Authorization"
	AllowedMethods = "POST, OPTIONS"
)

// CORS sets the cross-origin headers on every response and answers
// preflight (OPTIONS) requests with 204 and no body. Preflight never reaches
// the wrapped handler, so it succeeds whatever the body, credentials or
// downstream configuration.
func CORS(allowedOrigin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", allowedOrigin)
			h.Set("Access-Control-Allow-Headers", AllowedHeaders)
			h.Set("Access-Control-Allow-Methods", AllowedMethods)
			h.Add("Vary", "Origin")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
