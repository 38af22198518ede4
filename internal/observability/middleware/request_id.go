package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
)

// RequestIDContextKey keys the request ID in a request context.
type RequestIDContextKey struct{}

// RequestID returns the request's ID, or "" when none was assigned.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDContextKey{}).(string)
	return id
}

// RequestIDGeneration ensures every request carries an ID: the client's
// X-Request-ID header when present, a fresh UUID otherwise. The ID is stored
// in the request context for downstream middlewares and handlers.
func RequestIDGeneration(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		ctx := context.WithValue(r.Context(), RequestIDContextKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestIDPropagation mirrors the request ID to the X-Request-ID response
// header and attaches it to the request log line. The header is set before
// the handler runs so it survives error and recovery paths.
func RequestIDPropagation(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := RequestID(r.Context()); id != "" {
			w.Header().Set("X-Request-ID", id)
			SetLogAttrs(r.Context(), slog.String("request_id", id))
		}
		next.ServeHTTP(w, r)
	})
}
