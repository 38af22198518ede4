// Package middleware provides HTTP middlewares for request logging and
// correlation.
package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/httplog/v3"
)

// Logging logs one line per request with method, path, status and duration.
// Health probes are skipped to keep the log readable under frequent polling.
// Request and response bodies are never logged; conversations routinely
// contain sensitive content.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return httplog.RequestLogger(logger, &httplog.Options{
		Schema: httplog.SchemaECS.Concise(true),

		Skip: func(req *http.Request, respStatus int) bool {
			return req.URL.Path == "/healthz" || req.URL.Path == "/readyz"
		},

		LogRequestHeaders:  []string{"Content-Type", "Origin"},
		LogResponseHeaders: []string{},
		LogRequestBody:     nil,
		LogResponseBody:    nil,

		// Panics are recovered by a dedicated middleware.
		RecoverPanics: false,
	})
}

// SetLogAttrs attaches attributes to the request log line.
func SetLogAttrs(ctx context.Context, attrs ...slog.Attr) {
	httplog.SetAttrs(ctx, attrs...)
}
