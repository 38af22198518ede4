// Package proxy serves the Anthropic Messages API over HTTP, backed by an
// OpenAI-compatible upstream through the adapter layer.
package proxy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/florianilch/amelie-proxy/internal/anthropicadapter/openaichat"
	"github.com/florianilch/amelie-proxy/internal/observability/middleware"
)

const defaultMaxRequestBytes = 10 << 20

// ReadinessChecker reports whether the service is ready to accept traffic.
type ReadinessChecker interface {
	IsReady() bool
}

// Options configures a Proxy.
type Options struct {
	// UpstreamBaseURL is the OpenAI-compatible API root.
	UpstreamBaseURL string
	// Transport is used for all upstream calls and is expected to handle
	// authentication.
	Transport http.RoundTripper
	// MaxRequestBytes caps the request body size. Zero means the default.
	MaxRequestBytes int64
	// Readiness backs the /readyz endpoint. Nil reports always ready.
	Readiness ReadinessChecker
}

// Proxy is the HTTP server exposing /v1/messages, /v1/models and the health
// endpoints.
type Proxy struct {
	server *http.Server
}

func New(opts Options) (*Proxy, error) {
	if opts.UpstreamBaseURL == "" {
		return nil, fmt.Errorf("upstream base URL cannot be empty")
	}
	if opts.Transport == nil {
		opts.Transport = http.DefaultTransport
	}
	maxBytes := opts.MaxRequestBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxRequestBytes
	}

	messages := &CreateMessageHandler{
		Adapter:   &openaichat.CreateMessageAdapter{BaseURL: opts.UpstreamBaseURL},
		Transport: opts.Transport,
	}

	mux := http.NewServeMux()
	mux.Handle("POST /v1/messages", messages)
	mux.Handle("GET /v1/models", listModelsHandler(opts.UpstreamBaseURL, opts.Transport))
	mux.Handle("GET /healthz", livenessHandler())
	mux.Handle("GET /readyz", readinessHandler(opts.Readiness))

	handler := applyMiddlewares(mux,
		middleware.RequestIDGeneration,
		middleware.TraceContextExtraction,
		middleware.Logging(slog.Default()),
		middleware.RequestIDPropagation,
		Recovery,
		RequestSizeLimit(maxBytes),
	)

	return &Proxy{
		server: &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			// No write timeout: streaming responses stay open for the
			// duration of a generation.
			IdleTimeout: 2 * time.Minute,
		},
	}, nil
}

// Start listens on addr and serves in a background goroutine. The returned
// channel receives the terminal serve error, if any, and is closed on clean
// shutdown.
func (p *Proxy) Start(ctx context.Context, addr string) (<-chan error, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	slog.InfoContext(ctx, "proxy listening", slog.String("addr", listener.Addr().String()))

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if err := p.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	return errCh, nil
}

// Shutdown drains in-flight requests until ctx expires.
func (p *Proxy) Shutdown(ctx context.Context) error {
	return p.server.Shutdown(ctx)
}
