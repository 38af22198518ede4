// Package app orchestrates the lifecycle of the proxy server and its
// supporting services.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/florianilch/amelie-proxy/internal/proxy"
	"github.com/florianilch/amelie-proxy/internal/tokensource"
)

// App wires configuration, authentication and the proxy server together.
type App struct {
	cfg    Config
	proxy  *proxy.Proxy
	health *Health
}

// New builds the application from a validated configuration.
func New(cfg Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	store, err := cfg.Auth.NewTokenStore()
	if err != nil {
		return nil, fmt.Errorf("failed to create token store: %w", err)
	}

	health := &Health{}
	proxyServer, err := proxy.New(proxy.Options{
		UpstreamBaseURL: cfg.Upstream.BaseURL,
		Transport:       tokensource.NewTransport(http.DefaultTransport, store),
		MaxRequestBytes: cfg.MaxRequestBytes,
		Readiness:       health,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create proxy: %w", err)
	}

	return &App{
		cfg:    cfg,
		proxy:  proxyServer,
		health: health,
	}, nil
}

// Start starts all services and blocks until shutdown is triggered.
// Uses errgroup for runtime error monitoring and shutdown function collection
// for coordinated cleanup.
func (a *App) Start(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	var shutdownFuncs []func(context.Context) error

	slog.InfoContext(gCtx, "starting proxy server",
		slog.String("listen", a.cfg.Listen),
		slog.String("upstream", a.cfg.Upstream.BaseURL))
	proxyErrCh, err := a.proxy.Start(gCtx, a.cfg.Listen)
	if err != nil {
		return fmt.Errorf("proxy startup failed: %w", err)
	}
	shutdownFuncs = append(shutdownFuncs, a.proxy.Shutdown)
	a.health.SetReady(true)

	// Monitor runtime errors - errgroup cancels context on first error
	g.Go(func() error {
		select {
		case err := <-proxyErrCh:
			if err != nil {
				slog.ErrorContext(gCtx, "proxy runtime error", slog.Any("error", err))
				return fmt.Errorf("proxy: %w", err)
			}
			return nil
		case <-gCtx.Done():
			return nil
		}
	})

	runtimeErr := g.Wait()
	a.health.SetReady(false)

	slog.InfoContext(gCtx, "shutting down services")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var errs []error
	if runtimeErr != nil {
		errs = append(errs, fmt.Errorf("runtime: %w", runtimeErr))
	}

	for i := len(shutdownFuncs) - 1; i >= 0; i-- {
		if err := shutdownFuncs[i](shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "service shutdown failed", slog.Any("error", err))
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	slog.Info("application stopped")
	return nil
}
