package app

import (
	"sync/atomic"

	"github.com/florianilch/amelie-proxy/internal/proxy"
)

// Health tracks whether the application is ready to serve traffic. The zero
// value reports not ready; all methods are safe for concurrent use.
type Health struct {
	ready atomic.Bool
}

var _ proxy.ReadinessChecker = (*Health)(nil)

func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

func (h *Health) IsReady() bool {
	return h.ready.Load()
}
