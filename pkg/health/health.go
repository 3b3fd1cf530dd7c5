// Package health provides liveness and readiness probe endpoints with
// periodic background checks.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// CheckFunc probes one component. It returns nil when the component is
// healthy.
type CheckFunc func(ctx context.Context) error

type check struct {
	name    string
	timeout time.Duration
	probe   CheckFunc

	healthy atomic.Bool
	lastErr atomic.Pointer[error]
}

func (c *check) run(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err := c.probe(ctx)
	c.lastErr.Store(&err)
	c.healthy.Store(err == nil)
}

// Health manages liveness and readiness checks for a service. The service
// starts not ready; call SetReady(true) after initialization and
// SetReady(false) to drain during shutdown.
type Health struct {
	ready  atomic.Bool
	mu     sync.Mutex
	live   []*check
	readyC []*check
	cancel context.CancelFunc
}

// New creates an empty Health instance.
func New() *Health {
	return &Health{}
}

// AddLivenessCheck registers a check that decides whether the process is
// alive (e.g. goroutine leaks).
func (h *Health) AddLivenessCheck(name string, timeout time.Duration, probe CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.live = append(h.live, newCheck(name, timeout, probe))
}

// AddReadinessCheck registers a check that decides whether the service can
// take traffic (e.g. database connectivity).
func (h *Health) AddReadinessCheck(name string, timeout time.Duration, probe CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.readyC = append(h.readyC, newCheck(name, timeout, probe))
}

func newCheck(name string, timeout time.Duration, probe CheckFunc) *check {
	c := &check{name: name, timeout: timeout, probe: probe}
	// Healthy until the first probe says otherwise.
	c.healthy.Store(true)
	return c
}

// Start runs all registered checks every interval until Stop is called or
// ctx is cancelled.
func (h *Health) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	h.mu.Lock()
	h.cancel = cancel
	checks := append(append([]*check{}, h.live...), h.readyC...)
	h.mu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for _, c := range checks {
			c.run(ctx)
		}
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				for _, c := range checks {
					c.run(ctx)
				}
			}
		}
	}()
}

// Stop halts the background checks.
func (h *Health) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
}

// SetReady flips the manual readiness gate.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady reports whether the manual gate is open and every readiness check
// passes.
func (h *Health) IsReady() bool {
	if !h.ready.Load() {
		return false
	}
	h.mu.Lock()
	checks := h.readyC
	h.mu.Unlock()

	for _, c := range checks {
		if !c.healthy.Load() {
			return false
		}
	}
	return true
}

type probeResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// LiveEndpoint serves the liveness probe: 200 when all liveness checks
// pass, 503 otherwise.
func (h *Health) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	h.mu.Lock()
	checks := h.live
	h.mu.Unlock()
	writeProbe(w, checks, true)
}

// ReadyEndpoint serves the readiness probe: 200 when the service is marked
// ready and all readiness checks pass, 503 otherwise.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	h.mu.Lock()
	checks := h.readyC
	h.mu.Unlock()
	writeProbe(w, checks, h.ready.Load())
}

func writeProbe(w http.ResponseWriter, checks []*check, gate bool) {
	resp := probeResponse{Status: "ok", Checks: make(map[string]string, len(checks))}
	healthy := gate
	if !gate {
		resp.Status = "unavailable"
	}

	for _, c := range checks {
		state := "ok"
		if !c.healthy.Load() {
			healthy = false
			state = "failing"
			if p := c.lastErr.Load(); p != nil && *p != nil {
				state = (*p).Error()
			}
		}
		resp.Checks[c.name] = state
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
		resp.Status = "unavailable"
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
