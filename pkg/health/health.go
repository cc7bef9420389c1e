// Package health serves the cart service's liveness and readiness probes.
// Readiness fans out to every registered dependency check concurrently and
// reports per-dependency status and latency.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// Checker reports whether one dependency is reachable.
type Checker func(ctx context.Context) error

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// checkTimeout bounds the whole readiness pass; a hung dependency must not
// stall the probe.
const checkTimeout = 5 * time.Second

// Check is the outcome of a single dependency check.
type Check struct {
	Status  string `json:"status"`
	Latency string `json:"latency"`
	Error   string `json:"error,omitempty"`
}

// Response is the body of both probe endpoints.
type Response struct {
	Status string           `json:"status"`
	Checks map[string]Check `json:"checks,omitempty"`
}

// Handler serves the liveness and readiness endpoints.
type Handler struct {
	mu       sync.RWMutex
	checkers map[string]Checker
}

func NewHandler() *Handler {
	return &Handler{checkers: make(map[string]Checker)}
}

// Register adds a named dependency check run on every readiness probe.
func (h *Handler) Register(name string, checker Checker) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checkers[name] = checker
}

// LivenessHandler answers healthy whenever the process can serve requests.
func (h *Handler) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeResponse(w, http.StatusOK, Response{Status: StatusHealthy})
	}
}

// ReadinessHandler runs all registered checks in parallel and answers 503 if
// any dependency is down.
func (h *Handler) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
		defer cancel()

		h.mu.RLock()
		checkers := make(map[string]Checker, len(h.checkers))
		for name, checker := range h.checkers {
			checkers[name] = checker
		}
		h.mu.RUnlock()

		var (
			wg      sync.WaitGroup
			resMu   sync.Mutex
			checks  = make(map[string]Check, len(checkers))
			healthy = true
		)
		for name, checker := range checkers {
			wg.Add(1)
			go func(name string, checker Checker) {
				defer wg.Done()
				start := time.Now()
				err := checker(ctx)

				result := Check{Status: StatusHealthy, Latency: time.Since(start).Round(time.Millisecond).String()}
				if err != nil {
					result.Status = StatusUnhealthy
					result.Error = err.Error()
				}

				resMu.Lock()
				checks[name] = result
				if err != nil {
					healthy = false
				}
				resMu.Unlock()
			}(name, checker)
		}
		wg.Wait()

		status, code := StatusHealthy, http.StatusOK
		if !healthy {
			status, code = StatusUnhealthy, http.StatusServiceUnavailable
		}
		writeResponse(w, code, Response{Status: status, Checks: checks})
	}
}

func writeResponse(w http.ResponseWriter, code int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}
