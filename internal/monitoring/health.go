package monitoring

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// HealthChecker tracks the liveness of the analysis loop and serves it as
// a JSON health endpoint.
type HealthChecker struct {
	mu           sync.RWMutex
	startedAt    time.Time
	lastAnalysis time.Time
	lastError    string
	staleAfter   time.Duration
}

// HealthStatus is the endpoint payload.
type HealthStatus struct {
	Status       string    `json:"status"`
	Timestamp    time.Time `json:"timestamp"`
	LastAnalysis time.Time `json:"last_analysis"`
	Uptime       string    `json:"uptime"`
	LastError    string    `json:"last_error,omitempty"`
}

// NewHealthChecker creates a checker that reports degraded once no
// analysis has completed within staleAfter.
func NewHealthChecker(staleAfter time.Duration) *HealthChecker {
	return &HealthChecker{
		startedAt:  time.Now(),
		staleAfter: staleAfter,
	}
}

// MarkAnalysis records a completed analysis pass.
func (h *HealthChecker) MarkAnalysis() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastAnalysis = time.Now()
	h.lastError = ""
}

// MarkError records a failed pass.
func (h *HealthChecker) MarkError(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastError = err.Error()
}

func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	status := "healthy"
	switch {
	case h.lastError != "":
		status = "unhealthy"
		w.WriteHeader(http.StatusInternalServerError)
	case h.lastAnalysis.IsZero() || time.Since(h.lastAnalysis) > h.staleAfter:
		status = "degraded"
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	payload := HealthStatus{
		Status:       status,
		Timestamp:    time.Now(),
		LastAnalysis: h.lastAnalysis,
		Uptime:       time.Since(h.startedAt).Round(time.Second).String(),
		LastError:    h.lastError,
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(payload)
}
