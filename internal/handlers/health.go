package handlers

import (
	"context"
	"net/http"
	"runtime"
	"sort"
	"time"

	"video-platform/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusDegraded = "degraded"

	probeTimeout = 2 * time.Second
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Uptime  string            `json:"uptime"`
	Checks  map[string]string `json:"checks"`

	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`
}

// probe runs every dependency check and reports per-dependency results.
func (h *Handlers) probe(ctx context.Context) (map[string]string, bool) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	names := make([]string, 0, len(h.probes))
	for name := range h.probes {
		names = append(names, name)
	}
	sort.Strings(names)

	checks := make(map[string]string, len(names))
	ok := true
	for _, name := range names {
		if err := h.probes[name].Ping(ctx); err != nil {
			log.Warn("health probe %s failed: %v", name, err)
			checks[name] = "error: " + err.Error()
			ok = false
			continue
		}
		checks[name] = "ok"
	}
	return checks, ok
}

// HealthCheck returns the health status of the service and its dependencies
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	checks, ok := h.probe(r.Context())

	response := HealthResponse{
		Status:       statusHealthy,
		Version:      startup.Version,
		Uptime:       time.Since(h.started).Round(time.Second).String(),
		Checks:       checks,
		GoVersion:    runtime.Version(),
		NumCPU:       runtime.NumCPU(),
		NumGoroutine: runtime.NumGoroutine(),
	}

	status := http.StatusOK
	if !ok {
		response.Status = statusDegraded
		status = http.StatusServiceUnavailable
	}
	if r.Method == http.MethodHead {
		w.WriteHeader(status)
		return
	}
	writeJSONStatus(w, status, response)
}

// LivenessCheck is a simple liveness probe (always returns 200 if server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	// For HEAD requests, only send headers (no body)
	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{"status": "alive"})
	}
}

// ReadinessCheck returns 200 only when every dependency answers
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.probe(r.Context()); !ok {
		writeJSONStatus(w, http.StatusServiceUnavailable, map[string]string{"status": "not_ready"})
		return
	}
	writeJSONStatus(w, http.StatusOK, map[string]string{"status": "ready"})
}
