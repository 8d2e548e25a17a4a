package handlers

import (
	"net/http"
	"time"

	"github.com/turtacn/molview/internal/application/presenter"
)

// HealthHandler serves liveness and readiness probes.  Readiness follows the
// reachability of the remote chemistry service.
type HealthHandler struct {
	monitor *presenter.HealthMonitor
	version string
	startAt time.Time
}

// NewHealthHandler creates a HealthHandler.  A nil monitor makes the server
// always ready.
func NewHealthHandler(version string, monitor *presenter.HealthMonitor) *HealthHandler {
	return &HealthHandler{monitor: monitor, version: version, startAt: time.Now()}
}

// LivenessResponse is the body of GET /healthz.
type LivenessResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

// ReadinessResponse is the body of GET /readyz.
type ReadinessResponse struct {
	Status  string                   `json:"status"`
	Service *presenter.ServiceStatus `json:"service,omitempty"`
}

// StatusResponse is the body of GET /api/status, the service indicator.
type StatusResponse struct {
	Label string `json:"label"`
	presenter.ServiceStatus
}

// Liveness handles GET /healthz.  It never touches the remote service.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, LivenessResponse{
		Status:  "alive",
		Version: h.version,
		Uptime:  time.Since(h.startAt).Truncate(time.Second).String(),
	})
}

// Readiness handles GET /readyz with a fresh health check.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.monitor == nil {
		writeJSON(w, http.StatusOK, ReadinessResponse{Status: "ready"})
		return
	}
	st := h.monitor.Check(r.Context())
	if !st.Online {
		writeJSON(w, http.StatusServiceUnavailable, ReadinessResponse{Status: "not_ready", Service: &st})
		return
	}
	writeJSON(w, http.StatusOK, ReadinessResponse{Status: "ready", Service: &st})
}

// Status handles GET /api/status with the last polled result.
func (h *HealthHandler) Status(w http.ResponseWriter, r *http.Request) {
	if h.monitor == nil {
		writeJSON(w, http.StatusOK, StatusResponse{Label: "Unknown"})
		return
	}
	st := h.monitor.Status()
	writeJSON(w, http.StatusOK, StatusResponse{Label: st.Label(), ServiceStatus: st})
}
