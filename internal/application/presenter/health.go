package presenter

import (
	"context"
	"sync"
	"time"

	"github.com/turtacn/molview/internal/infrastructure/clock"
	"github.com/turtacn/molview/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molview/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/molview/pkg/client"
	"github.com/turtacn/molview/pkg/errors"
)

// Defaults for health polling.
const (
	DefaultHealthInterval = 30 * time.Second
	DefaultHealthTimeout  = 5 * time.Second
)

// HealthChecker is the remote health call.  *client.Client satisfies it.
type HealthChecker interface {
	Health(ctx context.Context) (*client.HealthStatus, error)
}

var _ HealthChecker = (*client.Client)(nil)

// ServiceStatus is the online/offline indicator.
type ServiceStatus struct {
	Online    bool      `json:"online"`
	Status    string    `json:"status,omitempty"`
	Endpoints []string  `json:"endpoints,omitempty"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// Label is the indicator text.
func (s ServiceStatus) Label() string {
	if s.Online {
		return "Online"
	}
	return "Offline"
}

// HealthMonitor polls the remote service and keeps the last status.
type HealthMonitor struct {
	checker  HealthChecker
	interval time.Duration
	timeout  time.Duration
	clock    clock.Clock
	logger   logging.Logger
	metrics  *prometheus.AppMetrics

	mu       sync.RWMutex
	status   ServiceStatus
	ticker   clock.Timer
	onChange []func(ServiceStatus)
}

// HealthOption configures a HealthMonitor.
type HealthOption func(*HealthMonitor)

func WithHealthClock(c clock.Clock) HealthOption {
	return func(h *HealthMonitor) {
		if c != nil {
			h.clock = c
		}
	}
}

func WithHealthLogger(l logging.Logger) HealthOption {
	return func(h *HealthMonitor) {
		if l != nil {
			h.logger = l
		}
	}
}

func WithHealthMetrics(m *prometheus.AppMetrics) HealthOption {
	return func(h *HealthMonitor) { h.metrics = m }
}

// WithStatusListener registers fn to be called when online/offline flips.
func WithStatusListener(fn func(ServiceStatus)) HealthOption {
	return func(h *HealthMonitor) {
		if fn != nil {
			h.onChange = append(h.onChange, fn)
		}
	}
}

func NewHealthMonitor(checker HealthChecker, interval, timeout time.Duration, opts ...HealthOption) *HealthMonitor {
	if interval <= 0 {
		interval = DefaultHealthInterval
	}
	if timeout <= 0 {
		timeout = DefaultHealthTimeout
	}
	h := &HealthMonitor{
		checker:  checker,
		interval: interval,
		timeout:  timeout,
		clock:    clock.Real(),
		logger:   logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Check polls the service once and records the result.  Any failure means
// offline.
func (h *HealthMonitor) Check(ctx context.Context) ServiceStatus {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	st := ServiceStatus{CheckedAt: h.clock.Now()}
	resp, err := h.checker.Health(ctx)
	switch {
	case err != nil:
		st.Error = errors.UserMessage(err)
	case resp == nil:
		st.Error = client.MsgHealthFailed
	case !resp.Healthy():
		st.Status = resp.Status
		st.Error = resp.Message
	default:
		st.Online = true
		st.Status = resp.Status
		st.Endpoints = append([]string(nil), resp.Endpoints...)
	}

	h.mu.Lock()
	prev := h.status
	h.status = st
	listeners := append([]func(ServiceStatus){}, h.onChange...)
	h.mu.Unlock()

	prometheus.RecordRemoteHealth(h.metrics, st.Online)
	if prev.Online != st.Online || prev.CheckedAt.IsZero() {
		if st.Online {
			h.logger.Info("analysis service online", logging.String("status", st.Status))
		} else {
			h.logger.Warn("analysis service offline", logging.String("error", st.Error))
		}
		for _, fn := range listeners {
			fn(st)
		}
	}
	return st
}

// Status returns the last recorded status.
func (h *HealthMonitor) Status() ServiceStatus {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.status
}

// Start checks immediately and then on every interval until Stop.
func (h *HealthMonitor) Start(ctx context.Context) {
	h.Check(ctx)
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.ticker != nil {
		return
	}
	h.ticker = h.clock.Every(h.interval, func() {
		if ctx.Err() != nil {
			return
		}
		h.Check(ctx)
	})
}

func (h *HealthMonitor) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.ticker != nil {
		h.ticker.Stop()
		h.ticker = nil
	}
}
