package prometheus

import (
	"strconv"
	"time"
)

// AppMetrics is the full set of molview metric families.  A nil *AppMetrics
// is valid: every Record helper is a no-op on nil.
type AppMetrics struct {
	// Pipeline
	PipelineRunsTotal    CounterVec   // route, outcome
	PipelineRunDuration  HistogramVec // route
	PipelineStepDuration HistogramVec // step, status
	PipelineActiveRuns   GaugeVec
	StaleResponsesTotal  CounterVec // step

	// Remote service
	RemoteCallsTotal   CounterVec   // call, status
	RemoteCallDuration HistogramVec // call
	RemoteServiceUp    GaugeVec

	// Viewer
	ViewerLoadsTotal       CounterVec // result
	ViewerLoadRetriesTotal CounterVec

	// Response cache
	CacheHitsTotal   CounterVec // cache
	CacheMissesTotal CounterVec // cache

	// HTTP surface
	HTTPRequestsTotal   CounterVec   // method, path, status_code
	HTTPRequestDuration HistogramVec // method, path
	HTTPActiveRequests  GaugeVec
	SessionsActive      GaugeVec

	ErrorsTotal CounterVec // component, category
}

var (
	DefaultHTTPDurationBuckets   = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultRemoteDurationBuckets = []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120}
)

// NewAppMetrics registers every family on collector.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	m := &AppMetrics{}

	m.PipelineRunsTotal = collector.RegisterCounter("pipeline_runs_total", "Pipeline runs by route and outcome", "route", "outcome")
	m.PipelineRunDuration = collector.RegisterHistogram("pipeline_run_duration_seconds", "Pipeline run duration", DefaultRemoteDurationBuckets, "route")
	m.PipelineStepDuration = collector.RegisterHistogram("pipeline_step_duration_seconds", "Pipeline step duration", DefaultRemoteDurationBuckets, "step", "status")
	m.PipelineActiveRuns = collector.RegisterGauge("pipeline_active_runs", "Pipeline runs in flight")
	m.StaleResponsesTotal = collector.RegisterCounter("pipeline_stale_responses_total", "Responses discarded because their run was abandoned", "step")

	m.RemoteCallsTotal = collector.RegisterCounter("remote_calls_total", "Calls to the chemistry service", "call", "status")
	m.RemoteCallDuration = collector.RegisterHistogram("remote_call_duration_seconds", "Chemistry service call duration", DefaultRemoteDurationBuckets, "call")
	m.RemoteServiceUp = collector.RegisterGauge("remote_service_up", "Chemistry service health (1=online, 0=offline)")

	m.ViewerLoadsTotal = collector.RegisterCounter("viewer_loads_total", "Viewer structure loads", "result")
	m.ViewerLoadRetriesTotal = collector.RegisterCounter("viewer_load_retries_total", "Viewer loads deferred because the surface was not ready")

	m.CacheHitsTotal = collector.RegisterCounter("cache_hits_total", "Response cache hits", "cache")
	m.CacheMissesTotal = collector.RegisterCounter("cache_misses_total", "Response cache misses", "cache")

	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "path", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "path")
	m.HTTPActiveRequests = collector.RegisterGauge("http_active_requests", "Active HTTP requests")
	m.SessionsActive = collector.RegisterGauge("sessions_active", "Live analysis sessions")

	m.ErrorsTotal = collector.RegisterCounter("errors_total", "User-visible errors by taxonomy category", "component", "category")

	return m
}

// ─────────────────────────────────────────────────────────────────────────────
// Record helpers
// ─────────────────────────────────────────────────────────────────────────────

func outcomeLabel(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

// RecordPipelineRun counts a finished run.  outcome is completed, failed or
// stale.
func RecordPipelineRun(m *AppMetrics, route, outcome string) {
	if m == nil {
		return
	}
	m.PipelineRunsTotal.WithLabelValues(route, outcome).Inc()
}

// StartPipelineRun starts timing one run of route.  The timer observes
// nothing when m is nil.
func StartPipelineRun(m *AppMetrics, route string) *Timer {
	if m == nil {
		return NewTimer(nil)
	}
	return NewTimer(m.PipelineRunDuration.WithLabelValues(route))
}

func RecordPipelineStep(m *AppMetrics, step string, success bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.PipelineStepDuration.WithLabelValues(step, outcomeLabel(success)).Observe(duration.Seconds())
}

// TrackActiveRun adjusts the in-flight gauge by delta.
func TrackActiveRun(m *AppMetrics, delta int) {
	if m == nil {
		return
	}
	g := m.PipelineActiveRuns.WithLabelValues()
	if delta > 0 {
		g.Inc()
	} else {
		g.Dec()
	}
}

func RecordStaleResponse(m *AppMetrics, step string) {
	if m == nil {
		return
	}
	m.StaleResponsesTotal.WithLabelValues(step).Inc()
}

func RecordRemoteCall(m *AppMetrics, call string, success bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.RemoteCallsTotal.WithLabelValues(call, outcomeLabel(success)).Inc()
	m.RemoteCallDuration.WithLabelValues(call).Observe(duration.Seconds())
}

func RecordRemoteHealth(m *AppMetrics, online bool) {
	if m == nil {
		return
	}
	v := 0.0
	if online {
		v = 1
	}
	m.RemoteServiceUp.WithLabelValues().Set(v)
}

// RecordViewerLoad counts a load attempt; result is rendered, deferred or
// rejected.  Deferred loads also count as retries.
func RecordViewerLoad(m *AppMetrics, result string) {
	if m == nil {
		return
	}
	m.ViewerLoadsTotal.WithLabelValues(result).Inc()
	if result == "deferred" {
		m.ViewerLoadRetriesTotal.WithLabelValues().Inc()
	}
}

func RecordCacheAccess(m *AppMetrics, cache string, hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheHitsTotal.WithLabelValues(cache).Inc()
	} else {
		m.CacheMissesTotal.WithLabelValues(cache).Inc()
	}
}

func RecordHTTPRequest(m *AppMetrics, method, path string, statusCode int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func TrackActiveRequest(m *AppMetrics, delta int) {
	if m == nil {
		return
	}
	if delta > 0 {
		m.HTTPActiveRequests.WithLabelValues().Inc()
	} else {
		m.HTTPActiveRequests.WithLabelValues().Dec()
	}
}

func SetActiveSessions(m *AppMetrics, n int) {
	if m == nil {
		return
	}
	m.SessionsActive.WithLabelValues().Set(float64(n))
}

func RecordError(m *AppMetrics, component, category string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(component, category).Inc()
}
