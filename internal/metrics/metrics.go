package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	// HTTP metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Dashboard metrics
	pollsTotal       *prometheus.CounterVec
	pollDuration     *prometheus.HistogramVec
	regionsActive    prometheus.Gauge
	backtestsTotal   *prometheus.CounterVec
	backtestDuration prometheus.Histogram
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		httpRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently in flight",
			},
		),
	}

	reg.MustRegister(r.httpRequestsTotal)
	reg.MustRegister(r.httpRequestDuration)
	reg.MustRegister(r.httpRequestsInFlight)

	r.pollsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_polls_total",
			Help: "Total number of region refresh polls",
		},
		[]string{"region", "status"},
	)
	r.pollDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pulse_poll_duration_seconds",
			Help:    "Region refresh duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"region"},
	)
	r.regionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pulse_regions_active",
			Help: "Number of dashboard regions being refreshed",
		},
	)
	r.backtestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_backtests_total",
			Help: "Total number of backtest renders",
		},
		[]string{"status"},
	)
	r.backtestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pulse_backtest_duration_seconds",
			Help:    "Backtest request duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60},
		},
	)

	reg.MustRegister(r.pollsTotal)
	reg.MustRegister(r.pollDuration)
	reg.MustRegister(r.regionsActive)
	reg.MustRegister(r.backtestsTotal)
	reg.MustRegister(r.backtestDuration)

	return r
}

// RecordRequest records metrics for an HTTP request.
func (r *Registry) RecordRequest(method, path string, status int, duration float64) {
	statusStr := statusToString(status)
	r.httpRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	r.httpRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// InFlightInc increments in-flight requests.
func (r *Registry) InFlightInc() {
	r.httpRequestsInFlight.Inc()
}

// InFlightDec decrements in-flight requests.
func (r *Registry) InFlightDec() {
	r.httpRequestsInFlight.Dec()
}

// RecordPoll records one refresh of a region.
func (r *Registry) RecordPoll(region, status string, duration float64) {
	r.pollsTotal.WithLabelValues(region, status).Inc()
	r.pollDuration.WithLabelValues(region).Observe(duration)
}

// SetRegionsActive sets the number of regions with a running refresh loop.
func (r *Registry) SetRegionsActive(n int) {
	r.regionsActive.Set(float64(n))
}

// RecordBacktest records a backtest completion.
func (r *Registry) RecordBacktest(status string, duration float64) {
	r.backtestsTotal.WithLabelValues(status).Inc()
	r.backtestDuration.Observe(duration)
}

func statusToString(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
