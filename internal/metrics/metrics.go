package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics
// ⭐ SSOT: 메트릭 정의는 여기서만
type Registry struct {
	*prometheus.Registry

	// HTTP
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// 스크리닝
	runsTotal       *prometheus.CounterVec
	runDuration     prometheus.Histogram
	sectorsReported prometheus.Gauge
	sectorScore     *prometheus.GaugeVec
	checksSkipped   *prometheus.CounterVec
	alertsSent      *prometheus.CounterVec
}

// NewRegistry creates a new metrics registry with all metrics registered
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

		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rotation_runs_total",
				Help: "Total number of screening runs",
			},
			[]string{"status"},
		),
		runDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "rotation_run_duration_seconds",
				Help:    "Screening run duration in seconds",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300},
			},
		),
		sectorsReported: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "rotation_sectors_reported",
				Help: "Number of sectors reported by the last run",
			},
		),
		sectorScore: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "rotation_sector_score",
				Help: "Rotation score of each evaluated sector in the last run",
			},
			[]string{"code"},
		),
		checksSkipped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rotation_checks_skipped_total",
				Help: "Rotation checks that fell back to defaults",
			},
			[]string{"check"},
		),
		alertsSent: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rotation_alerts_total",
				Help: "Telegram alert attempts",
			},
			[]string{"status"},
		),
	}

	reg.MustRegister(r.httpRequestsTotal)
	reg.MustRegister(r.httpRequestDuration)
	reg.MustRegister(r.httpRequestsInFlight)
	reg.MustRegister(r.runsTotal)
	reg.MustRegister(r.runDuration)
	reg.MustRegister(r.sectorsReported)
	reg.MustRegister(r.sectorScore)
	reg.MustRegister(r.checksSkipped)
	reg.MustRegister(r.alertsSent)

	return r
}

// RecordRequest records metrics for an HTTP request
func (r *Registry) RecordRequest(method, path string, status int, duration float64) {
	r.httpRequestsTotal.WithLabelValues(method, path, statusToString(status)).Inc()
	r.httpRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// InFlightInc increments in-flight requests
func (r *Registry) InFlightInc() {
	r.httpRequestsInFlight.Inc()
}

// InFlightDec decrements in-flight requests
func (r *Registry) InFlightDec() {
	r.httpRequestsInFlight.Dec()
}

// RecordRun records a finished screening run ("success" or "error")
func (r *Registry) RecordRun(status string, duration float64) {
	r.runsTotal.WithLabelValues(status).Inc()
	r.runDuration.Observe(duration)
}

// SetSectorsReported sets the number of reported sectors
func (r *Registry) SetSectorsReported(n int) {
	r.sectorsReported.Set(float64(n))
}

// SetSectorScore sets the last score of a sector
func (r *Registry) SetSectorScore(code string, score int) {
	r.sectorScore.WithLabelValues(code).Set(float64(score))
}

// RecordSkippedCheck counts a check that defaulted
func (r *Registry) RecordSkippedCheck(check string) {
	r.checksSkipped.WithLabelValues(check).Inc()
}

// RecordAlert records an alert attempt ("sent", "error")
func (r *Registry) RecordAlert(status string) {
	r.alertsSent.WithLabelValues(status).Inc()
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
