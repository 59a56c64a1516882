package meter

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/navantesolutions/gagateway/internal/store"
)

type Meter struct {
	store       *store.Store
	requestCnt  *prometheus.CounterVec
	requestLat  *prometheus.HistogramVec
	upstreamCnt *prometheus.CounterVec
	upstreamLat *prometheus.HistogramVec
	usageTotal  prometheus.Counter
}

func New(s *store.Store, reg prometheus.Registerer) *Meter {
	requestCnt := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gagw_requests_total",
			Help: "Total requests served by the gateway",
		},
		[]string{"route", "method", "status"},
	)
	requestLat := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gagw_request_duration_seconds",
			Help:    "Request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	upstreamCnt := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gagw_upstream_reports_total",
			Help: "Reports issued to the analytics backend",
		},
		[]string{"view", "outcome"},
	)
	upstreamLat := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gagw_upstream_duration_seconds",
			Help:    "Analytics backend latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"view"},
	)
	usageTotal := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gagw_usage_records_total",
			Help: "Total usage records stored",
		},
	)
	if reg != nil {
		reg.MustRegister(requestCnt, requestLat, upstreamCnt, upstreamLat, usageTotal)
	}
	return &Meter{
		store:       s,
		requestCnt:  requestCnt,
		requestLat:  requestLat,
		upstreamCnt: upstreamCnt,
		upstreamLat: upstreamLat,
		usageTotal:  usageTotal,
	}
}

// Record counts one served request and appends it to the usage store.
func (m *Meter) Record(route, view, method string, status int, durationMs, upstreamMs int64) {
	m.requestCnt.WithLabelValues(route, method, statusLabel(status)).Inc()
	m.requestLat.WithLabelValues(route).Observe(float64(durationMs) / 1000.0)
	m.store.RecordUsage(store.RequestUsage{
		Route:          route,
		View:           view,
		Method:         method,
		StatusCode:     status,
		ResponseTimeMs: durationMs,
		UpstreamTimeMs: upstreamMs,
	})
	m.usageTotal.Inc()
}

// ObserveReport implements report.Observer.
func (m *Meter) ObserveReport(view string, elapsed time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.upstreamCnt.WithLabelValues(view, outcome).Inc()
	m.upstreamLat.WithLabelValues(view).Observe(elapsed.Seconds())
}

func statusLabel(code int) string {
	if code >= 200 && code < 300 {
		return "2xx"
	}
	if code >= 400 && code < 500 {
		return "4xx"
	}
	if code >= 500 {
		return "5xx"
	}
	return "other"
}

// StatsSince summarizes the usage store for the monitor.
func (m *Meter) StatsSince(since time.Time) (total int64, byView map[string]int64) {
	usage := m.store.UsageSince(since)
	return int64(len(usage)), m.store.UsageByViewSince(since)
}

func (m *Meter) AvgLatencySince(since time.Time) float64 {
	avg, _ := m.store.AvgResponseTimeMsSince(since)
	return avg
}
