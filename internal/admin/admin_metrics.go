package admin

import (
	"net/http"
	"time"
)

const defaultMetricsHours = 1

func (h *Handler) metricsSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	hours, since := h.window(r, defaultMetricsHours)

	p95Ms, _ := h.store.PercentileResponseTimeMsSince(since, 0.95)
	p99Ms, _ := h.store.PercentileResponseTimeMsSince(since, 0.99)
	errorRate, totalReqs, errorsCount := h.store.ErrorRateSince(since)
	rpsByRoute := h.store.RPSByRouteSince(since)
	usageByView := h.store.UsageByViewSince(since)
	avgUpstreamMs, avgGatewayMs, upstreamCount := h.store.AvgUpstreamVsGatewaySince(since)

	var upstreamFailures, rateLimitHits int64
	if h.gateway != nil {
		upstreamFailures, rateLimitHits = h.gateway.Stats()
	}

	writeJSON(w, map[string]any{
		"window_hours":      hours,
		"since":             since.Format(time.RFC3339),
		"latency_p95_ms":    p95Ms,
		"latency_p99_ms":    p99Ms,
		"error_rate":        errorRate,
		"total_requests":    totalReqs,
		"error_requests":    errorsCount,
		"rps_by_route":      rpsByRoute,
		"usage_by_view":     usageByView,
		"rate_limit_hits":   rateLimitHits,
		"upstream_failures": upstreamFailures,
		"upstream_vs_gateway": map[string]any{
			"avg_upstream_ms":                avgUpstreamMs,
			"avg_gateway_ms":                 avgGatewayMs,
			"requests_with_upstream_latency": upstreamCount,
		},
	})
}
