package admin

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navantesolutions/gagateway/internal/store"
)

type stubStats struct{ failures, limited int64 }

func (s stubStats) Stats() (int64, int64) { return s.failures, s.limited }

func newTestMux(t *testing.T) (*http.ServeMux, *store.Store) {
	t.Helper()
	s := store.NewStore()
	mux := http.NewServeMux()
	New(s, stubStats{failures: 2, limited: 5}, "/api/admin").Register(mux)
	return mux, s
}

func getJSON(t *testing.T, mux http.Handler, target string) map[string]any {
	t.Helper()
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestUsage(t *testing.T) {
	mux, s := newTestMux(t)
	s.RecordUsage(store.RequestUsage{Route: "/api/ga/devices", View: "devices", Method: "GET", StatusCode: 200, ResponseTimeMs: 12})
	s.RecordUsage(store.RequestUsage{Route: "/api/ga/devices", View: "devices", Method: "GET", StatusCode: 200, RequestedAt: time.Now().Add(-48 * time.Hour)})

	body := getJSON(t, mux, "/api/admin/usage")
	assert.Equal(t, float64(24), body["window_hours"])
	assert.Equal(t, float64(1), body["total"])

	body = getJSON(t, mux, "/api/admin/usage?hours=72")
	assert.Equal(t, float64(2), body["total"])

	body = getJSON(t, mux, "/api/admin/usage?hours=-3")
	assert.Equal(t, float64(24), body["window_hours"])
}

func TestUsageEmpty(t *testing.T) {
	mux, _ := newTestMux(t)
	body := getJSON(t, mux, "/api/admin/usage")
	assert.Equal(t, []any{}, body["requests"])
}

func TestMetricsSummary(t *testing.T) {
	mux, s := newTestMux(t)
	s.RecordUsage(store.RequestUsage{Route: "/api/ga/overview", View: "overview", StatusCode: 200, ResponseTimeMs: 100, UpstreamTimeMs: 80})
	s.RecordUsage(store.RequestUsage{Route: "/api/ga/overview", View: "overview", StatusCode: 500, ResponseTimeMs: 40, UpstreamTimeMs: 30})
	s.RecordUsage(store.RequestUsage{Route: "unmatched", StatusCode: 404, ResponseTimeMs: 1})

	body := getJSON(t, mux, "/api/admin/metrics")
	assert.Equal(t, float64(1), body["window_hours"])
	assert.Equal(t, float64(3), body["total_requests"])
	assert.Equal(t, float64(2), body["error_requests"])
	assert.Equal(t, float64(5), body["rate_limit_hits"])
	assert.Equal(t, float64(2), body["upstream_failures"])
	assert.Equal(t, map[string]any{"overview": float64(2), "none": float64(1)}, body["usage_by_view"])

	split := body["upstream_vs_gateway"].(map[string]any)
	assert.Equal(t, float64(55), split["avg_upstream_ms"])
	assert.Equal(t, float64(15), split["avg_gateway_ms"])
	assert.Equal(t, float64(2), split["requests_with_upstream_latency"])
}

func TestMethodNotAllowed(t *testing.T) {
	mux, _ := newTestMux(t)
	for _, path := range []string{"/api/admin/usage", "/api/admin/metrics"} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, path, nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, path)
	}
}
