package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/navantesolutions/gagateway/internal/hub"
	"github.com/navantesolutions/gagateway/internal/report"
)

// Error tags returned in the "error" field of a failed response.
const (
	tagOverview   = "overview_failed"
	tagTimeSeries = "timeseries_failed"
	tagTopPages   = "top_pages_failed"
	tagSources    = "sources_failed"
	tagDevices    = "devices_failed"
)

type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func queryOf(r *http.Request) report.Query {
	q := r.URL.Query()
	return report.Query{Start: q.Get("start"), End: q.Get("end")}
}

func allowGET(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// fail maps err onto a status and writes {error: tag, details}.
func (g *Gateway) fail(w http.ResponseWriter, r *http.Request, tag string, err error) {
	info := infoFrom(r)
	info.Err = err.Error()

	status := http.StatusInternalServerError
	var limitErr *LimitError
	var upstreamErr *report.UpstreamError
	switch {
	case errors.As(err, &limitErr), errors.Is(err, report.ErrFieldCollision):
		status = http.StatusBadRequest
		info.Action = hub.ActionBadRequest
	case errors.As(err, &upstreamErr):
		atomic.AddInt64(&g.upstreamFailures, 1)
		info.Action = hub.ActionUpstreamError
	default:
		info.Action = hub.ActionInternal
	}

	entry := g.log.WithFields(logrus.Fields{
		"request_id": info.ID,
		"route":      r.URL.Path,
		"tag":        tag,
	}).WithError(err)
	if status >= http.StatusInternalServerError {
		entry.Error("gagateway: report failed")
	} else {
		entry.Warn("gagateway: bad request")
	}
	writeJSON(w, status, errorBody{Error: tag, Details: err.Error()})
}

func (g *Gateway) limitParam(r *http.Request) (int, error) {
	q := g.settings()
	return parseLimit(r.URL.Query().Get("limit"), q.DefaultLimit, q.LimitMode)
}

func (g *Gateway) overview(w http.ResponseWriter, r *http.Request) {
	if !allowGET(w, r) {
		return
	}
	view, err := g.reports.Overview(r.Context(), queryOf(r))
	if err != nil {
		g.fail(w, r, tagOverview, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (g *Gateway) timeSeries(w http.ResponseWriter, r *http.Request) {
	if !allowGET(w, r) {
		return
	}
	view, err := g.reports.TimeSeries(r.Context(), queryOf(r), r.URL.Query().Get("metric"))
	if err != nil {
		g.fail(w, r, tagTimeSeries, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (g *Gateway) topPages(w http.ResponseWriter, r *http.Request) {
	if !allowGET(w, r) {
		return
	}
	limit, err := g.limitParam(r)
	if err != nil {
		g.fail(w, r, tagTopPages, err)
		return
	}
	view, err := g.reports.TopPages(r.Context(), queryOf(r), limit)
	if err != nil {
		g.fail(w, r, tagTopPages, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (g *Gateway) sources(w http.ResponseWriter, r *http.Request) {
	if !allowGET(w, r) {
		return
	}
	limit, err := g.limitParam(r)
	if err != nil {
		g.fail(w, r, tagSources, err)
		return
	}
	view, err := g.reports.Sources(r.Context(), queryOf(r), limit)
	if err != nil {
		g.fail(w, r, tagSources, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (g *Gateway) devices(w http.ResponseWriter, r *http.Request) {
	if !allowGET(w, r) {
		return
	}
	view, err := g.reports.Devices(r.Context(), queryOf(r))
	if err != nil {
		g.fail(w, r, tagDevices, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
