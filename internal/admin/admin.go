package admin

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/navantesolutions/gagateway/internal/store"
)

// GatewayStats exposes the gateway's upstream failure and rate-limit counters.
type GatewayStats interface {
	Stats() (upstreamFailures, rateLimited int64)
}

type Handler struct {
	store   *store.Store
	gateway GatewayStats
	prefix  string
	now     func() time.Time
}

func New(s *store.Store, gw GatewayStats, prefix string) *Handler {
	return &Handler{store: s, gateway: gw, prefix: prefix, now: time.Now}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc(h.prefix+"/usage", h.usage)
	mux.HandleFunc(h.prefix+"/metrics", h.metricsSummary)
}

// window reads ?hours=N, falling back to def for missing or non-positive values.
func (h *Handler) window(r *http.Request, def int) (hours int, since time.Time) {
	hours = def
	if s := r.URL.Query().Get("hours"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			hours = v
		}
	}
	return hours, h.now().Add(-time.Duration(hours) * time.Hour)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
