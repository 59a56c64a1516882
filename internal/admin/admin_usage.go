package admin

import (
	"net/http"
	"time"

	"github.com/navantesolutions/gagateway/internal/store"
)

const defaultUsageHours = 24

func (h *Handler) usage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	hours, since := h.window(r, defaultUsageHours)
	usage := h.store.UsageSince(since)
	if usage == nil {
		usage = []store.RequestUsage{}
	}
	writeJSON(w, map[string]any{
		"window_hours": hours,
		"since":        since.Format(time.RFC3339),
		"total":        len(usage),
		"requests":     usage,
	})
}
