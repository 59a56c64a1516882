package gateway

import (
	"context"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/navantesolutions/gagateway/config"
	"github.com/navantesolutions/gagateway/internal/hub"
	"github.com/navantesolutions/gagateway/internal/meter"
	"github.com/navantesolutions/gagateway/internal/report"
)

const (
	HeaderRequestID = "X-Request-Id"

	RouteOverview   = "/api/ga/overview"
	RouteTimeSeries = "/api/ga/timeseries"
	RouteTopPages   = "/api/ga/top-pages"
	RouteSources    = "/api/ga/sources"
	RouteDevices    = "/api/ga/devices"

	routeUnmatched = "unmatched"
)

var knownRoutes = map[string]bool{
	RouteOverview:   true,
	RouteTimeSeries: true,
	RouteTopPages:   true,
	RouteSources:    true,
	RouteDevices:    true,
}

type Gateway struct {
	mu      sync.RWMutex
	config  *config.Config
	reports *report.Service
	meter   *meter.Meter
	log     *logrus.Logger
	mux     *http.ServeMux
	handler http.Handler
	Hub     *hub.Broadcaster

	upstreamFailures int64
	rateLimitedCount int64
}

func New(cfg *config.Config, svc *report.Service, m *meter.Meter, h *hub.Broadcaster, log *logrus.Logger) *Gateway {
	if log == nil {
		log = logrus.StandardLogger()
	}
	g := &Gateway{
		config:  cfg,
		reports: svc,
		meter:   m,
		log:     log,
		Hub:     h,
	}
	g.mux = http.NewServeMux()
	g.mux.HandleFunc(RouteOverview, g.overview)
	g.mux.HandleFunc(RouteTimeSeries, g.timeSeries)
	g.mux.HandleFunc(RouteTopPages, g.topPages)
	g.mux.HandleFunc(RouteSources, g.sources)
	g.mux.HandleFunc(RouteDevices, g.devices)
	g.rebuildHandler()
	return g
}

// UpdateConfig swaps request-time settings (CORS, rate limit, limit parsing).
// Analytics client settings are fixed at startup.
func (g *Gateway) UpdateConfig(cfg *config.Config) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.config = cfg
	g.rebuildHandler()
}

func (g *Gateway) settings() config.QueryConfig {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.config.Query
}

func (g *Gateway) rebuildHandler() {
	middlewares := []Middleware{
		g.RecordMiddleware(),
		g.RecoverMiddleware(),
		CORSMiddleware(g.config.CORS.AllowedOrigins),
	}
	if g.config.RateLimit.Enabled {
		middlewares = append(middlewares, g.RateLimitMiddleware(
			g.config.RateLimit.RPS,
			g.config.RateLimit.Burst,
		))
	}
	g.handler = Chain(g.mux, middlewares...)
}

func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	g.mu.RLock()
	handler := g.handler
	g.mu.RUnlock()

	handler.ServeHTTP(w, r)
}

// Stats returns the upstream failure and rate-limit counters since start.
func (g *Gateway) Stats() (upstreamFailures, rateLimited int64) {
	return atomic.LoadInt64(&g.upstreamFailures), atomic.LoadInt64(&g.rateLimitedCount)
}

// requestInfo is filled in by handlers and middlewares, then read back by
// RecordMiddleware once the response is written.
type requestInfo struct {
	ID     string
	Action string
	Err    string
}

type infoKey struct{}

func infoFrom(r *http.Request) *requestInfo {
	if info, ok := r.Context().Value(infoKey{}).(*requestInfo); ok {
		return info
	}
	return &requestInfo{}
}

// RecordMiddleware assigns a request id, then meters, publishes and logs
// every request after it is served.
func (g *Gateway) RecordMiddleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			info := &requestInfo{ID: r.Header.Get(HeaderRequestID)}
			if info.ID == "" {
				info.ID = uuid.NewString()
			}
			w.Header().Set(HeaderRequestID, info.ID)

			ctx, tr := report.WithTrace(r.Context())
			ctx = context.WithValue(ctx, infoKey{}, info)
			rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r.WithContext(ctx))

			elapsed := time.Since(start).Milliseconds()
			upstreamMs := tr.Upstream.Milliseconds()
			route := r.URL.Path
			if !knownRoutes[route] {
				route = routeUnmatched
			}
			if info.Action == "" {
				info.Action = actionFor(rec.status)
			}
			if g.meter != nil {
				g.meter.Record(route, tr.View, r.Method, rec.status, elapsed, upstreamMs)
			}
			remoteIP := clientIP(r)
			if g.Hub != nil {
				g.Hub.PublishRequest(hub.RequestEvent{
					Timestamp:  start,
					Method:     r.Method,
					Path:       r.URL.Path,
					View:       tr.View,
					Status:     rec.status,
					Latency:    elapsed,
					UpstreamMs: upstreamMs,
					IP:         remoteIP,
					RequestID:  info.ID,
					Action:     info.Action,
					Error:      info.Err,
				})
			}
			g.log.WithFields(logrus.Fields{
				"request_id":  info.ID,
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      rec.status,
				"latency_ms":  elapsed,
				"upstream_ms": upstreamMs,
				"action":      info.Action,
			}).Info("gagateway: request served")
		})
	}
}

func actionFor(status int) string {
	switch {
	case status < 400:
		return hub.ActionOK
	case status == http.StatusNotFound:
		return hub.ActionNotFound
	case status == http.StatusTooManyRequests:
		return hub.ActionRateLimit
	case status < 500:
		return hub.ActionBadRequest
	default:
		return hub.ActionUpstreamError
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type responseRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *responseRecorder) WriteHeader(code int) {
	if r.wroteHeader {
		return
	}
	r.status = code
	r.wroteHeader = true
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	if !r.wroteHeader {
		r.WriteHeader(http.StatusOK)
	}
	return r.ResponseWriter.Write(b)
}
