package hub

import (
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// Request outcomes carried in RequestEvent.Action.
const (
	ActionOK            = "OK"
	ActionUpstreamError = "UPSTREAM_ERROR"
	ActionBadRequest    = "BAD_REQUEST"
	ActionRateLimit     = "RATE_LIMIT"
	ActionNotFound      = "NOT_FOUND"
	ActionInternal      = "INTERNAL_ERROR"
)

type SystemStats struct {
	TotalRequests    int64
	AvgLatency       float64
	UpstreamFailures int64
	RateLimited      int64
	ByView           map[string]int64
	Uptime           time.Duration
	CPUUsage         float64
	MemoryUsageMB    uint64
	MemoryTotalMB    uint64
}

type RequestEvent struct {
	Timestamp  time.Time
	Method     string
	Path       string
	View       string
	Status     int
	Latency    int64
	UpstreamMs int64
	IP         string
	RequestID  string
	Action     string
	Error      string
}

// Failed reports whether the event should be kept by failure sinks.
func (ev RequestEvent) Failed() bool {
	return ev.Action != "" && ev.Action != ActionOK
}

// Broadcaster fans request events and stats out to the monitor and sinks.
type Broadcaster struct {
	requestChan chan RequestEvent
	statsChan   chan SystemStats
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		requestChan: make(chan RequestEvent, 100),
		statsChan:   make(chan SystemStats, 10),
	}
}

// PublishRequest never blocks; events are dropped when consumers lag.
func (b *Broadcaster) PublishRequest(ev RequestEvent) {
	select {
	case b.requestChan <- ev:
	default:
	}
}

func (b *Broadcaster) PublishStats(s SystemStats) {
	select {
	case b.statsChan <- s:
	default:
	}
}

func (b *Broadcaster) RequestChan() <-chan RequestEvent {
	return b.requestChan
}

func (b *Broadcaster) StatsChan() <-chan SystemStats {
	return b.statsChan
}

// StatsFunc supplies the gateway-side counters for a collector tick.
type StatsFunc func() SystemStats

// Collector periodically merges gateway counters with host vitals and
// publishes them on the hub.
type Collector struct {
	Hub      *Broadcaster
	interval time.Duration
	stats    StatsFunc
	started  time.Time
	stop     chan struct{}
}

func NewCollector(h *Broadcaster, interval time.Duration, stats StatsFunc) *Collector {
	return &Collector{
		Hub:      h,
		interval: interval,
		stats:    stats,
		started:  time.Now(),
		stop:     make(chan struct{}),
	}
}

func (c *Collector) Start() {
	ticker := time.NewTicker(c.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.Hub.PublishStats(c.Collect())
			case <-c.stop:
				return
			}
		}
	}()
}

// Collect takes one sample.
func (c *Collector) Collect() SystemStats {
	var s SystemStats
	if c.stats != nil {
		s = c.stats()
	}
	s.Uptime = time.Since(c.started)
	if percents, err := cpu.Percent(100*time.Millisecond, false); err == nil && len(percents) > 0 {
		s.CPUUsage = percents[0] / 100.0
	}
	if v, err := mem.VirtualMemory(); err == nil {
		s.MemoryUsageMB = v.Used / (1024 * 1024)
		s.MemoryTotalMB = v.Total / (1024 * 1024)
	}
	return s
}

func (c *Collector) Stop() {
	close(c.stop)
}
