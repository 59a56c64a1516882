package store

import (
	"sort"
	"sync"
	"time"
)

const (
	maxUsage  = 100000
	keepUsage = 50000
)

// RequestUsage is one served gateway request. It holds no report data.
type RequestUsage struct {
	ID             int64     `json:"id"`
	Route          string    `json:"route"`
	View           string    `json:"view,omitempty"`
	Method         string    `json:"method"`
	StatusCode     int       `json:"status"`
	ResponseTimeMs int64     `json:"response_time_ms"`
	UpstreamTimeMs int64     `json:"upstream_time_ms"`
	RequestedAt    time.Time `json:"requested_at"`
}

type Store struct {
	mu        sync.RWMutex
	usage     []RequestUsage
	nextUsage int64
	now       func() time.Time
}

func NewStore() *Store {
	return &Store{
		usage:     make([]RequestUsage, 0, 10000),
		nextUsage: 1,
		now:       time.Now,
	}
}

func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.usage = s.usage[:0]
	s.nextUsage = 1
}

func (s *Store) RecordUsage(u RequestUsage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.ID = s.nextUsage
	s.nextUsage++
	if u.RequestedAt.IsZero() {
		u.RequestedAt = s.now()
	}
	s.usage = append(s.usage, u)
	if len(s.usage) > maxUsage {
		s.usage = append([]RequestUsage(nil), s.usage[len(s.usage)-keepUsage:]...)
	}
}

func (s *Store) UsageSince(since time.Time) []RequestUsage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []RequestUsage
	for _, u := range s.usage {
		if !u.RequestedAt.Before(since) {
			out = append(out, u)
		}
	}
	return out
}

func (s *Store) AvgResponseTimeMsSince(since time.Time) (avgMs float64, count int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var sum int64
	for _, u := range s.usage {
		if !u.RequestedAt.Before(since) {
			sum += u.ResponseTimeMs
			count++
		}
	}
	if count == 0 {
		return 0, 0
	}
	return float64(sum) / float64(count), count
}

func (s *Store) PercentileResponseTimeMsSince(since time.Time, percentile float64) (ms float64, count int) {
	s.mu.RLock()
	var slice []int64
	for _, u := range s.usage {
		if !u.RequestedAt.Before(since) {
			slice = append(slice, u.ResponseTimeMs)
		}
	}
	s.mu.RUnlock()
	if len(slice) == 0 {
		return 0, 0
	}
	sort.Slice(slice, func(i, j int) bool { return slice[i] < slice[j] })
	idx := int(float64(len(slice)) * percentile)
	if idx >= len(slice) {
		idx = len(slice) - 1
	}
	return float64(slice[idx]), len(slice)
}

func (s *Store) ErrorRateSince(since time.Time) (rate float64, total int, errors int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.usage {
		if !u.RequestedAt.Before(since) {
			total++
			if u.StatusCode >= 400 {
				errors++
			}
		}
	}
	if total == 0 {
		return 0, 0, 0
	}
	return float64(errors) / float64(total), total, errors
}

func (s *Store) RPSByRouteSince(since time.Time) map[string]float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[string]int)
	for _, u := range s.usage {
		if !u.RequestedAt.Before(since) {
			counts[u.Route]++
		}
	}
	secs := s.now().Sub(since).Seconds()
	if secs < 1 {
		secs = 1
	}
	out := make(map[string]float64, len(counts))
	for route, n := range counts {
		out[route] = float64(n) / secs
	}
	return out
}

// UsageByViewSince counts requests per report view; requests that never
// reached a view are counted under "none".
func (s *Store) UsageByViewSince(since time.Time) map[string]int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]int64)
	for _, u := range s.usage {
		if !u.RequestedAt.Before(since) {
			view := u.View
			if view == "" {
				view = "none"
			}
			out[view]++
		}
	}
	return out
}

func (s *Store) AvgUpstreamVsGatewaySince(since time.Time) (avgUpstreamMs, avgGatewayMs float64, count int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var sumUpstream, sumGateway int64
	for _, u := range s.usage {
		if !u.RequestedAt.Before(since) && u.UpstreamTimeMs > 0 {
			count++
			sumUpstream += u.UpstreamTimeMs
			gw := u.ResponseTimeMs - u.UpstreamTimeMs
			if gw < 0 {
				gw = 0
			}
			sumGateway += gw
		}
	}
	if count == 0 {
		return 0, 0, 0
	}
	return float64(sumUpstream) / float64(count), float64(sumGateway) / float64(count), count
}
