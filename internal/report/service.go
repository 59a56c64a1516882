package report

import (
	"context"
	"time"
)

// Backend runs one report against the upstream reporting service.
type Backend interface {
	RunReport(ctx context.Context, spec Spec) (*Table, error)
}

// Observer is told about every upstream call.
type Observer interface {
	ObserveReport(view string, elapsed time.Duration, err error)
}

type Service struct {
	backend  Backend
	observer Observer
	days     int
	timeout  time.Duration
	now      func() time.Time
}

type Option func(*Service)

func WithDefaultDays(days int) Option {
	return func(s *Service) { s.days = days }
}

// WithTimeout bounds each upstream call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

func WithObserver(o Observer) Option {
	return func(s *Service) { s.observer = o }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(b Backend, opts ...Option) *Service {
	s := &Service{
		backend: b,
		days:    DefaultDays,
		timeout: 30 * time.Second,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Range resolves the caller's bounds against the service's default window.
func (s *Service) Range(q Query) DateRange {
	return Resolve(q.Start, q.End, s.days, s.now())
}

// Run issues spec upstream exactly once and flattens the answer. view only
// labels the call for observers and traces.
func (s *Service) Run(ctx context.Context, view string, spec Spec) (Result, error) {
	if err := spec.Validate(); err != nil {
		return Result{}, err
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	table, err := s.backend.RunReport(ctx, spec)
	elapsed := time.Since(start)

	if tr := TraceFrom(ctx); tr != nil {
		tr.View = view
		tr.Upstream += elapsed
		tr.Calls++
	}
	if s.observer != nil {
		s.observer.ObserveReport(view, elapsed, err)
	}
	if err != nil {
		return Result{}, &UpstreamError{View: view, Err: err}
	}
	return Result{Meta: metaOf(table), Rows: Flatten(table)}, nil
}
