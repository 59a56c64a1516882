package report

import (
	"context"
	"time"
)

// Trace collects upstream timing for a single inbound request.
type Trace struct {
	View     string
	Upstream time.Duration
	Calls    int
}

type traceKey struct{}

func WithTrace(ctx context.Context) (context.Context, *Trace) {
	tr := &Trace{}
	return context.WithValue(ctx, traceKey{}, tr), tr
}

func TraceFrom(ctx context.Context) *Trace {
	tr, _ := ctx.Value(traceKey{}).(*Trace)
	return tr
}
