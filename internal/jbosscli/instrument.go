package jbosscli

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/jbmon/internal/metrics"
)

type instrumented struct {
	next    Runner
	metrics *metrics.Metrics
}

// Instrument wraps next so every invocation is counted and timed.
func Instrument(next Runner, m *metrics.Metrics) Runner {
	if m == nil {
		return next
	}
	return &instrumented{next: next, metrics: m}
}

func (i *instrumented) Run(ctx context.Context, req Request) Result {
	start := time.Now()
	res := i.next.Run(ctx, req)
	i.metrics.ObserveCommand(KindOf(req.Command), outcomeLabel(res), time.Since(start))
	return res
}
