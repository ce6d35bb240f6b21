package orchestrator

import (
	"context"
	"sync"

	"soundcrate/internal/contracts"
	"soundcrate/internal/domain/consts"
)

// statusSink forwards fetcher progress into the job record, keeping
// progress monotonic within a phase. A fetch retried through a new
// search tier restarts its own percentage from zero; those regressions
// are swallowed rather than shown to the user.
type statusSink struct {
	o     *Orchestrator
	ctx   context.Context
	jobID string

	mu      sync.Mutex
	status  consts.JobStatus
	lastPct float64
}

func (o *Orchestrator) newStatusSink(ctx context.Context, jobID string) *statusSink {
	return &statusSink{o: o, ctx: ctx, jobID: jobID}
}

var _ contracts.ProgressSink = (*statusSink)(nil)

func (s *statusSink) OnProgress(status consts.JobStatus, pct float64, msg string) {
	s.mu.Lock()
	if status == s.status && pct < s.lastPct {
		s.mu.Unlock()
		return
	}
	s.status = status
	s.lastPct = pct
	s.mu.Unlock()

	s.o.updateStatus(s.ctx, s.jobID, status, pct, msg)
}
