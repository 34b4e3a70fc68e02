package scheduler

import (
	"context"
	"time"

	"quorum/internal/logger"
)

// IntervalScheduler runs a task on a fixed cadence, aligned to the interval
// boundary in UTC so repeated runs land on comparable market snapshots.
type IntervalScheduler struct {
	Interval       time.Duration
	RunImmediately bool

	ctx   context.Context
	nowFn func() time.Time
}

func NewIntervalScheduler(ctx context.Context, interval time.Duration) *IntervalScheduler {
	if ctx == nil {
		ctx = context.Background()
	}
	return &IntervalScheduler{Interval: interval, ctx: ctx, nowFn: time.Now}
}

// Start blocks, running task once per interval until ctx is done.
func (s *IntervalScheduler) Start(task func()) {
	if s == nil || task == nil {
		return
	}
	if s.Interval <= 0 {
		logger.Warnf("scheduler: invalid interval=%s, exit", s.Interval)
		return
	}
	if s.nowFn == nil {
		s.nowFn = time.Now
	}
	logger.Infof("scheduler: started interval=%s run_immediately=%v", s.Interval, s.RunImmediately)
	if s.RunImmediately {
		task()
	}
	for {
		now := s.nowFn().UTC()
		wakeAt := now.Truncate(s.Interval).Add(s.Interval)
		wait := wakeAt.Sub(now)
		logger.Debugf("scheduler: next run at %s (in %s)", wakeAt.Format(time.RFC3339), wait.Truncate(time.Second))
		timer := time.NewTimer(wait)
		select {
		case <-s.ctx.Done():
			timer.Stop()
			logger.Infof("scheduler: ctx done, exit")
			return
		case <-timer.C:
		}
		task()
	}
}
