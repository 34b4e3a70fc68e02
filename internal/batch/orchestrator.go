package batch

import (
	"context"
	"sync"
	"time"

	"quorum/internal/logger"
	"quorum/internal/signal"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

const (
	DefaultMaxConcurrency = 50
	DefaultBatchSize      = 50
	maxAttempts           = 3
)

// backoffSchedule holds the delay before each retry of a transient failure.
var backoffSchedule = [...]time.Duration{time.Second, 2 * time.Second, 4 * time.Second}

// WorkFunc performs the scoring work for one subject. A nil error marks the
// item succeeded; the error's kind decides whether the item is retried.
type WorkFunc func(ctx context.Context, subject string) error

// ItemStatus tracks one subject through a run.
type ItemStatus string

const (
	StatusPending  ItemStatus = "pending"
	StatusSuccess  ItemStatus = "success"
	StatusFailed   ItemStatus = "failed"
	StatusRetrying ItemStatus = "retrying"
)

// ItemResult is the terminal record for one subject.
type ItemResult struct {
	Subject   string           `json:"subject"`
	Status    ItemStatus       `json:"status"`
	Attempts  int              `json:"attempts"`
	ErrorKind signal.ErrorKind `json:"error_kind,omitempty"`
	Error     string           `json:"error,omitempty"`
}

// Summary covers every requested subject, in input order, no matter how the
// run ended.
type Summary struct {
	RunID          string         `json:"run_id"`
	Total          int            `json:"total"`
	Succeeded      int            `json:"succeeded"`
	Failed         int            `json:"failed"`
	ErrorCounts    map[string]int `json:"error_counts,omitempty"`
	FailedSubjects []string       `json:"failed_subjects,omitempty"`
	Items          []ItemResult   `json:"items"`
	StartedAt      time.Time      `json:"started_at"`
	FinishedAt     time.Time      `json:"finished_at"`
	Throughput     float64        `json:"throughput_per_sec"`
	FinalRate      float64        `json:"final_rate_limit"`
}

// Orchestrator runs scoring work across a subject universe: fixed-size
// batches run sequentially, items inside a batch run under a concurrency
// cap, transient failures retry with backoff, and a wall-clock budget stops
// a run from hanging.
type Orchestrator struct {
	MaxConcurrency int
	BatchSize      int
	Budget         time.Duration
	Limiter        *AdaptiveLimiter
}

func NewOrchestrator(maxConcurrency, batchSize int, budget time.Duration, limiter *AdaptiveLimiter) *Orchestrator {
	if maxConcurrency <= 0 {
		maxConcurrency = DefaultMaxConcurrency
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if limiter == nil {
		limiter = NewAdaptiveLimiter(10, 5, 50)
	}
	return &Orchestrator{
		MaxConcurrency: maxConcurrency,
		BatchSize:      batchSize,
		Budget:         budget,
		Limiter:        limiter,
	}
}

// Run executes work for every subject and always returns a complete summary.
func (o *Orchestrator) Run(ctx context.Context, subjects []string, work WorkFunc) Summary {
	if ctx == nil {
		ctx = context.Background()
	}
	runCtx := ctx
	var cancel context.CancelFunc
	if o.Budget > 0 {
		runCtx, cancel = context.WithTimeout(ctx, o.Budget)
		defer cancel()
	}
	started := time.Now()
	runID := uuid.NewString()
	items := make([]ItemResult, len(subjects))
	for i, s := range subjects {
		items[i] = ItemResult{Subject: s, Status: StatusPending}
	}
	logger.Infof("batch run %s: %d subjects, batch_size=%d max_concurrency=%d budget=%s",
		runID, len(subjects), o.BatchSize, o.MaxConcurrency, o.Budget)

	for lo := 0; lo < len(subjects); lo += o.BatchSize {
		hi := lo + o.BatchSize
		if hi > len(subjects) {
			hi = len(subjects)
		}
		if runCtx.Err() != nil {
			o.markBudgetExceeded(items[lo:hi])
			continue
		}
		errored := o.runBatch(runCtx, subjects[lo:hi], items[lo:hi], work)
		o.Limiter.Adjust(float64(errored) / float64(hi-lo))
	}
	return o.summarize(runID, items, started)
}

// runBatch runs one batch concurrently and returns how many items failed.
func (o *Orchestrator) runBatch(ctx context.Context, subjects []string, items []ItemResult, work WorkFunc) int {
	sem := semaphore.NewWeighted(int64(o.MaxConcurrency))
	var wg sync.WaitGroup
	for i := range subjects {
		if err := o.Limiter.Wait(ctx); err != nil {
			break
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(item *ItemResult) {
			defer wg.Done()
			defer sem.Release(1)
			o.runItem(ctx, item, work)
		}(&items[i])
	}
	wg.Wait()

	errored := 0
	for i := range items {
		switch items[i].Status {
		case StatusPending, StatusRetrying:
			// Launch loop broke out before this item ran to completion.
			items[i].Status = StatusFailed
			items[i].ErrorKind = signal.KindBudgetExceeded
			items[i].Error = signal.ErrBudgetExceeded.Error()
			errored++
		case StatusFailed:
			errored++
		}
	}
	return errored
}

func (o *Orchestrator) runItem(ctx context.Context, item *ItemResult, work WorkFunc) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		item.Attempts = attempt
		lastErr = work(ctx, item.Subject)
		if lastErr == nil {
			item.Status = StatusSuccess
			item.ErrorKind = ""
			item.Error = ""
			return
		}
		if ctx.Err() != nil {
			// Budget ran out, not the upstream: report it as such.
			item.Status = StatusFailed
			item.ErrorKind = signal.KindBudgetExceeded
			item.Error = signal.ErrBudgetExceeded.Error()
			return
		}
		if !signal.IsTransient(lastErr) || attempt == maxAttempts {
			break
		}
		item.Status = StatusRetrying
		logger.Debugf("subject %s attempt %d failed (%s), retrying in %s",
			item.Subject, attempt, signal.KindOf(lastErr), backoffSchedule[attempt-1])
		if !sleepCtx(ctx, backoffSchedule[attempt-1]) {
			item.Status = StatusFailed
			item.ErrorKind = signal.KindBudgetExceeded
			item.Error = signal.ErrBudgetExceeded.Error()
			return
		}
	}
	item.Status = StatusFailed
	item.ErrorKind = signal.KindOf(lastErr)
	item.Error = lastErr.Error()
}

func (o *Orchestrator) markBudgetExceeded(items []ItemResult) {
	for i := range items {
		if items[i].Status == StatusPending {
			items[i].Status = StatusFailed
			items[i].ErrorKind = signal.KindBudgetExceeded
			items[i].Error = signal.ErrBudgetExceeded.Error()
		}
	}
}

func (o *Orchestrator) summarize(runID string, items []ItemResult, started time.Time) Summary {
	finished := time.Now()
	s := Summary{
		RunID:       runID,
		Total:       len(items),
		Items:       items,
		ErrorCounts: make(map[string]int),
		StartedAt:   started.UTC(),
		FinishedAt:  finished.UTC(),
		FinalRate:   o.Limiter.Rate(),
	}
	for _, item := range items {
		if item.Status == StatusSuccess {
			s.Succeeded++
			continue
		}
		s.Failed++
		s.FailedSubjects = append(s.FailedSubjects, item.Subject)
		if item.ErrorKind != "" {
			s.ErrorCounts[string(item.ErrorKind)]++
		}
	}
	if elapsed := finished.Sub(started).Seconds(); elapsed > 0 {
		s.Throughput = float64(s.Total) / elapsed
	}
	logger.Infof("batch run %s finished: %d/%d succeeded in %s (%.1f/s)",
		runID, s.Succeeded, s.Total, finished.Sub(started).Truncate(time.Millisecond), s.Throughput)
	return s
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
