package batch

import (
	"context"
	"sync"
	"time"

	"quorum/internal/logger"
)

const (
	// Error-rate bands for adaptation: calm batches speed up a little,
	// noisy batches slow down a lot.
	lowErrorRate  = 0.02
	highErrorRate = 0.05
)

// AdaptiveLimiter paces work-item launches at a mutable requests-per-second
// rate. Adjustment is read-then-write, so all access goes through the lock.
type AdaptiveLimiter struct {
	mu       sync.Mutex
	rate     float64
	min      float64
	max      float64
	incStep  float64
	decStep  float64
	nextSlot time.Time
}

func NewAdaptiveLimiter(initial, min, max float64) *AdaptiveLimiter {
	if min <= 0 {
		min = 1
	}
	if max < min {
		max = min
	}
	if initial < min {
		initial = min
	}
	if initial > max {
		initial = max
	}
	return &AdaptiveLimiter{
		rate:    initial,
		min:     min,
		max:     max,
		incStep: 2,
		decStep: 5,
	}
}

// Wait blocks until the next launch slot or ctx expiry.
func (l *AdaptiveLimiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	interval := time.Duration(float64(time.Second) / l.rate)
	now := time.Now()
	if l.nextSlot.Before(now) {
		l.nextSlot = now
	}
	slot := l.nextSlot
	l.nextSlot = slot.Add(interval)
	l.mu.Unlock()

	wait := time.Until(slot)
	if wait <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Adjust updates the rate from the previous batch's error rate.
func (l *AdaptiveLimiter) Adjust(errRate float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	before := l.rate
	switch {
	case errRate < lowErrorRate:
		l.rate += l.incStep
		if l.rate > l.max {
			l.rate = l.max
		}
	case errRate > highErrorRate:
		l.rate -= l.decStep
		if l.rate < l.min {
			l.rate = l.min
		}
	}
	if l.rate != before {
		logger.Infof("rate limit adjusted %.0f -> %.0f req/s (batch error rate %.1f%%)",
			before, l.rate, errRate*100)
	}
}

// Rate returns the current launch rate.
func (l *AdaptiveLimiter) Rate() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rate
}
