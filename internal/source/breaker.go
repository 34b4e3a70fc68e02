package source

import (
	"context"
	"errors"
	"time"

	"quorum/internal/pkg/circuit"
	"quorum/internal/signal"
)

// WithBreaker wraps a source so repeated failures stop hitting the upstream.
// While the breaker is open, Fetch fails fast as unavailable; invalid-subject
// errors do not count against the breaker since the upstream is healthy.
func WithBreaker(s Source, threshold int, cooldown time.Duration) Source {
	return &breakerSource{
		inner:   s,
		breaker: circuit.NewBreaker(s.ID(), threshold, cooldown),
	}
}

type breakerSource struct {
	inner   Source
	breaker *circuit.Breaker
}

func (b *breakerSource) ID() string { return b.inner.ID() }

func (b *breakerSource) Fetch(ctx context.Context, subject string) (float64, error) {
	if !b.breaker.Allow() {
		return 0, signal.NewSourceError(b.inner.ID(), signal.KindUnavailable, errors.New("circuit open"))
	}
	v, err := b.inner.Fetch(ctx, subject)
	if err != nil {
		if signal.KindOf(err) != signal.KindInvalidSubject {
			b.breaker.RecordFailure()
		}
		return 0, err
	}
	b.breaker.RecordSuccess()
	return v, nil
}
