package source

import (
	"context"
	"time"

	"quorum/internal/signal"
)

// StaticSource returns a fixed value after an optional delay. Used for dry
// runs and as a stand-in while wiring new profiles.
type StaticSource struct {
	SourceID string
	Value    float64
	Delay    time.Duration
	Err      error
}

func (s *StaticSource) ID() string { return s.SourceID }

func (s *StaticSource) Fetch(ctx context.Context, subject string) (float64, error) {
	if s.Delay > 0 {
		timer := time.NewTimer(s.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return 0, signal.NewSourceError(s.SourceID, signal.KindTimeout, ctx.Err())
		case <-timer.C:
		}
	}
	if s.Err != nil {
		return 0, s.Err
	}
	return clampScore(s.Value), nil
}
