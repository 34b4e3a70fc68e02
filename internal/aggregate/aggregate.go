package aggregate

import (
	"context"
	"time"

	"quorum/internal/logger"
	"quorum/internal/signal"
	"quorum/internal/source"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultTimeoutPerSource = 8 * time.Second
	DefaultMinDataQuality   = 0.5
)

// WeightedSource pairs a source with its profile weight and criticality.
type WeightedSource struct {
	Source      source.Source
	Weight      float64
	Criticality signal.Criticality
}

// Aggregator fans out one bounded fetch per source and combines the readings
// into a CompositeResult. It is stateless; a single instance may be shared by
// any number of concurrent callers.
type Aggregator struct {
	TimeoutPerSource time.Duration
	MinDataQuality   float64
}

func New(timeoutPerSource time.Duration, minDataQuality float64) *Aggregator {
	if timeoutPerSource <= 0 {
		timeoutPerSource = DefaultTimeoutPerSource
	}
	if minDataQuality <= 0 {
		minDataQuality = DefaultMinDataQuality
	}
	return &Aggregator{TimeoutPerSource: timeoutPerSource, MinDataQuality: minDataQuality}
}

// Aggregate fetches all sources concurrently and composes the result. A slow
// or failed source never blocks the others and never surfaces as an error:
// it becomes a failed Reading. Aggregate itself always returns a result.
func (a *Aggregator) Aggregate(ctx context.Context, subject string, sources []WeightedSource) signal.CompositeResult {
	if ctx == nil {
		ctx = context.Background()
	}
	readings := make([]signal.Reading, len(sources))
	eg, egCtx := errgroup.WithContext(ctx)
	for i, ws := range sources {
		i, ws := i, ws
		eg.Go(func() error {
			readings[i] = a.fetchOne(egCtx, subject, ws)
			return nil
		})
	}
	// Workers never return errors; Wait only orders the writes above.
	_ = eg.Wait()
	return Compose(subject, readings, weightsOf(sources), a.MinDataQuality, time.Now().UTC())
}

func (a *Aggregator) fetchOne(ctx context.Context, subject string, ws WeightedSource) signal.Reading {
	id := ws.Source.ID()
	fetchCtx, cancel := context.WithTimeout(ctx, a.TimeoutPerSource)
	defer cancel()
	value, err := ws.Source.Fetch(fetchCtx, subject)
	if err != nil {
		kind := signal.KindOf(err)
		logger.Debugf("source %s failed for %s: %s (%v)", id, subject, kind, err)
		return signal.FailedReading(id, ws.Criticality, string(kind))
	}
	return signal.Reading{
		SourceID:    id,
		Value:       &value,
		Criticality: ws.Criticality,
		Timestamp:   time.Now().UTC(),
	}
}

// Compose is the pure aggregation step: weighted sum over non-null readings,
// no weight renormalization for missing sources, data quality counted over
// critical sources only. Deterministic for fixed inputs.
func Compose(subject string, readings []signal.Reading, weights []float64, minDataQuality float64, now time.Time) signal.CompositeResult {
	var sum float64
	totalCritical, okCritical := 0, 0
	for i, r := range readings {
		if r.Criticality == signal.Critical {
			totalCritical++
			if r.Ok() {
				okCritical++
			}
		}
		if r.Ok() && i < len(weights) {
			sum += weights[i] * *r.Value
		}
	}
	quality := 0.0
	if totalCritical > 0 {
		quality = float64(okCritical) / float64(totalCritical)
	}
	result := signal.CompositeResult{
		Subject:     subject,
		Score:       signal.RoundScore(sum),
		DataQuality: quality,
		Readings:    readings,
		Timestamp:   now,
	}
	if okCritical == 0 {
		// Nothing trustworthy to extrapolate from: stay neutral.
		result.Score = 50
		result.Insufficient = true
		return result
	}
	if quality < minDataQuality {
		result.Insufficient = true
	}
	return result
}

func weightsOf(sources []WeightedSource) []float64 {
	out := make([]float64, len(sources))
	for i, ws := range sources {
		out[i] = ws.Weight
	}
	return out
}
