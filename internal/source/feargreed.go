package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"quorum/internal/signal"

	"github.com/tidwall/gjson"
)

const (
	fearGreedEndpoint = "https://api.alternative.me/fng/?limit=1"
	fearGreedTTL      = 30 * time.Minute
)

// FearGreedSource serves the market-wide Fear & Greed index. The index is
// already published on a 0..100 scale and refreshes upstream only a few
// times a day, so responses are cached and shared across subjects.
type FearGreedSource struct {
	SourceID string
	Endpoint string
	Client   *http.Client

	mu        sync.Mutex
	cached    float64
	fetchedAt time.Time
}

func NewFearGreedSource(id string) *FearGreedSource {
	return &FearGreedSource{
		SourceID: id,
		Endpoint: fearGreedEndpoint,
		Client:   &http.Client{Timeout: 5 * time.Second},
	}
}

func (s *FearGreedSource) ID() string { return s.SourceID }

func (s *FearGreedSource) Fetch(ctx context.Context, subject string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.fetchedAt.IsZero() && time.Since(s.fetchedAt) < fearGreedTTL {
		return s.cached, nil
	}
	v, err := s.refresh(ctx)
	if err != nil {
		// Serve a stale value over failing the whole aggregation.
		if !s.fetchedAt.IsZero() {
			return s.cached, nil
		}
		return 0, err
	}
	s.cached = v
	s.fetchedAt = time.Now()
	return v, nil
}

func (s *FearGreedSource) refresh(ctx context.Context) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.Endpoint, nil)
	if err != nil {
		return 0, signal.NewSourceError(s.SourceID, signal.KindUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := s.Client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			return 0, signal.NewSourceError(s.SourceID, signal.KindTimeout, err)
		}
		return 0, signal.NewSourceError(s.SourceID, signal.KindUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return 0, signal.NewSourceError(s.SourceID, signal.KindUnavailable, fmt.Errorf("status=%d", resp.StatusCode))
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<18))
	if err != nil {
		return 0, signal.NewSourceError(s.SourceID, signal.KindUnavailable, err)
	}
	raw := gjson.GetBytes(body, "data.0.value")
	if !raw.Exists() {
		return 0, signal.NewSourceError(s.SourceID, signal.KindUnavailable, fmt.Errorf("malformed fng response"))
	}
	return clampScore(raw.Float()), nil
}
