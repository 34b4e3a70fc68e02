package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"quorum/internal/signal"

	"github.com/tidwall/gjson"
)

// HTTPJSONSource fetches a JSON document and extracts one numeric field.
// The endpoint may contain a {subject} placeholder; the value at ValuePath
// is mapped linearly from [Min,Max] onto [0,100].
type HTTPJSONSource struct {
	SourceID  string
	Endpoint  string
	ValuePath string
	Min       float64
	Max       float64
	Client    *http.Client
}

func NewHTTPJSONSource(id, endpoint, valuePath string, min, max float64) *HTTPJSONSource {
	return &HTTPJSONSource{
		SourceID:  id,
		Endpoint:  endpoint,
		ValuePath: valuePath,
		Min:       min,
		Max:       max,
		Client:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *HTTPJSONSource) ID() string { return s.SourceID }

func (s *HTTPJSONSource) Fetch(ctx context.Context, subject string) (float64, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return 0, signal.NewSourceError(s.SourceID, signal.KindInvalidSubject, signal.ErrInvalidSubject)
	}
	url := strings.ReplaceAll(s.Endpoint, "{subject}", subject)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
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
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return 0, signal.NewSourceError(s.SourceID, signal.KindInvalidSubject, signal.ErrInvalidSubject)
	case resp.StatusCode/100 != 2:
		return 0, signal.NewSourceError(s.SourceID, signal.KindUnavailable, fmt.Errorf("status=%d", resp.StatusCode))
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, signal.NewSourceError(s.SourceID, signal.KindUnavailable, err)
	}
	raw := gjson.GetBytes(body, s.ValuePath)
	if !raw.Exists() {
		return 0, signal.NewSourceError(s.SourceID, signal.KindUnavailable, fmt.Errorf("path %q missing in response", s.ValuePath))
	}
	return s.normalize(raw.Float()), nil
}

func (s *HTTPJSONSource) normalize(v float64) float64 {
	if s.Max <= s.Min {
		// No bounds configured: the upstream already speaks 0..100.
		return clampScore(v)
	}
	return clampScore((v - s.Min) / (s.Max - s.Min) * 100)
}
