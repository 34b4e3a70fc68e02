package verdict

import (
	"fmt"

	"quorum/internal/signal"
)

// Fallback applies the deterministic rule table, first match wins. It never
// fails and never consults anything beyond the result and the directional
// flag, so its output is reproducible for a given input.
func Fallback(result signal.CompositeResult, minDataQuality float64, directional bool) (signal.VerdictAction, []string) {
	score, quality := result.Score, result.DataQuality
	switch {
	case result.Insufficient:
		return signal.VerdictWait, []string{"insufficient data, holding"}
	case quality < minDataQuality:
		return signal.VerdictWait, []string{fmt.Sprintf("data quality %.2f below minimum %.2f", quality, minDataQuality)}
	case (score >= 80 || score <= 20) && quality >= 0.8:
		return signal.VerdictConfirm, []string{fmt.Sprintf("extreme score %.1f with data quality %.2f", score, quality)}
	case (score >= 65 && score < 80) || (score > 20 && score <= 35):
		return signal.VerdictDownsize, []string{fmt.Sprintf("moderate conviction at score %.1f", score)}
	case directional:
		return signal.VerdictSkip, []string{fmt.Sprintf("score %.1f in the neutral band", score)}
	default:
		return signal.VerdictWait, []string{fmt.Sprintf("score %.1f in the neutral band, no action requested", score)}
	}
}
