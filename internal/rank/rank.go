package rank

import (
	"sort"

	"quorum/internal/signal"
)

// Rank orders composite results by descending score. The sort is stable, so
// equal scores keep their input order. minScore filters before limit applies;
// limit <= 0 means unlimited.
func Rank(results []signal.CompositeResult, minScore float64, limit int) []signal.RankedEntry {
	filtered := make([]signal.RankedEntry, 0, len(results))
	for _, r := range results {
		if r.Score < minScore {
			continue
		}
		filtered = append(filtered, signal.RankedEntry{
			Subject: r.Subject,
			Score:   r.Score,
			Tier:    signal.TierFor(r.Score),
		})
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Score > filtered[j].Score
	})
	if limit > 0 && len(filtered) > limit {
		filtered = filtered[:limit]
	}
	return filtered
}
