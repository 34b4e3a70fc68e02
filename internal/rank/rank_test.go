package rank

import (
	"testing"

	"quorum/internal/signal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func composite(subject string, score float64) signal.CompositeResult {
	return signal.CompositeResult{Subject: subject, Score: score}
}

func TestRankStableOnEqualScores(t *testing.T) {
	results := []signal.CompositeResult{
		composite("A", 70.0),
		composite("B", 70.0),
		composite("C", 85.0),
	}
	ranked := Rank(results, 0, 0)
	require.Len(t, ranked, 3)
	assert.Equal(t, "C", ranked[0].Subject)
	assert.Equal(t, "A", ranked[1].Subject)
	assert.Equal(t, "B", ranked[2].Subject)
}

func TestRankFilterAndLimit(t *testing.T) {
	results := []signal.CompositeResult{
		composite("A", 40),
		composite("B", 90),
		composite("C", 60),
		composite("D", 75),
	}
	ranked := Rank(results, 55, 2)
	require.Len(t, ranked, 2)
	assert.Equal(t, "B", ranked[0].Subject)
	assert.Equal(t, "D", ranked[1].Subject)
}

func TestRankAssignsTiers(t *testing.T) {
	ranked := Rank([]signal.CompositeResult{
		composite("A", 85.0),
		composite("B", 84.9),
		composite("C", 70.0),
		composite("D", 55.0),
		composite("E", 54.9),
	}, 0, 0)
	require.Len(t, ranked, 5)
	assert.Equal(t, signal.Tier1, ranked[0].Tier)
	assert.Equal(t, signal.Tier2, ranked[1].Tier)
	assert.Equal(t, signal.Tier2, ranked[2].Tier)
	assert.Equal(t, signal.Tier3, ranked[3].Tier)
	assert.Equal(t, signal.Tier4, ranked[4].Tier)
}

func TestRankEmptyInput(t *testing.T) {
	assert.Empty(t, Rank(nil, 0, 0))
}
