package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"quorum/internal/signal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderRoundTrip(t *testing.T) {
	r, err := NewRecorder(filepath.Join(t.TempDir(), "data", "test.db"))
	require.NoError(t, err)
	defer r.Close()

	v := 82.5
	result := signal.CompositeResult{
		Subject:     "BTC",
		Score:       82.5,
		DataQuality: 1.0,
		Readings: []signal.Reading{
			{SourceID: "momentum", Value: &v, Criticality: signal.Critical},
		},
		Timestamp: time.Now().UTC(),
	}
	verdict := signal.Verdict{
		Action:    signal.VerdictDownsize,
		Path:      signal.PathAdvisory,
		Rationale: []string{"funding crowded"},
		Result:    result,
	}
	r.RecordResult(result, &verdict)
	r.RecordResult(signal.CompositeResult{Subject: "ETH", Score: 50, Insufficient: true}, nil)

	var rows []ResultRecord
	require.NoError(t, r.db.Order("id").Find(&rows).Error)
	require.Len(t, rows, 2)

	assert.Equal(t, "BTC", rows[0].Subject)
	assert.Equal(t, 82.5, rows[0].Score)
	assert.Equal(t, "TIER_2", rows[0].Tier)
	assert.Equal(t, "DOWNSIZE", rows[0].Verdict)
	assert.Equal(t, "advisory", rows[0].DecisionPath)
	assert.Contains(t, string(rows[0].Readings), "momentum")

	assert.Equal(t, "ETH", rows[1].Subject)
	assert.True(t, rows[1].Insufficient)
	assert.Empty(t, rows[1].Verdict)
}

func TestNewRecorderRejectsEmptyPath(t *testing.T) {
	_, err := NewRecorder("  ")
	assert.Error(t, err)
}

func TestHistoryReadsBackRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	r, err := NewRecorder(path)
	require.NoError(t, err)
	defer r.Close()

	for i, score := range []float64{40, 60, 80} {
		v := signal.Verdict{Action: signal.VerdictWait, Path: signal.PathFallback}
		r.RecordResult(signal.CompositeResult{
			Subject:     "BTC",
			Score:       score,
			DataQuality: 1.0,
			Timestamp:   time.Now().UTC().Add(time.Duration(i) * time.Minute),
		}, &v)
	}
	r.RecordResult(signal.CompositeResult{Subject: "ETH", Score: 55}, nil)

	h, err := NewHistory(path)
	require.NoError(t, err)
	defer h.Close()

	entries, err := h.RecentBySubject(context.Background(), "BTC", 2)
	require.NoError(t, err)
	require.Len(t, entries, 2, "limit applies")
	assert.Equal(t, 80.0, entries[0].Score, "newest first")
	assert.Equal(t, 60.0, entries[1].Score)
	assert.Equal(t, "WAIT", entries[0].Verdict)

	all, err := h.RecentBySubject(context.Background(), "BTC", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
