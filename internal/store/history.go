package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// HistoryEntry is one past scoring outcome, read back for trend inspection.
type HistoryEntry struct {
	Subject      string    `json:"subject"`
	Score        float64   `json:"score"`
	DataQuality  float64   `json:"data_quality"`
	Insufficient bool      `json:"insufficient"`
	Tier         string    `json:"tier"`
	Verdict      string    `json:"verdict,omitempty"`
	DecisionPath string    `json:"decision_path,omitempty"`
	ScoredAt     time.Time `json:"scored_at"`
}

// History is the read side of the result log. It opens its own connection so
// slow queries never contend with the recorder's single writer.
type History struct {
	db *sql.DB
}

func NewHistory(path string) (*History, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("store path cannot be empty")
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	return &History{db: db}, nil
}

// RecentBySubject returns the newest entries for one subject, newest first.
func (h *History) RecentBySubject(ctx context.Context, subject string, limit int) ([]HistoryEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	rows, err := h.db.QueryContext(ctx, `
		SELECT subject, score, data_quality, insufficient, tier, verdict, decision_path, scored_at
		FROM result_records
		WHERE subject = ?
		ORDER BY id DESC
		LIMIT ?`, subject, limit)
	if err != nil {
		return nil, fmt.Errorf("history query failed: %w", err)
	}
	defer rows.Close()

	var out []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		var scoredAt string
		if err := rows.Scan(&e.Subject, &e.Score, &e.DataQuality, &e.Insufficient,
			&e.Tier, &e.Verdict, &e.DecisionPath, &scoredAt); err != nil {
			return nil, err
		}
		e.ScoredAt = parseStoredTime(scoredAt)
		out = append(out, e)
	}
	return out, rows.Err()
}

// parseStoredTime decodes the text datetime the recorder writes. The driver
// hands timestamps back as TEXT, not time.Time.
func parseStoredTime(s string) time.Time {
	for _, layout := range []string{
		time.RFC3339Nano,
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02 15:04:05",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func (h *History) Close() error {
	if h == nil || h.db == nil {
		return nil
	}
	return h.db.Close()
}
