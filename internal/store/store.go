package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"quorum/internal/logger"
	"quorum/internal/signal"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Recorder persists scoring outcomes. It is strictly write-only and
// fire-and-forget: a storage failure is logged and never reaches the caller.
type Recorder struct {
	db *gorm.DB
}

func NewRecorder(path string) (*Recorder, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("store path cannot be empty")
	}
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&ResultRecord{}); err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite + WAL: a single writer keeps lock contention out of the
	// scoring path.
	sqlDB.SetMaxOpenConns(1)
	return &Recorder{db: db}, nil
}

// RecordResult writes one result row. The verdict may be nil when the caller
// skipped validation.
func (r *Recorder) RecordResult(result signal.CompositeResult, v *signal.Verdict) {
	if r == nil || r.db == nil {
		return
	}
	readings, err := json.Marshal(result.Readings)
	if err != nil {
		logger.Warnf("record %s: marshal readings: %v", result.Subject, err)
		return
	}
	rec := ResultRecord{
		Subject:      result.Subject,
		Score:        result.Score,
		DataQuality:  result.DataQuality,
		Insufficient: result.Insufficient,
		Tier:         string(signal.TierFor(result.Score)),
		Readings:     readings,
		ScoredAt:     result.Timestamp,
	}
	if v != nil {
		rec.Verdict = string(v.Action)
		rec.DecisionPath = string(v.Path)
		if rationale, err := json.Marshal(v.Rationale); err == nil {
			rec.Rationale = rationale
		}
	}
	if err := r.db.Create(&rec).Error; err != nil {
		logger.Warnf("record %s: insert failed: %v", result.Subject, err)
	}
}

func (r *Recorder) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
