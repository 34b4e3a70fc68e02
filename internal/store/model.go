package store

import (
	"time"

	"gorm.io/datatypes"
)

// ResultRecord is one persisted scoring outcome. Readings and rationale are
// stored as JSON blobs: the table is an audit trail, not a query surface.
type ResultRecord struct {
	ID           uint    `gorm:"primaryKey"`
	Subject      string  `gorm:"index;size:64"`
	Score        float64 `gorm:"index"`
	DataQuality  float64
	Insufficient bool
	Tier         string         `gorm:"size:16"`
	Verdict      string         `gorm:"size:16"`
	DecisionPath string         `gorm:"size:16"`
	Readings     datatypes.JSON `gorm:"type:json"`
	Rationale    datatypes.JSON `gorm:"type:json"`
	ScoredAt     time.Time      `gorm:"index"`
	CreatedAt    time.Time
}

func (ResultRecord) TableName() string { return "result_records" }
