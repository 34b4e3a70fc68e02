package signal

import (
	"time"

	"github.com/shopspring/decimal"
)

// Criticality marks how much a source matters for data quality accounting.
type Criticality string

const (
	Critical Criticality = "critical"
	Optional Criticality = "optional"
)

// Reading is one observation from one signal source. Value is nil when the
// fetch failed or the source returned no usable number; Reason then explains
// why. Readings are never mutated after creation.
type Reading struct {
	SourceID    string      `json:"source_id"`
	Value       *float64    `json:"value"`
	Criticality Criticality `json:"criticality"`
	Timestamp   time.Time   `json:"timestamp"`
	Reason      string      `json:"reason,omitempty"`
}

// Ok reports whether the reading carries a usable value.
func (r Reading) Ok() bool {
	return r.Value != nil
}

// FailedReading builds the placeholder stored when a source fetch fails.
func FailedReading(sourceID string, crit Criticality, reason string) Reading {
	return Reading{
		SourceID:    sourceID,
		Criticality: crit,
		Timestamp:   time.Now().UTC(),
		Reason:      reason,
	}
}

// CompositeResult is the weighted aggregate over one subject's readings.
type CompositeResult struct {
	Subject      string    `json:"subject"`
	Score        float64   `json:"score"`
	DataQuality  float64   `json:"data_quality"`
	Insufficient bool      `json:"insufficient"`
	Readings     []Reading `json:"readings"`
	Timestamp    time.Time `json:"timestamp"`
}

// VerdictAction is the closed validation outcome set.
type VerdictAction string

const (
	VerdictConfirm  VerdictAction = "CONFIRM"
	VerdictDownsize VerdictAction = "DOWNSIZE"
	VerdictSkip     VerdictAction = "SKIP"
	VerdictWait     VerdictAction = "WAIT"
)

// DecisionPath records which half of the validator produced the verdict.
type DecisionPath string

const (
	PathAdvisory DecisionPath = "advisory"
	PathFallback DecisionPath = "fallback"
)

// Verdict is immutable; a new validation cycle produces a new Verdict.
type Verdict struct {
	Action    VerdictAction   `json:"action"`
	Path      DecisionPath    `json:"path"`
	Rationale []string        `json:"rationale,omitempty"`
	Result    CompositeResult `json:"result"`
	Timestamp time.Time       `json:"timestamp"`
}

// Direction is a scanner's directional opinion.
type Direction string

const (
	DirectionBuy     Direction = "BUY"
	DirectionSell    Direction = "SELL"
	DirectionNeutral Direction = "NEUTRAL"
)

// ScannerOutput is one independent scanner's opinion for a subject.
type ScannerOutput struct {
	ScannerID string    `json:"scanner_id"`
	Direction Direction `json:"direction"`
}

// CrossValidation is a stateless agreement summary, recomputed on demand.
type CrossValidation struct {
	Subject     string   `json:"subject"`
	Action      string   `json:"action"`
	Confidence  int      `json:"confidence"`
	Agreeing    []string `json:"agreeing,omitempty"`
	Disagreeing []string `json:"disagreeing,omitempty"`
}

// Tier buckets a composite score. Thresholds are fixed, never configurable.
type Tier string

const (
	Tier1 Tier = "TIER_1"
	Tier2 Tier = "TIER_2"
	Tier3 Tier = "TIER_3"
	Tier4 Tier = "TIER_4"
)

// TierFor maps a score onto its tier: >=85, >=70, >=55, else TIER_4.
func TierFor(score float64) Tier {
	switch {
	case score >= 85:
		return Tier1
	case score >= 70:
		return Tier2
	case score >= 55:
		return Tier3
	default:
		return Tier4
	}
}

// RankedEntry is one row of an ordered ranking.
type RankedEntry struct {
	Subject string  `json:"subject"`
	Score   float64 `json:"score"`
	Tier    Tier    `json:"tier"`
}

// RoundScore clamps to [0,100] and rounds to one decimal. Intermediate
// aggregation runs at full float precision; only the published score is
// rounded, via decimal to avoid binary-float drift at the boundary.
func RoundScore(v float64) float64 {
	if v < 0 {
		v = 0
	}
	if v > 100 {
		v = 100
	}
	out, _ := decimal.NewFromFloat(v).Round(1).Float64()
	return out
}
