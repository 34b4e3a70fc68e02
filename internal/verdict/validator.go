package verdict

import (
	"context"
	"fmt"
	"time"

	"quorum/internal/logger"
	"quorum/internal/signal"
	"quorum/internal/verdict/advisory"
)

const DefaultAdvisoryTimeout = 15 * time.Second

// Validator turns a CompositeResult into a Verdict. It races one advisory
// call against a hard deadline and falls back to the deterministic rule
// table on any advisory failure. Validate always returns a Verdict.
type Validator struct {
	Assessor        advisory.Assessor
	AdvisoryTimeout time.Duration
	MinDataQuality  float64
}

func NewValidator(assessor advisory.Assessor, advisoryTimeout time.Duration, minDataQuality float64) *Validator {
	if advisoryTimeout <= 0 {
		advisoryTimeout = DefaultAdvisoryTimeout
	}
	if minDataQuality <= 0 {
		minDataQuality = 0.5
	}
	return &Validator{
		Assessor:        assessor,
		AdvisoryTimeout: advisoryTimeout,
		MinDataQuality:  minDataQuality,
	}
}

// Validate makes exactly one advisory attempt; retrying is the caller's call.
// The directional flag feeds the neutral-band rule: a caller that asked for a
// directional action gets SKIP instead of WAIT when nothing stands out.
func (v *Validator) Validate(ctx context.Context, result signal.CompositeResult, directional bool) signal.Verdict {
	if ctx == nil {
		ctx = context.Background()
	}
	if v.Assessor != nil {
		if action, rationale, ok := v.tryAdvisory(ctx, result); ok {
			return signal.Verdict{
				Action:    action,
				Path:      signal.PathAdvisory,
				Rationale: rationale,
				Result:    result,
				Timestamp: time.Now().UTC(),
			}
		}
	}
	action, rationale := Fallback(result, v.MinDataQuality, directional)
	return signal.Verdict{
		Action:    action,
		Path:      signal.PathFallback,
		Rationale: rationale,
		Result:    result,
		Timestamp: time.Now().UTC(),
	}
}

type advisoryOutcome struct {
	verdict advisory.StructuredVerdict
	err     error
}

func (v *Validator) tryAdvisory(ctx context.Context, result signal.CompositeResult) (signal.VerdictAction, []string, bool) {
	callCtx, cancel := context.WithTimeout(ctx, v.AdvisoryTimeout)
	defer cancel()
	done := make(chan advisoryOutcome, 1)
	go func() {
		sv, err := v.Assessor.Assess(callCtx, result)
		done <- advisoryOutcome{verdict: sv, err: err}
	}()
	select {
	case <-callCtx.Done():
		// The call is abandoned, not interrupted twice: the goroutine drains
		// into the buffered channel whenever the HTTP layer gives up.
		logger.Warnf("advisory for %s abandoned after %s: %v", result.Subject, v.AdvisoryTimeout, signal.ErrAdvisoryTimeout)
		return "", nil, false
	case out := <-done:
		if out.err != nil {
			logger.Warnf("advisory for %s failed: %v", result.Subject, out.err)
			return "", nil, false
		}
		action, ok := mapAdvisoryVerdict(out.verdict.Verdict)
		if !ok {
			logger.Warnf("advisory for %s returned unknown verdict %q", result.Subject, out.verdict.Verdict)
			return "", nil, false
		}
		rationale := out.verdict.Reasons
		if len(rationale) == 0 {
			rationale = []string{fmt.Sprintf("advisory verdict %s (confidence %d)", action, out.verdict.Confidence)}
		}
		return action, rationale, true
	}
}

func mapAdvisoryVerdict(s string) (signal.VerdictAction, bool) {
	switch signal.VerdictAction(s) {
	case signal.VerdictConfirm, signal.VerdictDownsize, signal.VerdictSkip, signal.VerdictWait:
		return signal.VerdictAction(s), true
	default:
		return "", false
	}
}
