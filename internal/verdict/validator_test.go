package verdict

import (
	"context"
	"errors"
	"testing"
	"time"

	"quorum/internal/signal"
	"quorum/internal/verdict/advisory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockAssessor struct {
	mock.Mock
	delay time.Duration
}

func (m *MockAssessor) Assess(ctx context.Context, result signal.CompositeResult) (advisory.StructuredVerdict, error) {
	if m.delay > 0 {
		select {
		case <-ctx.Done():
			return advisory.StructuredVerdict{}, ctx.Err()
		case <-time.After(m.delay):
		}
	}
	args := m.Called(ctx, result)
	return args.Get(0).(advisory.StructuredVerdict), args.Error(1)
}

func TestValidateAdvisoryPath(t *testing.T) {
	assessor := &MockAssessor{}
	assessor.On("Assess", mock.Anything, mock.Anything).Return(advisory.StructuredVerdict{
		Verdict:    "DOWNSIZE",
		Confidence: 70,
		Reasons:    []string{"funding crowded"},
	}, nil)
	v := NewValidator(assessor, time.Second, 0.5)

	verdict := v.Validate(context.Background(), result(85, 0.9, false), false)
	assert.Equal(t, signal.VerdictDownsize, verdict.Action)
	assert.Equal(t, signal.PathAdvisory, verdict.Path)
	assert.Equal(t, []string{"funding crowded"}, verdict.Rationale)
	assessor.AssertExpectations(t)
}

func TestValidateFallsBackOnAdvisoryError(t *testing.T) {
	assessor := &MockAssessor{}
	assessor.On("Assess", mock.Anything, mock.Anything).
		Return(advisory.StructuredVerdict{}, errors.New("upstream 500"))
	v := NewValidator(assessor, time.Second, 0.5)

	verdict := v.Validate(context.Background(), result(85, 0.9, false), false)
	assert.Equal(t, signal.PathFallback, verdict.Path)
	assert.Equal(t, signal.VerdictConfirm, verdict.Action)
}

func TestValidateFallsBackOnAdvisoryTimeout(t *testing.T) {
	assessor := &MockAssessor{delay: 2 * time.Second}
	assessor.On("Assess", mock.Anything, mock.Anything).
		Return(advisory.StructuredVerdict{Verdict: "CONFIRM"}, nil).Maybe()
	v := NewValidator(assessor, 100*time.Millisecond, 0.5)

	start := time.Now()
	verdict := v.Validate(context.Background(), result(85, 0.9, false), false)
	assert.Less(t, time.Since(start), time.Second, "validate must honor the advisory deadline")
	assert.Equal(t, signal.PathFallback, verdict.Path)
	assert.Equal(t, signal.VerdictConfirm, verdict.Action)
}

func TestValidateFallsBackOnUnknownVerdict(t *testing.T) {
	assessor := &MockAssessor{}
	assessor.On("Assess", mock.Anything, mock.Anything).
		Return(advisory.StructuredVerdict{Verdict: "MAYBE"}, nil)
	v := NewValidator(assessor, time.Second, 0.5)

	verdict := v.Validate(context.Background(), result(50, 1.0, false), true)
	assert.Equal(t, signal.PathFallback, verdict.Path)
	assert.Equal(t, signal.VerdictSkip, verdict.Action)
}

func TestValidateWithoutAssessor(t *testing.T) {
	v := NewValidator(nil, time.Second, 0.5)
	verdict := v.Validate(context.Background(), result(92, 1.0, true), false)
	assert.Equal(t, signal.PathFallback, verdict.Path)
	assert.Equal(t, signal.VerdictWait, verdict.Action)
	assert.False(t, verdict.Timestamp.IsZero())
}
