package circuit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBreakerOpensAtThreshold(t *testing.T) {
	b := NewBreaker("test", 3, time.Minute)
	assert.Equal(t, StateClosed, b.State())

	b.RecordFailure()
	b.RecordFailure()
	assert.True(t, b.Allow())

	b.RecordFailure()
	assert.Equal(t, StateOpen, b.State())
	assert.False(t, b.Allow())
}

func TestBreakerSuccessResetsFailureCount(t *testing.T) {
	b := NewBreaker("test", 2, time.Minute)
	b.RecordFailure()
	b.RecordSuccess()
	b.RecordFailure()
	assert.Equal(t, StateClosed, b.State(), "non-consecutive failures never open")
}

func TestBreakerHalfOpenProbe(t *testing.T) {
	b := NewBreaker("test", 1, 30*time.Millisecond)
	b.RecordFailure()
	assert.False(t, b.Allow())

	time.Sleep(50 * time.Millisecond)
	assert.True(t, b.Allow(), "cooldown elapsed, one probe allowed")
	assert.Equal(t, StateHalfOpen, b.State())

	b.RecordFailure()
	assert.Equal(t, StateOpen, b.State(), "failed probe reopens")

	time.Sleep(50 * time.Millisecond)
	assert.True(t, b.Allow())
	b.RecordSuccess()
	assert.Equal(t, StateClosed, b.State(), "successful probe closes")
}
