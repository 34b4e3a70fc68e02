package verdict

import (
	"testing"

	"quorum/internal/signal"

	"github.com/stretchr/testify/assert"
)

func result(score, quality float64, insufficient bool) signal.CompositeResult {
	return signal.CompositeResult{
		Subject:      "BTC",
		Score:        score,
		DataQuality:  quality,
		Insufficient: insufficient,
	}
}

func TestFallbackRuleTable(t *testing.T) {
	cases := []struct {
		name        string
		result      signal.CompositeResult
		directional bool
		want        signal.VerdictAction
	}{
		{"insufficient always waits", result(92, 1.0, true), true, signal.VerdictWait},
		{"low quality waits", result(75, 0.4, false), false, signal.VerdictWait},
		{"extreme high confirms", result(85, 0.9, false), false, signal.VerdictConfirm},
		{"extreme low confirms", result(15, 1.0, false), false, signal.VerdictConfirm},
		{"extreme without quality falls through", result(85, 0.7, false), false, signal.VerdictWait},
		{"upper moderate downsizes", result(72, 0.9, false), false, signal.VerdictDownsize},
		{"lower moderate downsizes", result(30, 0.9, false), false, signal.VerdictDownsize},
		{"neutral directional skips", result(50, 1.0, false), true, signal.VerdictSkip},
		{"neutral passive waits", result(50, 1.0, false), false, signal.VerdictWait},
		{"boundary 80 with quality confirms", result(80, 0.8, false), false, signal.VerdictConfirm},
		{"boundary 79.9 downsizes", result(79.9, 0.9, false), false, signal.VerdictDownsize},
		{"boundary 20 confirms", result(20, 0.8, false), false, signal.VerdictConfirm},
		{"boundary 35 downsizes", result(35, 0.9, false), false, signal.VerdictDownsize},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			action, rationale := Fallback(tc.result, 0.5, tc.directional)
			assert.Equal(t, tc.want, action)
			assert.NotEmpty(t, rationale)
		})
	}
}

func TestFallbackDeterministic(t *testing.T) {
	in := result(67.3, 0.75, false)
	a1, r1 := Fallback(in, 0.5, false)
	a2, r2 := Fallback(in, 0.5, false)
	assert.Equal(t, a1, a2)
	assert.Equal(t, r1, r2)
}
