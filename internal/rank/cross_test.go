package rank

import (
	"testing"

	"quorum/internal/signal"

	"github.com/stretchr/testify/assert"
)

func opinions(dirs ...signal.Direction) []signal.ScannerOutput {
	out := make([]signal.ScannerOutput, len(dirs))
	for i, d := range dirs {
		out[i] = signal.ScannerOutput{ScannerID: string(rune('a' + i)), Direction: d}
	}
	return out
}

func TestCrossValidateAgreement(t *testing.T) {
	buy := signal.DirectionBuy
	sell := signal.DirectionSell
	neutral := signal.DirectionNeutral

	cases := []struct {
		name       string
		outputs    []signal.ScannerOutput
		action     string
		confidence int
	}{
		{"no opinions", nil, "NEUTRAL", 50},
		{"all neutral", opinions(neutral, neutral), "NEUTRAL", 50},
		{"hard tie", opinions(buy, sell), "NEUTRAL", 50},
		{"single buy", opinions(buy), "WATCH_BUY", 60},
		{"single buy among neutrals", opinions(buy, neutral, neutral), "WATCH_BUY", 60},
		{"two buys", opinions(buy, buy), "BUY", 75},
		{"three buys", opinions(buy, buy, buy), "STRONG_BUY", 85},
		{"four buys", opinions(buy, buy, buy, buy), "STRONG_BUY", 95},
		{"six buys cap out", opinions(buy, buy, buy, buy, buy, buy), "STRONG_BUY", 95},
		{"sell majority", opinions(sell, sell, sell, buy), "STRONG_SELL", 85},
		{"two sells one buy", opinions(sell, sell, buy), "SELL", 75},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cv := CrossValidate("BTC", tc.outputs)
			assert.Equal(t, "BTC", cv.Subject)
			assert.Equal(t, tc.action, cv.Action)
			assert.Equal(t, tc.confidence, cv.Confidence)
		})
	}
}

func TestCrossValidateScannerLists(t *testing.T) {
	outputs := []signal.ScannerOutput{
		{ScannerID: "alpha", Direction: signal.DirectionBuy},
		{ScannerID: "beta", Direction: signal.DirectionBuy},
		{ScannerID: "gamma", Direction: signal.DirectionSell},
		{ScannerID: "delta", Direction: signal.DirectionNeutral},
	}
	cv := CrossValidate("ETH", outputs)
	assert.Equal(t, []string{"alpha", "beta"}, cv.Agreeing)
	assert.Equal(t, []string{"gamma"}, cv.Disagreeing)
	assert.Equal(t, "BUY", cv.Action)
}
