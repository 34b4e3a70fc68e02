package rank

import (
	"quorum/internal/signal"
)

// confidenceTable maps agreement count onto confidence percent. Four or more
// agreeing scanners cap out at 95: unanimity is never certainty.
var confidenceTable = [...]int{50, 60, 75, 85, 95}

// CrossValidate combines independent scanner opinions into one agreement
// summary. It is stateless and recomputed on demand.
func CrossValidate(subject string, outputs []signal.ScannerOutput) signal.CrossValidation {
	cv := signal.CrossValidation{Subject: subject, Action: "NEUTRAL", Confidence: confidenceTable[0]}

	var buys, sells []string
	for _, out := range outputs {
		switch out.Direction {
		case signal.DirectionBuy:
			buys = append(buys, out.ScannerID)
		case signal.DirectionSell:
			sells = append(sells, out.ScannerID)
		}
	}
	if len(buys) == len(sells) {
		// Includes the no-opinion case and a hard BUY/SELL tie.
		return cv
	}

	var agreeing, disagreeing []string
	var dir string
	if len(buys) > len(sells) {
		dir, agreeing, disagreeing = "BUY", buys, sells
	} else {
		dir, agreeing, disagreeing = "SELL", sells, buys
	}
	n := len(agreeing)
	idx := n
	if idx >= len(confidenceTable) {
		idx = len(confidenceTable) - 1
	}
	cv.Confidence = confidenceTable[idx]
	cv.Agreeing = agreeing
	cv.Disagreeing = disagreeing
	switch {
	case n >= 3:
		cv.Action = "STRONG_" + dir
	case n == 2:
		cv.Action = dir
	default:
		cv.Action = "WATCH_" + dir
	}
	return cv
}
