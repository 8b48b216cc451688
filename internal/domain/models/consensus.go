package models

import "time"

// ConsensusScore is the blended view across all advisors for one symbol.
// It is a pure function of its supporting signals and the advisor weights,
// so recomputing it over the same inputs always yields the same result.
type ConsensusScore struct {
	Symbol            string          `json:"symbol"`
	Score             float64         `json:"score"`
	Confidence        float64         `json:"confidence"`
	Classification    SignalType      `json:"classification"`
	SupportingSignals []AdvisorSignal `json:"supporting_signals"`
	BuyCount          int             `json:"buy_count"`
	SellCount         int             `json:"sell_count"`
	HoldCount         int             `json:"hold_count"`
	ComputedAt        time.Time       `json:"computed_at"`
}

// Strength is the absolute consensus score normalized into [0,1].
func (c ConsensusScore) Strength() float64 {
	s := c.Score / 2
	if s < 0 {
		s = -s
	}
	if s > 1 {
		s = 1
	}
	return s
}

// ClassifyScore maps a weighted score onto a signal. Scores landing exactly
// on a band edge resolve to the less extreme signal.
func ClassifyScore(score float64) SignalType {
	switch {
	case score > 1.5:
		return SignalStrongBuy
	case score > 0.5:
		return SignalBuy
	case score < -1.5:
		return SignalStrongSell
	case score < -0.5:
		return SignalSell
	default:
		return SignalHold
	}
}
