package usecase

import (
	"sort"
	"time"

	"SmartFolio/internal/domain/models"
)

// ConsensusAggregator reconciles the signals for one symbol into a single
// weighted classification. Aggregation is pure: identical inputs always
// produce identical outputs.
type ConsensusAggregator struct {
	advisorWeights map[models.AdvisorType]float64
}

func NewConsensusAggregator(advisorWeights map[models.AdvisorType]float64) *ConsensusAggregator {
	return &ConsensusAggregator{advisorWeights: advisorWeights}
}

// Aggregate scores a symbol from its signal set. The second return is false
// when there are no signals to aggregate.
func (a *ConsensusAggregator) Aggregate(symbol string, signals []models.AdvisorSignal, now time.Time) (models.ConsensusScore, bool) {
	if len(signals) == 0 {
		return models.ConsensusScore{}, false
	}

	supporting := make([]models.AdvisorSignal, len(signals))
	copy(supporting, signals)
	sortSignals(supporting)

	var (
		weightedSum float64
		confSum     float64
		totalWeight float64
		buys        int
		sells       int
		holds       int
	)
	for _, sig := range supporting {
		w := sig.Confidence.Weight() * a.weightFor(sig.Advisor)
		weightedSum += sig.Signal.Numeric() * w
		confSum += sig.Score * w
		totalWeight += w

		switch {
		case sig.Signal.IsBuy():
			buys++
		case sig.Signal.IsSell():
			sells++
		default:
			holds++
		}
	}

	score := weightedSum / totalWeight
	return models.ConsensusScore{
		Symbol:            symbol,
		Score:             score,
		Confidence:        confSum / totalWeight,
		Classification:    models.ClassifyScore(score),
		SupportingSignals: supporting,
		BuyCount:          buys,
		SellCount:         sells,
		HoldCount:         holds,
		ComputedAt:        now,
	}, true
}

func (a *ConsensusAggregator) weightFor(advisor models.AdvisorType) float64 {
	if w, ok := a.advisorWeights[advisor]; ok && w > 0 {
		return w
	}
	return 1
}

// sortSignals orders a signal set deterministically by symbol then advisor.
func sortSignals(signals []models.AdvisorSignal) {
	sort.Slice(signals, func(i, j int) bool {
		if signals[i].Symbol != signals[j].Symbol {
			return signals[i].Symbol < signals[j].Symbol
		}
		return signals[i].Advisor < signals[j].Advisor
	})
}
