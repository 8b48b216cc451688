package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SmartFolio/internal/domain/models"
)

func moderateProfile() models.RiskProfile {
	return models.DefaultRiskProfile("u1")
}

func portfolioWith(cash float64, holdings ...models.Holding) models.Portfolio {
	return models.Portfolio{
		UserID:        "u1",
		AvailableCash: decimal.NewFromFloat(cash),
		Holdings:      holdings,
	}
}

func buyConsensus(symbol string, confidence float64) models.ConsensusScore {
	return models.ConsensusScore{
		Symbol:         symbol,
		Score:          1.2,
		Confidence:     confidence,
		Classification: models.SignalBuy,
		ComputedAt:     time.Now(),
	}
}

func sellConsensus(symbol string, confidence float64) models.ConsensusScore {
	return models.ConsensusScore{
		Symbol:         symbol,
		Score:          -1.0,
		Confidence:     confidence,
		Classification: models.SignalSell,
		ComputedAt:     time.Now(),
	}
}

func TestBuyBelowConfidenceThresholdDropped(t *testing.T) {
	e := NewRiskProfileEvaluator(moderateProfile(), portfolioWith(10000), fixedQuotes{price: decimal.NewFromInt(100)})

	_, ok := e.Evaluate(context.Background(), buyConsensus("NVDA", 0.55))
	assert.False(t, ok)

	cand, ok := e.Evaluate(context.Background(), buyConsensus("NVDA", 0.65))
	require.True(t, ok)
	assert.Equal(t, models.ActionBuy, cand.Action)
	assert.Equal(t, 0.65, cand.Confidence)
}

func TestSellRequiresHolding(t *testing.T) {
	held := portfolioWith(1000, holding("AAPL", 10, 150, 170))
	e := NewRiskProfileEvaluator(moderateProfile(), held, nil)

	_, ok := e.Evaluate(context.Background(), sellConsensus("NVDA", 0.9))
	assert.False(t, ok, "sell for a symbol not held must be suppressed")

	cand, ok := e.Evaluate(context.Background(), sellConsensus("AAPL", 0.9))
	require.True(t, ok)
	assert.Equal(t, models.ActionSell, cand.Action)
}

func TestHoldRequiresHoldingAndThreshold(t *testing.T) {
	held := portfolioWith(1000, holding("AAPL", 10, 150, 170))
	e := NewRiskProfileEvaluator(moderateProfile(), held, nil)

	hold := models.ConsensusScore{Symbol: "AAPL", Confidence: 0.7, Classification: models.SignalHold}
	cand, ok := e.Evaluate(context.Background(), hold)
	require.True(t, ok)
	assert.Equal(t, models.ActionHold, cand.Action)

	weak := models.ConsensusScore{Symbol: "AAPL", Confidence: 0.3, Classification: models.SignalHold}
	_, ok = e.Evaluate(context.Background(), weak)
	assert.False(t, ok)
}

func TestMaxPositionsCapsNewBuysAcrossRun(t *testing.T) {
	profile := moderateProfile()
	profile.MaxPositions = 3
	portfolio := portfolioWith(10000,
		holding("AAPL", 10, 150, 170),
		holding("MSFT", 5, 300, 310),
	)
	e := NewRiskProfileEvaluator(profile, portfolio, fixedQuotes{price: decimal.NewFromInt(50)})

	// one slot left: first new buy admitted, second rejected
	_, ok := e.Evaluate(context.Background(), buyConsensus("NVDA", 0.8))
	assert.True(t, ok)
	_, ok = e.Evaluate(context.Background(), buyConsensus("TSLA", 0.8))
	assert.False(t, ok)

	// buys into an existing position are not capped
	_, ok = e.Evaluate(context.Background(), buyConsensus("AAPL", 0.8))
	assert.True(t, ok)
}

func TestBuyWithoutQuoteDropped(t *testing.T) {
	e := NewRiskProfileEvaluator(moderateProfile(), portfolioWith(10000), nil)
	_, ok := e.Evaluate(context.Background(), buyConsensus("NVDA", 0.9))
	assert.False(t, ok)
}

func TestCandidateCarriesTargetFromStrongestSignal(t *testing.T) {
	target := decimal.NewFromInt(200)
	consensus := buyConsensus("NVDA", 0.8)
	consensus.SupportingSignals = []models.AdvisorSignal{
		{
			Advisor:     models.AdvisorFMP,
			Symbol:      "NVDA",
			Signal:      models.SignalBuy,
			Confidence:  models.ConfidenceLow,
			TargetPrice: decimal.NewNullDecimal(decimal.NewFromInt(150)),
		},
		{
			Advisor:     models.AdvisorFinnhub,
			Symbol:      "NVDA",
			Signal:      models.SignalStrongBuy,
			Confidence:  models.ConfidenceVeryHigh,
			TargetPrice: decimal.NewNullDecimal(target),
		},
	}
	e := NewRiskProfileEvaluator(moderateProfile(), portfolioWith(10000), fixedQuotes{price: decimal.NewFromInt(100)})

	cand, ok := e.Evaluate(context.Background(), consensus)
	require.True(t, ok)
	require.True(t, cand.TargetPrice.Valid)
	assert.True(t, cand.TargetPrice.Decimal.Equal(target))
}
