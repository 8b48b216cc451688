package usecase

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SmartFolio/internal/domain/models"
)

func buyCandidate(symbol string, confidence float64, price float64) models.Candidate {
	return models.Candidate{
		UserID:       "u1",
		Symbol:       symbol,
		Action:       models.ActionBuy,
		Confidence:   confidence,
		Strength:     confidence,
		CurrentPrice: decimal.NewFromFloat(price),
	}
}

func TestRankFundsOnlyAffordableCandidates(t *testing.T) {
	// $500 cash, two candidates at $400 a share: only the higher-priority
	// one is funded, the other cannot afford a single share.
	r := NewPriorityRanker(RankerOptions{
		ConfidenceWeight:    60,
		StrengthWeight:      30,
		MaxPositionFraction: 1.0,
		RecommendationTTL:   7 * 24 * time.Hour,
	})
	portfolio := portfolioWith(500)
	candidates := []models.Candidate{
		buyCandidate("AAPL", 0.7, 400),
		buyCandidate("NVDA", 0.9, 400),
	}

	recs := r.Rank(candidates, portfolio, "s1", time.Now())

	require.Len(t, recs, 1)
	assert.Equal(t, "NVDA", recs[0].Symbol)
	assert.EqualValues(t, 1, recs[0].Shares)
	assert.True(t, recs[0].CashAllocated.Equal(decimal.NewFromInt(400)))
}

func TestRankNeverExceedsAvailableCash(t *testing.T) {
	r := NewPriorityRanker(RankerOptions{
		ConfidenceWeight:    60,
		StrengthWeight:      30,
		MaxPositionFraction: 1.0,
		RecommendationTTL:   time.Hour,
	})
	portfolio := portfolioWith(1000)
	candidates := []models.Candidate{
		buyCandidate("AAPL", 0.9, 300),
		buyCandidate("NVDA", 0.8, 300),
		buyCandidate("TSLA", 0.7, 300),
	}

	recs := r.Rank(candidates, portfolio, "s1", time.Now())

	total := decimal.Zero
	for _, rec := range recs {
		total = total.Add(rec.CashAllocated)
	}
	assert.True(t, total.LessThanOrEqual(decimal.NewFromInt(1000)),
		"total allocated %s exceeds available cash", total)
}

func TestRankCapsPositionAtPortfolioFraction(t *testing.T) {
	// total value 10000, 20% cap: a single buy gets at most 2000
	r := defaultRanker()
	portfolio := portfolioWith(10000)

	recs := r.Rank([]models.Candidate{buyCandidate("NVDA", 0.9, 100)}, portfolio, "s1", time.Now())

	require.Len(t, recs, 1)
	assert.EqualValues(t, 20, recs[0].Shares)
	assert.True(t, recs[0].CashAllocated.Equal(decimal.NewFromInt(2000)))
}

func TestRankSellNeverExceedsHeldQuantity(t *testing.T) {
	r := defaultRanker()
	portfolio := portfolioWith(0, holding("AAPL", 7, 100, 150))
	cand := models.Candidate{
		UserID: "u1", Symbol: "AAPL", Action: models.ActionSell,
		Confidence: 0.9, Strength: 0.9,
		CurrentPrice: decimal.NewFromInt(150),
	}

	recs := r.Rank([]models.Candidate{cand}, portfolio, "s1", time.Now())

	require.Len(t, recs, 1)
	assert.EqualValues(t, 7, recs[0].Shares)
}

func TestRankCombinedSellsNeverExceedHeldQuantity(t *testing.T) {
	// A partial profit-taking sell and a full consensus sell for the same
	// symbol in one pass must together stay within the held quantity.
	r := defaultRanker()
	portfolio := portfolioWith(0, holding("NVDA", 100, 100, 150))
	pt := models.Candidate{
		UserID: "u1", Symbol: "NVDA", Action: models.ActionSell,
		Confidence: 0.75, Strength: 0.75, ProfitTaking: true, SellRatio: 0.25,
		CurrentPrice: decimal.NewFromInt(150),
	}
	full := models.Candidate{
		UserID: "u1", Symbol: "NVDA", Action: models.ActionSell,
		Confidence: 0.9, Strength: 0.9,
		CurrentPrice: decimal.NewFromInt(150),
	}

	recs := r.Rank([]models.Candidate{full, pt}, portfolio, "s1", time.Now())

	var total int64
	for _, rec := range recs {
		total += rec.Shares
	}
	assert.LessOrEqual(t, total, int64(100))
}

func TestRankProfitTakingFloorsPriority(t *testing.T) {
	r := defaultRanker()
	portfolio := portfolioWith(10000, holding("NVDA", 10, 100, 120))
	pt := models.Candidate{
		UserID: "u1", Symbol: "NVDA", Action: models.ActionSell,
		Confidence: 0.55, Strength: 0.55, ProfitTaking: true, SellRatio: 0.25,
		CurrentPrice: decimal.NewFromInt(120),
	}
	buy := buyCandidate("AAPL", 0.85, 100)

	recs := r.Rank([]models.Candidate{buy, pt}, portfolio, "s1", time.Now())

	require.Len(t, recs, 2)
	assert.Equal(t, "NVDA", recs[0].Symbol, "profit-taking sell must rank above ordinary buys")
	assert.GreaterOrEqual(t, recs[0].PriorityScore, 90.0)
}

func TestRankDeterministicTieBreak(t *testing.T) {
	r := defaultRanker()
	portfolio := portfolioWith(100000)
	candidates := []models.Candidate{
		buyCandidate("MSFT", 0.8, 100),
		buyCandidate("AAPL", 0.8, 100),
	}

	first := r.Rank(candidates, portfolio, "s1", time.Unix(1748800000, 0))
	second := r.Rank([]models.Candidate{candidates[1], candidates[0]}, portfolio, "s1", time.Unix(1748800000, 0))

	require.Len(t, first, 2)
	require.Len(t, second, 2)
	assert.Equal(t, "AAPL", first[0].Symbol)
	assert.Equal(t, first[0].Symbol, second[0].Symbol)
	assert.Equal(t, first[1].Symbol, second[1].Symbol)
}

func TestRankHoldAllocatesNothing(t *testing.T) {
	r := defaultRanker()
	portfolio := portfolioWith(1000, holding("AAPL", 10, 100, 110))
	cand := models.Candidate{
		UserID: "u1", Symbol: "AAPL", Action: models.ActionHold,
		Confidence: 0.7, Strength: 0.1,
		CurrentPrice: decimal.NewFromInt(110),
	}

	recs := r.Rank([]models.Candidate{cand}, portfolio, "s1", time.Now())

	require.Len(t, recs, 1)
	assert.EqualValues(t, 0, recs[0].Shares)
	assert.True(t, recs[0].CashAllocated.IsZero())
}

func TestRankExpirySetAfterCreation(t *testing.T) {
	r := defaultRanker()
	now := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)

	recs := r.Rank([]models.Candidate{buyCandidate("NVDA", 0.9, 100)}, portfolioWith(10000), "s1", now)

	require.Len(t, recs, 1)
	assert.Equal(t, now, recs[0].CreatedAt)
	assert.True(t, recs[0].ExpiresAt.After(recs[0].CreatedAt))
	assert.Equal(t, now.Add(7*24*time.Hour), recs[0].ExpiresAt)
}
