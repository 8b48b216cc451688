package usecase

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"SmartFolio/internal/domain/models"
)

// fakeGateway serves canned signals and counts fetches per symbol.
type fakeGateway struct {
	advisor models.AdvisorType
	signals map[string][]models.AdvisorSignal
	err     error
	delay   time.Duration

	mu      sync.Mutex
	fetches map[string]int
}

func newFakeGateway(advisor models.AdvisorType, signals map[string][]models.AdvisorSignal) *fakeGateway {
	return &fakeGateway{
		advisor: advisor,
		signals: signals,
		fetches: make(map[string]int),
	}
}

func (g *fakeGateway) Type() models.AdvisorType { return g.advisor }
func (g *fakeGateway) Weight() float64          { return 1 }

func (g *fakeGateway) Fetch(ctx context.Context, symbol string) ([]models.AdvisorSignal, error) {
	g.mu.Lock()
	g.fetches[symbol]++
	g.mu.Unlock()
	if g.delay > 0 {
		select {
		case <-time.After(g.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if g.err != nil {
		return nil, g.err
	}
	return g.signals[symbol], nil
}

func (g *fakeGateway) fetchCount(symbol string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.fetches[symbol]
}

// fixedVolatility returns the same estimate for every symbol.
type fixedVolatility struct {
	pct float64
	err error
}

func (v fixedVolatility) Volatility(context.Context, string) (float64, error) {
	return v.pct, v.err
}

// fixedQuotes prices every symbol identically.
type fixedQuotes struct {
	price decimal.Decimal
}

func (q fixedQuotes) Price(context.Context, string) (decimal.Decimal, error) {
	return q.price, nil
}

// countingExecutor records executed recommendations.
type countingExecutor struct {
	executed atomic.Int64
	err      error
}

func (e *countingExecutor) Execute(context.Context, models.Recommendation) error {
	if e.err != nil {
		return e.err
	}
	e.executed.Add(1)
	return nil
}

func signal(advisor models.AdvisorType, symbol string, sig models.SignalType, conf models.ConfidenceLevel, score float64) models.AdvisorSignal {
	return models.AdvisorSignal{
		Advisor:    advisor,
		Symbol:     symbol,
		Signal:     sig,
		Confidence: conf,
		Score:      score,
		FetchedAt:  time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC),
	}
}

func holding(symbol string, qty int64, avg, current float64) models.Holding {
	return models.Holding{
		Symbol:       symbol,
		Quantity:     qty,
		AveragePrice: decimal.NewFromFloat(avg),
		CurrentPrice: decimal.NewFromFloat(current),
	}
}

func defaultRanker() *PriorityRanker {
	return NewPriorityRanker(RankerOptions{
		ConfidenceWeight:     60,
		StrengthWeight:       30,
		DiversificationBonus: 10,
		ProfitTakingFloor:    90,
		MaxPositionFraction:  0.20,
		RecommendationTTL:    7 * 24 * time.Hour,
	})
}

func defaultDetector(vol float64) *ProfitTakingDetector {
	return NewProfitTakingDetector(ProfitTakingOptions{
		Volatility:        fixedVolatility{pct: vol},
		ModerateGainPct:   10,
		StrongGainPct:     20,
		ModerateSellRatio: 0.25,
		StrongSellRatio:   0.50,
	})
}
