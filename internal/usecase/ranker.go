package usecase

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"SmartFolio/internal/domain/models"
)

// PriorityRanker orders a user's candidates and greedily sizes them against
// available cash and position limits. Ranking is fully deterministic:
// identical inputs always produce the same recommendations in the same
// order.
type PriorityRanker struct {
	confidenceWeight     float64
	strengthWeight       float64
	diversificationBonus float64
	profitTakingFloor    float64
	maxPositionFraction  float64
	recommendationTTL    time.Duration
}

type RankerOptions struct {
	ConfidenceWeight     float64
	StrengthWeight       float64
	DiversificationBonus float64
	ProfitTakingFloor    float64
	MaxPositionFraction  float64
	RecommendationTTL    time.Duration
}

func NewPriorityRanker(opts RankerOptions) *PriorityRanker {
	return &PriorityRanker{
		confidenceWeight:     opts.ConfidenceWeight,
		strengthWeight:       opts.StrengthWeight,
		diversificationBonus: opts.DiversificationBonus,
		profitTakingFloor:    opts.ProfitTakingFloor,
		maxPositionFraction:  opts.MaxPositionFraction,
		recommendationTTL:    opts.RecommendationTTL,
	}
}

// Priority computes the ranking score for one candidate. Profit-taking
// candidates are floored into an elevated band so ordinary sells cannot
// crowd them out.
func (r *PriorityRanker) Priority(cand models.Candidate, held bool) float64 {
	score := cand.Confidence*r.confidenceWeight + cand.Strength*r.strengthWeight
	if cand.Action == models.ActionBuy && !held {
		score += r.diversificationBonus
	}
	if cand.ProfitTaking && score < r.profitTakingFloor {
		score = r.profitTakingFloor
	}
	return score
}

// Rank sorts candidates by priority and allocates cash and shares. BUY
// allocations never exceed remaining cash or the per-position fraction of
// total portfolio value; SELLs never exceed held quantity, even when
// several sell candidates target the same symbol. Candidates that cannot
// afford a single share are dropped.
func (r *PriorityRanker) Rank(candidates []models.Candidate, portfolio models.Portfolio, sessionID string, now time.Time) []models.Recommendation {
	ranked := make([]rankedCandidate, 0, len(candidates))
	for _, cand := range candidates {
		ranked = append(ranked, rankedCandidate{
			Candidate: cand,
			priority:  r.Priority(cand, portfolio.Holds(cand.Symbol)),
		})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].priority != ranked[j].priority {
			return ranked[i].priority > ranked[j].priority
		}
		if ranked[i].Confidence != ranked[j].Confidence {
			return ranked[i].Confidence > ranked[j].Confidence
		}
		return ranked[i].Symbol < ranked[j].Symbol
	})

	remaining := portfolio.AvailableCash
	positionCap := portfolio.TotalValue().Mul(decimal.NewFromFloat(r.maxPositionFraction))
	sellable := make(map[string]int64)

	recs := make([]models.Recommendation, 0, len(ranked))
	for _, cand := range ranked {
		var (
			shares int64
			cash   decimal.Decimal
		)
		switch cand.Action {
		case models.ActionBuy:
			budget := positionCap
			if remaining.LessThan(budget) {
				budget = remaining
			}
			if cand.CurrentPrice.LessThanOrEqual(decimal.Zero) {
				continue
			}
			shares = budget.Div(cand.CurrentPrice).IntPart()
			if shares < 1 {
				continue
			}
			cash = cand.CurrentPrice.Mul(decimal.NewFromInt(shares))
			remaining = remaining.Sub(cash)
		case models.ActionSell:
			holding, ok := portfolio.Holding(cand.Symbol)
			if !ok {
				continue
			}
			left, seen := sellable[cand.Symbol]
			if !seen {
				left = holding.Quantity
			}
			shares = sellShares(holding.Quantity, cand.SellRatio)
			if shares > left {
				shares = left
			}
			if shares < 1 {
				continue
			}
			sellable[cand.Symbol] = left - shares
		}

		recs = append(recs, models.Recommendation{
			ID:            uuid.NewString(),
			SessionID:     sessionID,
			UserID:        cand.UserID,
			Symbol:        cand.Symbol,
			Action:        cand.Action,
			PriorityScore: cand.priority,
			Confidence:    cand.Confidence,
			Shares:        shares,
			CashAllocated: cash,
			CurrentPrice:  cand.CurrentPrice,
			TargetPrice:   cand.TargetPrice,
			StopLoss:      cand.StopLoss,
			Reasoning:     cand.Reasoning,
			KeyFactors:    cand.KeyFactors,
			RiskFactors:   cand.RiskFactors,
			Status:        models.StatusPending,
			CreatedAt:     now,
			ExpiresAt:     now.Add(r.recommendationTTL),
		})
	}
	return recs
}

type rankedCandidate struct {
	models.Candidate
	priority float64
}

// sellShares sizes a sell at ratio of the held quantity, never exceeding it.
// A zero or out-of-range ratio liquidates the whole position.
func sellShares(held int64, ratio float64) int64 {
	if held <= 0 {
		return 0
	}
	if ratio <= 0 || ratio >= 1 {
		return held
	}
	shares := int64(float64(held) * ratio)
	if shares < 1 {
		shares = 1
	}
	return shares
}
