package usecase

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"SmartFolio/internal/domain/models"
	"SmartFolio/internal/domain/service"
)

// RiskProfileEvaluator turns consensus scores into per-user candidates under
// that user's risk configuration. An evaluator carries per-run state (the
// count of new BUY positions already admitted), so build one per user per
// run and feed it symbols in a deterministic order.
type RiskProfileEvaluator struct {
	profile   models.RiskProfile
	portfolio models.Portfolio
	quotes    service.QuoteSource
	newBuys   int
}

func NewRiskProfileEvaluator(profile models.RiskProfile, portfolio models.Portfolio, quotes service.QuoteSource) *RiskProfileEvaluator {
	return &RiskProfileEvaluator{
		profile:   profile,
		portfolio: portfolio,
		quotes:    quotes,
	}
}

// Evaluate filters one consensus result through the user's thresholds. The
// second return is false when no candidate survives.
func (e *RiskProfileEvaluator) Evaluate(ctx context.Context, consensus models.ConsensusScore) (models.Candidate, bool) {
	held := e.portfolio.Holds(consensus.Symbol)

	var action models.ActionType
	switch {
	case consensus.Classification.IsBuy():
		if consensus.Confidence < e.profile.BuyConfidenceThreshold {
			return models.Candidate{}, false
		}
		if !held && e.atPositionLimit() {
			return models.Candidate{}, false
		}
		action = models.ActionBuy
	case consensus.Classification.IsSell():
		if !held || consensus.Confidence < e.profile.SellHoldThreshold {
			return models.Candidate{}, false
		}
		action = models.ActionSell
	default:
		if !held || consensus.Confidence < e.profile.SellHoldThreshold {
			return models.Candidate{}, false
		}
		action = models.ActionHold
	}

	price, ok := e.priceFor(ctx, consensus.Symbol)
	if !ok {
		return models.Candidate{}, false
	}

	cand := models.Candidate{
		UserID:       e.profile.UserID,
		Symbol:       consensus.Symbol,
		Action:       action,
		Confidence:   consensus.Confidence,
		Strength:     consensus.Strength(),
		CurrentPrice: price,
		TargetPrice:  bestTarget(consensus.SupportingSignals),
		StopLoss:     bestStopLoss(consensus.SupportingSignals),
		Reasoning:    consensusReasoning(consensus),
		KeyFactors:   keyFactors(consensus),
		RiskFactors:  riskFactors(e.profile, action),
	}

	if action == models.ActionBuy && !held {
		e.newBuys++
	}
	return cand, true
}

// atPositionLimit reports whether admitting another new BUY would push the
// user past maxPositions, counting BUYs already admitted this run.
func (e *RiskProfileEvaluator) atPositionLimit() bool {
	if e.profile.MaxPositions <= 0 {
		return false
	}
	return len(e.portfolio.Holdings)+e.newBuys >= e.profile.MaxPositions
}

func (e *RiskProfileEvaluator) priceFor(ctx context.Context, symbol string) (decimal.Decimal, bool) {
	if h, ok := e.portfolio.Holding(symbol); ok {
		return h.CurrentPrice, true
	}
	if e.quotes == nil {
		return decimal.Decimal{}, false
	}
	price, err := e.quotes.Price(ctx, symbol)
	if err != nil || price.LessThanOrEqual(decimal.Zero) {
		return decimal.Decimal{}, false
	}
	return price, true
}

// bestTarget picks the target price from the highest-confidence signal that
// carries one.
func bestTarget(signals []models.AdvisorSignal) decimal.NullDecimal {
	return bestPrice(signals, func(s models.AdvisorSignal) decimal.NullDecimal { return s.TargetPrice })
}

func bestStopLoss(signals []models.AdvisorSignal) decimal.NullDecimal {
	return bestPrice(signals, func(s models.AdvisorSignal) decimal.NullDecimal { return s.StopLoss })
}

func bestPrice(signals []models.AdvisorSignal, pick func(models.AdvisorSignal) decimal.NullDecimal) decimal.NullDecimal {
	var (
		best       decimal.NullDecimal
		bestWeight float64 = -1
	)
	for _, s := range signals {
		p := pick(s)
		if !p.Valid {
			continue
		}
		if w := s.Confidence.Weight(); w > bestWeight {
			best = p
			bestWeight = w
		}
	}
	return best
}

func consensusReasoning(c models.ConsensusScore) string {
	return fmt.Sprintf("%d advisors: %d buy, %d hold, %d sell (weighted score %.2f)",
		len(c.SupportingSignals), c.BuyCount, c.HoldCount, c.SellCount, c.Score)
}

func keyFactors(c models.ConsensusScore) []string {
	factors := make([]string, 0, len(c.SupportingSignals))
	for _, s := range c.SupportingSignals {
		factors = append(factors, fmt.Sprintf("%s: %s (%s)", s.Advisor, s.Signal, s.Confidence))
	}
	return factors
}

func riskFactors(profile models.RiskProfile, action models.ActionType) []string {
	var factors []string
	if action == models.ActionBuy && profile.Level == models.ProfileConservative {
		factors = append(factors, "conservative profile: position sized below cap")
	}
	return factors
}
