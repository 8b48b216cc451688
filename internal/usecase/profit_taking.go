package usecase

import (
	"context"
	"fmt"
	"sort"

	"SmartFolio/internal/domain/models"
	"SmartFolio/internal/domain/service"
	"SmartFolio/pkg/logger"
)

// ProfitTakingDetector scans holdings for gain-plus-volatility sell
// triggers, independent of the consensus vote. Both thresholds are
// inclusive: a holding sitting exactly at the gain or volatility threshold
// triggers.
type ProfitTakingDetector struct {
	volatility        service.VolatilitySource
	moderateGainPct   float64
	strongGainPct     float64
	moderateSellRatio float64
	strongSellRatio   float64
	log               *logger.Logger
}

type ProfitTakingOptions struct {
	Volatility        service.VolatilitySource
	ModerateGainPct   float64
	StrongGainPct     float64
	ModerateSellRatio float64
	StrongSellRatio   float64
	Logger            *logger.Logger
}

func NewProfitTakingDetector(opts ProfitTakingOptions) *ProfitTakingDetector {
	log := opts.Logger
	if log == nil {
		log = logger.NewNop()
	}
	return &ProfitTakingDetector{
		volatility:        opts.Volatility,
		moderateGainPct:   opts.ModerateGainPct,
		strongGainPct:     opts.StrongGainPct,
		moderateSellRatio: opts.ModerateSellRatio,
		strongSellRatio:   opts.StrongSellRatio,
		log:               log,
	}
}

// Scan returns a SELL candidate for every holding whose gain and volatility
// both clear the profile's thresholds. Results are ordered by symbol.
func (d *ProfitTakingDetector) Scan(ctx context.Context, profile models.RiskProfile, portfolio models.Portfolio) []models.Candidate {
	if !profile.ProfitTakingEnabled {
		return nil
	}

	holdings := make([]models.Holding, len(portfolio.Holdings))
	copy(holdings, portfolio.Holdings)
	sort.Slice(holdings, func(i, j int) bool { return holdings[i].Symbol < holdings[j].Symbol })

	var candidates []models.Candidate
	for _, h := range holdings {
		if h.Quantity <= 0 {
			continue
		}
		gain := h.GainPct()
		if gain < profile.ProfitTakingThresholdPct {
			continue
		}

		vol, err := d.volatility.Volatility(ctx, h.Symbol)
		if err != nil {
			d.log.Warn("volatility lookup failed, skipping profit-taking check",
				logger.String("symbol", h.Symbol), logger.Error(err))
			continue
		}
		if vol < profile.VolatilityThresholdPct {
			continue
		}

		confidence := gain / 20
		if confidence > 1 {
			confidence = 1
		}
		confidence *= profile.SellWeight / 10
		if confidence < profile.SellHoldThreshold {
			continue
		}

		candidates = append(candidates, models.Candidate{
			UserID:       profile.UserID,
			Symbol:       h.Symbol,
			Action:       models.ActionSell,
			Confidence:   confidence,
			Strength:     confidence,
			ProfitTaking: true,
			SellRatio:    d.SellRatio(gain),
			CurrentPrice: h.CurrentPrice,
			Reasoning: fmt.Sprintf("profit taking: %.1f%% gain with %.1f%% volatility (thresholds %.1f%%/%.1f%%)",
				gain, vol, profile.ProfitTakingThresholdPct, profile.VolatilityThresholdPct),
			KeyFactors: []string{
				fmt.Sprintf("unrealized gain %.1f%%", gain),
				fmt.Sprintf("volatility %.1f%%", vol),
			},
			RiskFactors: []string{"volatile position, gains may evaporate"},
		})
	}
	return candidates
}

// SellRatio is the fraction of a profitable position to liquidate, larger
// for stronger gains.
func (d *ProfitTakingDetector) SellRatio(gainPct float64) float64 {
	if gainPct >= d.strongGainPct {
		return d.strongSellRatio
	}
	return d.moderateSellRatio
}
