package advisors

import (
	"fmt"
	"strings"

	"SmartFolio/internal/domain/models"
	"SmartFolio/internal/domain/service"
	"SmartFolio/pkg/config"
	"SmartFolio/pkg/logger"
)

// Build constructs the gateway for each enabled advisor type. The set of
// advisor types is closed: adding a source means adding a case here.
func Build(cfg config.AdvisorsConfig, log *logger.Logger) ([]service.AdvisorGateway, error) {
	gateways := make([]service.AdvisorGateway, 0, len(cfg.Enabled))
	for _, name := range cfg.Enabled {
		switch models.AdvisorType(strings.ToUpper(name)) {
		case models.AdvisorFMP:
			gateways = append(gateways, NewFMP(cfg.FMP, cfg.RequestTimeout))
		case models.AdvisorFinnhub:
			gateways = append(gateways, NewFinnhub(cfg.Finnhub, cfg.RequestTimeout))
		case models.AdvisorYahoo:
			gateways = append(gateways, NewYahoo(cfg.Yahoo, cfg.RequestTimeout))
		default:
			return nil, fmt.Errorf("advisors: unknown type %q", name)
		}
	}
	if log != nil {
		log.Info("advisor gateways ready", logger.Int("count", len(gateways)))
	}
	return gateways, nil
}

// Weights returns the reliability weight per enabled advisor, consumed by
// the consensus aggregator.
func Weights(cfg config.AdvisorsConfig) map[models.AdvisorType]float64 {
	return map[models.AdvisorType]float64{
		models.AdvisorFMP:     cfg.FMP.Weight,
		models.AdvisorFinnhub: cfg.Finnhub.Weight,
		models.AdvisorYahoo:   cfg.Yahoo.Weight,
	}
}

// levelForScore buckets a native confidence score into a level.
func levelForScore(score float64) models.ConfidenceLevel {
	switch {
	case score >= 0.85:
		return models.ConfidenceVeryHigh
	case score >= 0.7:
		return models.ConfidenceHigh
	case score >= 0.6:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceLow
	}
}
