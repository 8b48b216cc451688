package service

import (
	"context"

	"github.com/shopspring/decimal"

	"SmartFolio/internal/domain/models"
)

// AdvisorGateway is one upstream source of advisor signals. Implementations
// fail independently; a gateway error never fails the run.
type AdvisorGateway interface {
	Type() models.AdvisorType
	Weight() float64
	Fetch(ctx context.Context, symbol string) ([]models.AdvisorSignal, error)
}

// VolatilitySource estimates a symbol's volatility in percent. The engine
// treats the estimate as an opaque external input.
type VolatilitySource interface {
	Volatility(ctx context.Context, symbol string) (float64, error)
}

// QuoteSource supplies current prices for symbols the user does not hold.
type QuoteSource interface {
	Price(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// TradeExecutor carries out a recommendation against the user's portfolio
// and reports whether the trade settled.
type TradeExecutor interface {
	Execute(ctx context.Context, rec models.Recommendation) error
}
