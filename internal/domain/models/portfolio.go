package models

import "github.com/shopspring/decimal"

// Holding is one position in a user's portfolio. The engine only reads
// holdings; mutation happens through trade execution.
type Holding struct {
	Symbol       string          `json:"symbol"`
	Quantity     int64           `json:"quantity"`
	AveragePrice decimal.Decimal `json:"average_price"`
	CurrentPrice decimal.Decimal `json:"current_price"`
}

// GainPct is the unrealized gain of the position in percent.
func (h Holding) GainPct() float64 {
	if h.AveragePrice.IsZero() {
		return 0
	}
	gain, _ := h.CurrentPrice.Sub(h.AveragePrice).
		Div(h.AveragePrice).
		Mul(decimal.NewFromInt(100)).
		Float64()
	return gain
}

// MarketValue is quantity times current price.
func (h Holding) MarketValue() decimal.Decimal {
	return h.CurrentPrice.Mul(decimal.NewFromInt(h.Quantity))
}

// Portfolio is the engine's read-only snapshot of a user's positions.
type Portfolio struct {
	UserID        string          `json:"user_id"`
	AvailableCash decimal.Decimal `json:"available_cash"`
	Holdings      []Holding       `json:"holdings"`
}

// TotalValue is cash plus the market value of every holding.
func (p Portfolio) TotalValue() decimal.Decimal {
	total := p.AvailableCash
	for _, h := range p.Holdings {
		total = total.Add(h.MarketValue())
	}
	return total
}

// Holding returns the position for symbol, if any.
func (p Portfolio) Holding(symbol string) (Holding, bool) {
	for _, h := range p.Holdings {
		if h.Symbol == symbol {
			return h, true
		}
	}
	return Holding{}, false
}

// Holds reports whether the user has an open position in symbol.
func (p Portfolio) Holds(symbol string) bool {
	_, ok := p.Holding(symbol)
	return ok
}
