package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AdvisorType identifies an upstream analysis provider.
type AdvisorType string

const (
	AdvisorFMP     AdvisorType = "FMP"
	AdvisorFinnhub AdvisorType = "FINNHUB"
	AdvisorYahoo   AdvisorType = "YAHOO"
)

// SignalType is the directional call an advisor makes on a symbol.
type SignalType string

const (
	SignalStrongBuy  SignalType = "STRONG_BUY"
	SignalBuy        SignalType = "BUY"
	SignalHold       SignalType = "HOLD"
	SignalSell       SignalType = "SELL"
	SignalStrongSell SignalType = "STRONG_SELL"
)

// Numeric maps the signal onto the consensus scale.
func (s SignalType) Numeric() float64 {
	switch s {
	case SignalStrongBuy:
		return 2
	case SignalBuy:
		return 1
	case SignalSell:
		return -1
	case SignalStrongSell:
		return -2
	default:
		return 0
	}
}

// IsBuy reports whether the signal recommends opening or adding to a position.
func (s SignalType) IsBuy() bool {
	return s == SignalBuy || s == SignalStrongBuy
}

// IsSell reports whether the signal recommends reducing or closing a position.
func (s SignalType) IsSell() bool {
	return s == SignalSell || s == SignalStrongSell
}

// ConfidenceLevel is how sure an advisor is about its own call.
type ConfidenceLevel string

const (
	ConfidenceLow      ConfidenceLevel = "LOW"
	ConfidenceMedium   ConfidenceLevel = "MEDIUM"
	ConfidenceHigh     ConfidenceLevel = "HIGH"
	ConfidenceVeryHigh ConfidenceLevel = "VERY_HIGH"
)

// Weight maps the confidence level onto the aggregation weight scale.
func (c ConfidenceLevel) Weight() float64 {
	switch c {
	case ConfidenceLow:
		return 1
	case ConfidenceHigh:
		return 3
	case ConfidenceVeryHigh:
		return 4
	default:
		return 2
	}
}

// AdvisorSignal is a single advisor's opinion on a symbol at a point in time.
// Signals are immutable once fetched.
type AdvisorSignal struct {
	Advisor     AdvisorType         `json:"advisor"`
	Symbol      string              `json:"symbol"`
	Signal      SignalType          `json:"signal"`
	Confidence  ConfidenceLevel     `json:"confidence"`
	Score       float64             `json:"score"`
	TargetPrice decimal.NullDecimal `json:"target_price"`
	StopLoss    decimal.NullDecimal `json:"stop_loss"`
	Reasoning   string              `json:"reasoning"`
	FetchedAt   time.Time           `json:"fetched_at"`
}
