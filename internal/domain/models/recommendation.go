package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ActionType is the side of a recommendation.
type ActionType string

const (
	ActionBuy  ActionType = "BUY"
	ActionSell ActionType = "SELL"
	ActionHold ActionType = "HOLD"
)

// RecommendationStatus tracks a recommendation through its lifecycle.
type RecommendationStatus string

const (
	StatusPending  RecommendationStatus = "PENDING"
	StatusExecuted RecommendationStatus = "EXECUTED"
	StatusExpired  RecommendationStatus = "EXPIRED"
	StatusRejected RecommendationStatus = "REJECTED"
)

// Candidate is a pre-ranking action proposal for one user and symbol,
// produced by risk evaluation or profit-taking detection.
type Candidate struct {
	UserID       string
	Symbol       string
	Action       ActionType
	Confidence   float64
	Strength     float64
	ProfitTaking bool
	SellRatio    float64
	CurrentPrice decimal.Decimal
	TargetPrice  decimal.NullDecimal
	StopLoss     decimal.NullDecimal
	Reasoning    string
	KeyFactors   []string
	RiskFactors  []string
}

// Recommendation is a ranked, sized action ready for persistence and
// optional execution.
type Recommendation struct {
	ID            string               `json:"id"`
	SessionID     string               `json:"session_id"`
	UserID        string               `json:"user_id"`
	Symbol        string               `json:"symbol"`
	Action        ActionType           `json:"action"`
	PriorityScore float64              `json:"priority_score"`
	Confidence    float64              `json:"confidence"`
	Shares        int64                `json:"shares"`
	CashAllocated decimal.Decimal      `json:"cash_allocated"`
	CurrentPrice  decimal.Decimal      `json:"current_price"`
	TargetPrice   decimal.NullDecimal  `json:"target_price"`
	StopLoss      decimal.NullDecimal  `json:"stop_loss"`
	Reasoning     string               `json:"reasoning"`
	KeyFactors    []string             `json:"key_factors"`
	RiskFactors   []string             `json:"risk_factors"`
	Status        RecommendationStatus `json:"status"`
	CreatedAt     time.Time            `json:"created_at"`
	ExpiresAt     time.Time            `json:"expires_at"`
}

// Expired reports whether the recommendation is past its expiry at now.
func (r Recommendation) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

// Executable reports whether the recommendation can still be executed.
func (r Recommendation) Executable(now time.Time) bool {
	return r.Status == StatusPending && !r.Expired(now)
}

// SessionSummary aggregates a run's recommendations for reporting.
type SessionSummary struct {
	BuyCount      int             `json:"buy_count"`
	SellCount     int             `json:"sell_count"`
	HoldCount     int             `json:"hold_count"`
	CashAllocated decimal.Decimal `json:"cash_allocated"`
	SellProceeds  decimal.Decimal `json:"sell_proceeds"`
	AvgPriority   float64         `json:"avg_priority"`
	AvgConfidence float64         `json:"avg_confidence"`
}

// SummarizeRecommendations rolls up counts, cash flows, and averages across
// every recommendation a run produced.
func SummarizeRecommendations(recs []Recommendation) SessionSummary {
	s := SessionSummary{CashAllocated: decimal.Zero, SellProceeds: decimal.Zero}
	if len(recs) == 0 {
		return s
	}
	var priority, confidence float64
	for _, r := range recs {
		switch r.Action {
		case ActionBuy:
			s.BuyCount++
			s.CashAllocated = s.CashAllocated.Add(r.CashAllocated)
		case ActionSell:
			s.SellCount++
			s.SellProceeds = s.SellProceeds.Add(r.CurrentPrice.Mul(decimal.NewFromInt(r.Shares)))
		case ActionHold:
			s.HoldCount++
		}
		priority += r.PriorityScore
		confidence += r.Confidence
	}
	n := float64(len(recs))
	s.AvgPriority = priority / n
	s.AvgConfidence = confidence / n
	return s
}
