package models

// ProfileRiskLevel buckets how aggressive a user's profile is.
type ProfileRiskLevel string

const (
	ProfileConservative ProfileRiskLevel = "CONSERVATIVE"
	ProfileModerate     ProfileRiskLevel = "MODERATE"
	ProfileAggressive   ProfileRiskLevel = "AGGRESSIVE"
)

// RiskProfile is a user's configured thresholds governing which candidates
// become recommendations. It is read as an immutable snapshot at run start.
type RiskProfile struct {
	UserID                   string           `json:"user_id"`
	Level                    ProfileRiskLevel `json:"level"`
	BuyConfidenceThreshold   float64          `json:"buy_confidence_threshold"`
	SellHoldThreshold        float64          `json:"sell_hold_threshold"`
	MaxPositions             int              `json:"max_positions"`
	ProfitTakingEnabled      bool             `json:"profit_taking_enabled"`
	ProfitTakingThresholdPct float64          `json:"profit_taking_threshold_pct"`
	VolatilityThresholdPct   float64          `json:"volatility_threshold_pct"`
	SellWeight               float64          `json:"sell_weight"`
	AutoExecuteTrades        bool             `json:"auto_execute_trades"`
}

// DefaultRiskProfile is the profile assigned to users who never configured one.
func DefaultRiskProfile(userID string) RiskProfile {
	return RiskProfile{
		UserID:                   userID,
		Level:                    ProfileModerate,
		BuyConfidenceThreshold:   0.6,
		SellHoldThreshold:        0.5,
		MaxPositions:             20,
		ProfitTakingEnabled:      true,
		ProfitTakingThresholdPct: 10,
		VolatilityThresholdPct:   20,
		SellWeight:               5,
	}
}
