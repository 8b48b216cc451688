package models

// RunAnalysisRequest starts an analysis run over one user or all users.
type RunAnalysisRequest struct {
	Scope  SessionScope `json:"scope" validate:"required,oneof=SINGLE_USER ALL_USERS"`
	UserID string       `json:"user_id" validate:"required_if=Scope SINGLE_USER"`
	DryRun bool         `json:"dry_run"`
}

// RunAnalysisResponse reports the session an accepted run is tracked under.
type RunAnalysisResponse struct {
	Session AnalysisSession `json:"session"`
}

// ListSessionsRequest pages through a user's session history.
type ListSessionsRequest struct {
	UserID string `query:"user_id" validate:"required"`
	Limit  int    `query:"limit" validate:"omitempty,min=1,max=100" default:"20"`
	Offset int    `query:"offset" validate:"omitempty,min=0"`
}

// SessionDetailResponse pairs a session with its recommendations.
type SessionDetailResponse struct {
	Session         AnalysisSession  `json:"session"`
	Recommendations []Recommendation `json:"recommendations"`
}

// UpdateRiskProfileRequest replaces a user's risk configuration.
type UpdateRiskProfileRequest struct {
	Level                    ProfileRiskLevel `json:"level" validate:"required,oneof=CONSERVATIVE MODERATE AGGRESSIVE"`
	BuyConfidenceThreshold   float64          `json:"buy_confidence_threshold" validate:"gte=0,lte=1"`
	SellHoldThreshold        float64          `json:"sell_hold_threshold" validate:"gte=0,lte=1"`
	MaxPositions             int              `json:"max_positions" validate:"min=1,max=200" default:"20"`
	ProfitTakingEnabled      bool             `json:"profit_taking_enabled"`
	ProfitTakingThresholdPct float64          `json:"profit_taking_threshold_pct" validate:"gte=0" default:"10"`
	VolatilityThresholdPct   float64          `json:"volatility_threshold_pct" validate:"gte=0" default:"20"`
	SellWeight               float64          `json:"sell_weight" validate:"gte=0,lte=10" default:"5"`
	AutoExecuteTrades        bool             `json:"auto_execute_trades"`
}
