package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"SmartFolio/internal/domain/models"
)

// AutoMigrate creates or updates every table the engine persists to.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&sessionRow{},
		&recommendationRow{},
		&riskProfileRow{},
		&portfolioRow{},
		&holdingRow{},
	)
}

type sessionRow struct {
	ID              string `gorm:"primaryKey;size:36"`
	Scope           string `gorm:"size:16;index"`
	UserID          string `gorm:"size:64;index"`
	Status          string `gorm:"size:16"`
	DryRun          bool
	StartedAt       time.Time `gorm:"index"`
	CompletedAt     *time.Time
	ProcessingTime  float64
	SymbolsAnalyzed int
	TotalRecs       int
	ExecutedRecs    int
	Summary         string `gorm:"type:text"`
	UserResults     string `gorm:"type:text"`
	Error           string `gorm:"type:text"`
}

func (sessionRow) TableName() string { return "analysis_sessions" }

func sessionToRow(s *models.AnalysisSession) (*sessionRow, error) {
	results, err := json.Marshal(s.UserResults)
	if err != nil {
		return nil, fmt.Errorf("marshal user results: %w", err)
	}
	var summary []byte
	if s.Summary != nil {
		if summary, err = json.Marshal(s.Summary); err != nil {
			return nil, fmt.Errorf("marshal summary: %w", err)
		}
	}
	return &sessionRow{
		ID:              s.ID,
		Scope:           string(s.Scope),
		UserID:          s.UserID,
		Status:          string(s.Status),
		DryRun:          s.DryRun,
		StartedAt:       s.StartedAt,
		CompletedAt:     s.CompletedAt,
		ProcessingTime:  s.ProcessingTime,
		SymbolsAnalyzed: s.SymbolsAnalyzed,
		TotalRecs:       s.TotalRecommendations,
		ExecutedRecs:    s.ExecutedCount,
		Summary:         string(summary),
		UserResults:     string(results),
		Error:           s.Error,
	}, nil
}

func (r *sessionRow) toModel() (models.AnalysisSession, error) {
	var results []models.UserResult
	if r.UserResults != "" {
		if err := json.Unmarshal([]byte(r.UserResults), &results); err != nil {
			return models.AnalysisSession{}, fmt.Errorf("unmarshal user results: %w", err)
		}
	}
	var summary *models.SessionSummary
	if r.Summary != "" {
		summary = &models.SessionSummary{}
		if err := json.Unmarshal([]byte(r.Summary), summary); err != nil {
			return models.AnalysisSession{}, fmt.Errorf("unmarshal summary: %w", err)
		}
	}
	return models.AnalysisSession{
		ID:                   r.ID,
		Scope:                models.SessionScope(r.Scope),
		UserID:               r.UserID,
		Status:               models.SessionStatus(r.Status),
		DryRun:               r.DryRun,
		StartedAt:            r.StartedAt,
		CompletedAt:          r.CompletedAt,
		ProcessingTime:       r.ProcessingTime,
		SymbolsAnalyzed:      r.SymbolsAnalyzed,
		TotalRecommendations: r.TotalRecs,
		ExecutedCount:        r.ExecutedRecs,
		Summary:              summary,
		UserResults:          results,
		Error:                r.Error,
	}, nil
}

// PostgresSessionStore persists sessions through gorm.
type PostgresSessionStore struct {
	db *gorm.DB
}

func NewPostgresSessionStore(db *gorm.DB) *PostgresSessionStore {
	return &PostgresSessionStore{db: db}
}

func (s *PostgresSessionStore) Create(ctx context.Context, session *models.AnalysisSession) error {
	row, err := sessionToRow(session)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Create(row).Error
}

func (s *PostgresSessionStore) Update(ctx context.Context, session *models.AnalysisSession) error {
	row, err := sessionToRow(session)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Save(row).Error
}

func (s *PostgresSessionStore) GetByID(ctx context.Context, id string) (*models.AnalysisSession, error) {
	var row sessionRow
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	session, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *PostgresSessionStore) Latest(ctx context.Context, userID string) (*models.AnalysisSession, error) {
	var row sessionRow
	err := s.db.WithContext(ctx).
		Where("user_id = ? OR scope = ?", userID, string(models.ScopeAllUsers)).
		Order("started_at DESC").
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	session, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *PostgresSessionStore) List(ctx context.Context, userID string, limit, offset int) ([]models.AnalysisSession, error) {
	var rows []sessionRow
	err := s.db.WithContext(ctx).
		Where("user_id = ? OR scope = ?", userID, string(models.ScopeAllUsers)).
		Order("started_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	sessions := make([]models.AnalysisSession, 0, len(rows))
	for _, row := range rows {
		session, err := row.toModel()
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

type recommendationRow struct {
	ID            string `gorm:"primaryKey;size:36"`
	SessionID     string `gorm:"size:36;index"`
	UserID        string `gorm:"size:64;index"`
	Symbol        string `gorm:"size:16;index"`
	Action        string `gorm:"size:8"`
	PriorityScore float64
	Confidence    float64
	Shares        int64
	CashAllocated decimal.Decimal     `gorm:"type:numeric(18,4)"`
	CurrentPrice  decimal.Decimal     `gorm:"type:numeric(18,4)"`
	TargetPrice   decimal.NullDecimal `gorm:"type:numeric(18,4)"`
	StopLoss      decimal.NullDecimal `gorm:"type:numeric(18,4)"`
	Reasoning     string              `gorm:"type:text"`
	KeyFactors    string              `gorm:"type:text"`
	RiskFactors   string              `gorm:"type:text"`
	Status        string              `gorm:"size:16;index"`
	CreatedAt     time.Time
	ExpiresAt     time.Time `gorm:"index"`
}

func (recommendationRow) TableName() string { return "recommendations" }

func recommendationToRow(rec models.Recommendation) (*recommendationRow, error) {
	key, err := json.Marshal(rec.KeyFactors)
	if err != nil {
		return nil, err
	}
	risk, err := json.Marshal(rec.RiskFactors)
	if err != nil {
		return nil, err
	}
	return &recommendationRow{
		ID:            rec.ID,
		SessionID:     rec.SessionID,
		UserID:        rec.UserID,
		Symbol:        rec.Symbol,
		Action:        string(rec.Action),
		PriorityScore: rec.PriorityScore,
		Confidence:    rec.Confidence,
		Shares:        rec.Shares,
		CashAllocated: rec.CashAllocated,
		CurrentPrice:  rec.CurrentPrice,
		TargetPrice:   rec.TargetPrice,
		StopLoss:      rec.StopLoss,
		Reasoning:     rec.Reasoning,
		KeyFactors:    string(key),
		RiskFactors:   string(risk),
		Status:        string(rec.Status),
		CreatedAt:     rec.CreatedAt,
		ExpiresAt:     rec.ExpiresAt,
	}, nil
}

func (r *recommendationRow) toModel() (models.Recommendation, error) {
	var key, risk []string
	if r.KeyFactors != "" {
		if err := json.Unmarshal([]byte(r.KeyFactors), &key); err != nil {
			return models.Recommendation{}, err
		}
	}
	if r.RiskFactors != "" {
		if err := json.Unmarshal([]byte(r.RiskFactors), &risk); err != nil {
			return models.Recommendation{}, err
		}
	}
	return models.Recommendation{
		ID:            r.ID,
		SessionID:     r.SessionID,
		UserID:        r.UserID,
		Symbol:        r.Symbol,
		Action:        models.ActionType(r.Action),
		PriorityScore: r.PriorityScore,
		Confidence:    r.Confidence,
		Shares:        r.Shares,
		CashAllocated: r.CashAllocated,
		CurrentPrice:  r.CurrentPrice,
		TargetPrice:   r.TargetPrice,
		StopLoss:      r.StopLoss,
		Reasoning:     r.Reasoning,
		KeyFactors:    key,
		RiskFactors:   risk,
		Status:        models.RecommendationStatus(r.Status),
		CreatedAt:     r.CreatedAt,
		ExpiresAt:     r.ExpiresAt,
	}, nil
}

// PostgresRecommendationStore persists recommendations. SaveBatch wraps the
// whole batch in one transaction so a user's results land atomically.
type PostgresRecommendationStore struct {
	db *gorm.DB
}

func NewPostgresRecommendationStore(db *gorm.DB) *PostgresRecommendationStore {
	return &PostgresRecommendationStore{db: db}
}

func (s *PostgresRecommendationStore) SaveBatch(ctx context.Context, recs []models.Recommendation) error {
	if len(recs) == 0 {
		return nil
	}
	rows := make([]*recommendationRow, 0, len(recs))
	for _, rec := range recs {
		row, err := recommendationToRow(rec)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(rows).Error
	})
}

func (s *PostgresRecommendationStore) GetByID(ctx context.Context, id string) (*models.Recommendation, error) {
	var row recommendationRow
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	rec, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *PostgresRecommendationStore) BySession(ctx context.Context, sessionID string) ([]models.Recommendation, error) {
	return s.find(ctx, s.db.Where("session_id = ?", sessionID).Order("priority_score DESC, symbol ASC"))
}

func (s *PostgresRecommendationStore) PendingByUser(ctx context.Context, userID string) ([]models.Recommendation, error) {
	return s.find(ctx, s.db.
		Where("user_id = ? AND status = ?", userID, string(models.StatusPending)).
		Order("priority_score DESC, symbol ASC"))
}

func (s *PostgresRecommendationStore) find(ctx context.Context, query *gorm.DB) ([]models.Recommendation, error) {
	var rows []recommendationRow
	if err := query.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	recs := make([]models.Recommendation, 0, len(rows))
	for _, row := range rows {
		rec, err := row.toModel()
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

func (s *PostgresRecommendationStore) UpdateStatus(ctx context.Context, id string, status models.RecommendationStatus) error {
	result := s.db.WithContext(ctx).
		Model(&recommendationRow{}).
		Where("id = ?", id).
		Update("status", string(status))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresRecommendationStore) ExpireOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := s.db.WithContext(ctx).
		Model(&recommendationRow{}).
		Where("status = ? AND expires_at < ?", string(models.StatusPending), cutoff).
		Update("status", string(models.StatusExpired))
	return result.RowsAffected, result.Error
}

type riskProfileRow struct {
	UserID                   string `gorm:"primaryKey;size:64"`
	Level                    string `gorm:"size:16"`
	BuyConfidenceThreshold   float64
	SellHoldThreshold        float64
	MaxPositions             int
	ProfitTakingEnabled      bool
	ProfitTakingThresholdPct float64
	VolatilityThresholdPct   float64
	SellWeight               float64
	AutoExecuteTrades        bool
	UpdatedAt                time.Time
}

func (riskProfileRow) TableName() string { return "risk_profiles" }

// PostgresRiskProfileStore stores per-user risk configuration. Users
// without a row get the default profile.
type PostgresRiskProfileStore struct {
	db *gorm.DB
}

func NewPostgresRiskProfileStore(db *gorm.DB) *PostgresRiskProfileStore {
	return &PostgresRiskProfileStore{db: db}
}

func (s *PostgresRiskProfileStore) Get(ctx context.Context, userID string) (models.RiskProfile, error) {
	var row riskProfileRow
	err := s.db.WithContext(ctx).First(&row, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.DefaultRiskProfile(userID), nil
	}
	if err != nil {
		return models.RiskProfile{}, err
	}
	return models.RiskProfile{
		UserID:                   row.UserID,
		Level:                    models.ProfileRiskLevel(row.Level),
		BuyConfidenceThreshold:   row.BuyConfidenceThreshold,
		SellHoldThreshold:        row.SellHoldThreshold,
		MaxPositions:             row.MaxPositions,
		ProfitTakingEnabled:      row.ProfitTakingEnabled,
		ProfitTakingThresholdPct: row.ProfitTakingThresholdPct,
		VolatilityThresholdPct:   row.VolatilityThresholdPct,
		SellWeight:               row.SellWeight,
		AutoExecuteTrades:        row.AutoExecuteTrades,
	}, nil
}

func (s *PostgresRiskProfileStore) Put(ctx context.Context, profile models.RiskProfile) error {
	row := riskProfileRow{
		UserID:                   profile.UserID,
		Level:                    string(profile.Level),
		BuyConfidenceThreshold:   profile.BuyConfidenceThreshold,
		SellHoldThreshold:        profile.SellHoldThreshold,
		MaxPositions:             profile.MaxPositions,
		ProfitTakingEnabled:      profile.ProfitTakingEnabled,
		ProfitTakingThresholdPct: profile.ProfitTakingThresholdPct,
		VolatilityThresholdPct:   profile.VolatilityThresholdPct,
		SellWeight:               profile.SellWeight,
		AutoExecuteTrades:        profile.AutoExecuteTrades,
	}
	return s.db.WithContext(ctx).Save(&row).Error
}

type portfolioRow struct {
	UserID        string          `gorm:"primaryKey;size:64"`
	AvailableCash decimal.Decimal `gorm:"type:numeric(18,4)"`
	UpdatedAt     time.Time
}

func (portfolioRow) TableName() string { return "portfolios" }

type holdingRow struct {
	UserID       string          `gorm:"primaryKey;size:64"`
	Symbol       string          `gorm:"primaryKey;size:16"`
	Quantity     int64
	AveragePrice decimal.Decimal `gorm:"type:numeric(18,4)"`
	CurrentPrice decimal.Decimal `gorm:"type:numeric(18,4)"`
	UpdatedAt    time.Time
}

func (holdingRow) TableName() string { return "holdings" }

// PostgresPortfolioStore reads portfolio snapshots for the engine and
// applies executed trades.
type PostgresPortfolioStore struct {
	db *gorm.DB
}

func NewPostgresPortfolioStore(db *gorm.DB) *PostgresPortfolioStore {
	return &PostgresPortfolioStore{db: db}
}

func (s *PostgresPortfolioStore) Get(ctx context.Context, userID string) (models.Portfolio, error) {
	var row portfolioRow
	if err := s.db.WithContext(ctx).First(&row, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Portfolio{}, ErrNotFound
		}
		return models.Portfolio{}, err
	}

	var holdingRows []holdingRow
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND quantity > 0", userID).
		Order("symbol ASC").
		Find(&holdingRows).Error; err != nil {
		return models.Portfolio{}, err
	}

	holdings := make([]models.Holding, 0, len(holdingRows))
	for _, h := range holdingRows {
		holdings = append(holdings, models.Holding{
			Symbol:       h.Symbol,
			Quantity:     h.Quantity,
			AveragePrice: h.AveragePrice,
			CurrentPrice: h.CurrentPrice,
		})
	}
	return models.Portfolio{
		UserID:        userID,
		AvailableCash: row.AvailableCash,
		Holdings:      holdings,
	}, nil
}

func (s *PostgresPortfolioStore) ListUserIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).
		Model(&portfolioRow{}).
		Order("user_id ASC").
		Pluck("user_id", &ids).Error
	return ids, err
}
