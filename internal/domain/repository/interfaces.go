package repository

import (
	"context"
	"time"

	"SmartFolio/internal/domain/models"
)

// SessionStore persists analysis sessions and their status transitions.
type SessionStore interface {
	Create(ctx context.Context, session *models.AnalysisSession) error
	Update(ctx context.Context, session *models.AnalysisSession) error
	GetByID(ctx context.Context, id string) (*models.AnalysisSession, error)
	Latest(ctx context.Context, userID string) (*models.AnalysisSession, error)
	List(ctx context.Context, userID string, limit, offset int) ([]models.AnalysisSession, error)
}

// RecommendationStore persists recommendations. SaveBatch is transactional:
// either every recommendation for the user lands or none do.
type RecommendationStore interface {
	SaveBatch(ctx context.Context, recs []models.Recommendation) error
	GetByID(ctx context.Context, id string) (*models.Recommendation, error)
	BySession(ctx context.Context, sessionID string) ([]models.Recommendation, error)
	PendingByUser(ctx context.Context, userID string) ([]models.Recommendation, error)
	UpdateStatus(ctx context.Context, id string, status models.RecommendationStatus) error
	ExpireOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// RiskProfileStore reads and writes user risk configuration. Get must return
// a default profile rather than an error when the user never configured one.
type RiskProfileStore interface {
	Get(ctx context.Context, userID string) (models.RiskProfile, error)
	Put(ctx context.Context, profile models.RiskProfile) error
}

// PortfolioStore supplies the engine's read-only view of user positions.
type PortfolioStore interface {
	Get(ctx context.Context, userID string) (models.Portfolio, error)
	ListUserIDs(ctx context.Context) ([]string, error)
}

// SignalArchive is the append-only store of every advisor signal ever
// fetched, kept for offline analysis of advisor accuracy.
type SignalArchive interface {
	Append(ctx context.Context, signals []models.AdvisorSignal) error
	Close() error
}

// EventPublisher emits session lifecycle and recommendation events to
// downstream consumers.
type EventPublisher interface {
	SessionEvent(ctx context.Context, session models.AnalysisSession) error
	RecommendationEvent(ctx context.Context, rec models.Recommendation) error
	Close() error
}

// Metrics records engine activity for the operational dashboards.
type Metrics interface {
	AdvisorFetch(advisor models.AdvisorType, outcome string, duration time.Duration)
	SignalCacheHit(kind string)
	SessionFinished(status models.SessionStatus, duration time.Duration)
	RecommendationsProduced(action models.ActionType, n int)
}
