package repository

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"SmartFolio/internal/domain/models"
)

// ErrNotFound is returned when a record does not exist in any store.
var ErrNotFound = errors.New("record not found")

// MemorySessionStore keeps sessions in process memory. Used in tests and
// for local development without Postgres.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]models.AnalysisSession
	order    []string
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]models.AnalysisSession)}
}

func (s *MemorySessionStore) Create(_ context.Context, session *models.AnalysisSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = *session
	s.order = append(s.order, session.ID)
	return nil
}

func (s *MemorySessionStore) Update(_ context.Context, session *models.AnalysisSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[session.ID]; !ok {
		return ErrNotFound
	}
	s.sessions[session.ID] = *session
	return nil
}

func (s *MemorySessionStore) GetByID(_ context.Context, id string) (*models.AnalysisSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &session, nil
}

func (s *MemorySessionStore) Latest(_ context.Context, userID string) (*models.AnalysisSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.order) - 1; i >= 0; i-- {
		session := s.sessions[s.order[i]]
		if session.Scope == models.ScopeAllUsers || session.UserID == userID {
			return &session, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemorySessionStore) List(_ context.Context, userID string, limit, offset int) ([]models.AnalysisSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.AnalysisSession
	for i := len(s.order) - 1; i >= 0; i-- {
		session := s.sessions[s.order[i]]
		if session.Scope == models.ScopeAllUsers || session.UserID == userID {
			out = append(out, session)
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// MemoryRecommendationStore keeps recommendations in process memory.
// SaveBatch is atomic under the store lock.
type MemoryRecommendationStore struct {
	mu   sync.RWMutex
	recs map[string]models.Recommendation
}

func NewMemoryRecommendationStore() *MemoryRecommendationStore {
	return &MemoryRecommendationStore{recs: make(map[string]models.Recommendation)}
}

func (s *MemoryRecommendationStore) SaveBatch(_ context.Context, recs []models.Recommendation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range recs {
		s.recs[rec.ID] = rec
	}
	return nil
}

func (s *MemoryRecommendationStore) GetByID(_ context.Context, id string) (*models.Recommendation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.recs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &rec, nil
}

func (s *MemoryRecommendationStore) BySession(_ context.Context, sessionID string) ([]models.Recommendation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Recommendation
	for _, rec := range s.recs {
		if rec.SessionID == sessionID {
			out = append(out, rec)
		}
	}
	sortRecommendations(out)
	return out, nil
}

func (s *MemoryRecommendationStore) PendingByUser(_ context.Context, userID string) ([]models.Recommendation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Recommendation
	for _, rec := range s.recs {
		if rec.UserID == userID && rec.Status == models.StatusPending {
			out = append(out, rec)
		}
	}
	sortRecommendations(out)
	return out, nil
}

func (s *MemoryRecommendationStore) UpdateStatus(_ context.Context, id string, status models.RecommendationStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.recs[id]
	if !ok {
		return ErrNotFound
	}
	rec.Status = status
	s.recs[id] = rec
	return nil
}

func (s *MemoryRecommendationStore) ExpireOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, rec := range s.recs {
		if rec.Status == models.StatusPending && cutoff.After(rec.ExpiresAt) {
			rec.Status = models.StatusExpired
			s.recs[id] = rec
			n++
		}
	}
	return n, nil
}

func sortRecommendations(recs []models.Recommendation) {
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].PriorityScore != recs[j].PriorityScore {
			return recs[i].PriorityScore > recs[j].PriorityScore
		}
		return recs[i].Symbol < recs[j].Symbol
	})
}

// MemoryRiskProfileStore keeps profiles in memory and hands out the default
// profile for users who never configured one.
type MemoryRiskProfileStore struct {
	mu       sync.RWMutex
	profiles map[string]models.RiskProfile
}

func NewMemoryRiskProfileStore() *MemoryRiskProfileStore {
	return &MemoryRiskProfileStore{profiles: make(map[string]models.RiskProfile)}
}

func (s *MemoryRiskProfileStore) Get(_ context.Context, userID string) (models.RiskProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if profile, ok := s.profiles[userID]; ok {
		return profile, nil
	}
	return models.DefaultRiskProfile(userID), nil
}

func (s *MemoryRiskProfileStore) Put(_ context.Context, profile models.RiskProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[profile.UserID] = profile
	return nil
}

// MemoryPortfolioStore serves fixed portfolio snapshots.
type MemoryPortfolioStore struct {
	mu         sync.RWMutex
	portfolios map[string]models.Portfolio
}

func NewMemoryPortfolioStore() *MemoryPortfolioStore {
	return &MemoryPortfolioStore{portfolios: make(map[string]models.Portfolio)}
}

func (s *MemoryPortfolioStore) Put(portfolio models.Portfolio) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.portfolios[portfolio.UserID] = portfolio
}

func (s *MemoryPortfolioStore) Get(_ context.Context, userID string) (models.Portfolio, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	portfolio, ok := s.portfolios[userID]
	if !ok {
		return models.Portfolio{}, ErrNotFound
	}
	return portfolio, nil
}

func (s *MemoryPortfolioStore) ListUserIDs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.portfolios))
	for id := range s.portfolios {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
