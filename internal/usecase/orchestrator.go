package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"SmartFolio/internal/domain/models"
	"SmartFolio/internal/domain/repository"
	"SmartFolio/internal/domain/service"
	"SmartFolio/pkg/cache"
	"SmartFolio/pkg/logger"
	"SmartFolio/pkg/util"
)

var (
	// ErrRunInProgress is returned when a run for the same scope is already
	// active. Overlapping runs are serialized at this boundary.
	ErrRunInProgress = errors.New("analysis run already in progress")

	// ErrNotExecutable is returned when a recommendation is expired or no
	// longer pending.
	ErrNotExecutable = errors.New("recommendation is not executable")
)

// OrchestratorOptions bundles the collaborators and tunables of a
// SessionOrchestrator.
type OrchestratorOptions struct {
	Sessions        repository.SessionStore
	Recommendations repository.RecommendationStore
	Profiles        repository.RiskProfileStore
	Portfolios      repository.PortfolioStore
	Archive         repository.SignalArchive
	Publisher       repository.EventPublisher
	Metrics         repository.Metrics

	Gateways   []service.AdvisorGateway
	Volatility service.VolatilitySource
	Quotes     service.QuoteSource
	Executor   service.TradeExecutor

	Aggregator   *ConsensusAggregator
	ProfitTaking *ProfitTakingDetector
	Ranker       *PriorityRanker

	ReuseCache     cache.Service
	ReuseTTL       time.Duration
	RatePerSecond  float64
	RateBurst      int
	RequestTimeout time.Duration
	UserWorkers    int
	Watchlist      []string

	Logger *logger.Logger
	Now    func() time.Time
}

// SessionOrchestrator drives analysis runs. It owns the run-scoped signal
// cache, evaluates users concurrently, persists each user's results inside
// that user's own transaction, and tracks the session state machine.
type SessionOrchestrator struct {
	opts OrchestratorOptions
	log  *logger.Logger
	now  func() time.Time

	guardMu     sync.Mutex
	activeUsers map[string]struct{}
	batchActive bool
}

func NewSessionOrchestrator(opts OrchestratorOptions) *SessionOrchestrator {
	log := opts.Logger
	if log == nil {
		log = logger.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	workers := opts.UserWorkers
	if workers < 1 {
		workers = 1
	}
	opts.UserWorkers = workers
	return &SessionOrchestrator{
		opts:        opts,
		log:         log,
		now:         now,
		activeUsers: make(map[string]struct{}),
	}
}

// Run executes one analysis run and returns its finished session record.
// Advisor and per-user failures are recorded in the session; only
// orchestration-level faults produce an error and a FAILED session.
func (o *SessionOrchestrator) Run(ctx context.Context, scope models.SessionScope, userID string, dryRun bool) (*models.AnalysisSession, error) {
	if err := o.acquire(scope, userID); err != nil {
		return nil, err
	}
	defer o.release(scope, userID)

	start := o.now()
	session := &models.AnalysisSession{
		ID:        uuid.NewString(),
		Scope:     scope,
		UserID:    userID,
		Status:    models.SessionQueued,
		DryRun:    dryRun,
		StartedAt: start,
	}
	if err := o.opts.Sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	if err := o.runSession(ctx, session); err != nil {
		o.fail(ctx, session, err)
		return session, err
	}

	if err := session.Transition(models.SessionCompleted); err != nil {
		return session, err
	}
	o.finalize(ctx, session, start)
	return session, nil
}

func (o *SessionOrchestrator) runSession(ctx context.Context, session *models.AnalysisSession) error {
	if err := session.Transition(models.SessionRunning); err != nil {
		return err
	}
	if err := o.opts.Sessions.Update(ctx, session); err != nil {
		return fmt.Errorf("update session: %w", err)
	}

	userIDs, err := o.resolveUsers(ctx, session)
	if err != nil {
		return err
	}

	signals := NewSignalCache(SignalCacheOptions{
		Gateways:       o.opts.Gateways,
		RatePerSecond:  o.opts.RatePerSecond,
		Burst:          o.opts.RateBurst,
		Reuse:          o.opts.ReuseCache,
		ReuseTTL:       o.opts.ReuseTTL,
		RequestTimeout: o.opts.RequestTimeout,
		Archive:        o.opts.Archive,
		Metrics:        o.opts.Metrics,
		Logger:         o.log,
	})

	results := make([]models.UserResult, len(userIDs))
	recsByUser := make([][]models.Recommendation, len(userIDs))
	sem := make(chan struct{}, o.opts.UserWorkers)
	var wg sync.WaitGroup
	for i, uid := range userIDs {
		wg.Add(1)
		go func(i int, uid string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i], recsByUser[i] = o.evaluateUser(ctx, session, signals, uid)
		}(i, uid)
	}
	wg.Wait()

	session.UserResults = results
	session.SymbolsAnalyzed = signals.Size()
	var all []models.Recommendation
	for i, r := range results {
		session.TotalRecommendations += r.Recommendations
		session.ExecutedCount += r.Executed
		all = append(all, recsByUser[i]...)
	}
	summary := models.SummarizeRecommendations(all)
	session.Summary = &summary
	return nil
}

func (o *SessionOrchestrator) resolveUsers(ctx context.Context, session *models.AnalysisSession) ([]string, error) {
	if session.Scope == models.ScopeSingleUser {
		return []string{session.UserID}, nil
	}
	userIDs, err := o.opts.Portfolios.ListUserIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	sort.Strings(userIDs)
	return userIDs, nil
}

// evaluateUser runs the full per-user pipeline. Any fault, including a
// panic, is captured in the user's result and never aborts the batch.
func (o *SessionOrchestrator) evaluateUser(ctx context.Context, session *models.AnalysisSession, signals *SignalCache, userID string) (result models.UserResult, recs []models.Recommendation) {
	result.UserID = userID
	defer func() {
		if r := recover(); r != nil {
			result.Error = fmt.Sprintf("panic: %v", r)
			recs = nil
			o.log.Error("user evaluation panicked",
				logger.String("user_id", userID), logger.Any("panic", r))
		}
	}()

	profile, err := o.opts.Profiles.Get(ctx, userID)
	if err != nil {
		result.Error = fmt.Sprintf("load risk profile: %v", err)
		o.log.Warn("user evaluation failed",
			logger.String("user_id", userID), logger.Error(err))
		return result, nil
	}
	portfolio, err := o.opts.Portfolios.Get(ctx, userID)
	if err != nil {
		result.Error = fmt.Sprintf("load portfolio: %v", err)
		o.log.Warn("user evaluation failed",
			logger.String("user_id", userID), logger.Error(err))
		return result, nil
	}

	recs, err = o.analyzeUser(ctx, session, signals, profile, portfolio)
	if err != nil {
		result.Error = err.Error()
		o.log.Warn("user evaluation failed",
			logger.String("user_id", userID), logger.Error(err))
		return result, nil
	}

	if !session.DryRun && len(recs) > 0 {
		if err := o.opts.Recommendations.SaveBatch(ctx, recs); err != nil {
			result.Error = fmt.Sprintf("persist recommendations: %v", err)
			return result, nil
		}
		o.publishRecommendations(ctx, recs)
		if profile.AutoExecuteTrades {
			result.Executed = o.autoExecute(ctx, recs)
		}
	}

	result.Recommendations = len(recs)
	return result, recs
}

// autoExecute carries out a user's freshly persisted buy and sell
// recommendations when the profile opts in. Individual failures are logged
// and skipped; holds have nothing to execute.
func (o *SessionOrchestrator) autoExecute(ctx context.Context, recs []models.Recommendation) int {
	executed := 0
	for i := range recs {
		rec := &recs[i]
		if rec.Action == models.ActionHold {
			continue
		}
		if err := o.opts.Executor.Execute(ctx, *rec); err != nil {
			o.log.Warn("auto-execute failed",
				logger.String("recommendation_id", rec.ID),
				logger.String("symbol", rec.Symbol),
				logger.Error(err))
			continue
		}
		if err := o.opts.Recommendations.UpdateStatus(ctx, rec.ID, models.StatusExecuted); err != nil {
			o.log.Error("recommendation status update failed",
				logger.String("recommendation_id", rec.ID), logger.Error(err))
			continue
		}
		rec.Status = models.StatusExecuted
		executed++
	}
	return executed
}

func (o *SessionOrchestrator) analyzeUser(ctx context.Context, session *models.AnalysisSession, signals *SignalCache, profile models.RiskProfile, portfolio models.Portfolio) ([]models.Recommendation, error) {
	symbols := o.universe(portfolio)
	evaluator := NewRiskProfileEvaluator(profile, portfolio, o.opts.Quotes)

	var candidates []models.Candidate
	now := o.now()
	for _, symbol := range symbols {
		sigs, err := signals.GetOrFetch(ctx, symbol)
		if err != nil {
			return nil, err
		}
		consensus, ok := o.opts.Aggregator.Aggregate(symbol, sigs, now)
		if !ok {
			continue
		}
		if cand, ok := evaluator.Evaluate(ctx, consensus); ok {
			candidates = append(candidates, cand)
		}
	}

	candidates = append(candidates, o.opts.ProfitTaking.Scan(ctx, profile, portfolio)...)
	return o.opts.Ranker.Rank(candidates, portfolio, session.ID, now), nil
}

// universe is the sorted, deduplicated set of symbols analyzed for a user:
// everything held plus the configured watchlist.
func (o *SessionOrchestrator) universe(portfolio models.Portfolio) []string {
	symbols := make([]string, 0, len(portfolio.Holdings)+len(o.opts.Watchlist))
	for _, h := range portfolio.Holdings {
		symbols = append(symbols, h.Symbol)
	}
	symbols = append(symbols, o.opts.Watchlist...)
	return util.NormalizeSymbols(symbols)
}

func (o *SessionOrchestrator) finalize(ctx context.Context, session *models.AnalysisSession, start time.Time) {
	end := o.now()
	session.CompletedAt = &end
	session.ProcessingTime = end.Sub(start).Seconds()

	if err := o.opts.Sessions.Update(ctx, session); err != nil {
		o.log.Error("session update failed",
			logger.String("session_id", session.ID), logger.Error(err))
	}
	if o.opts.Metrics != nil {
		o.opts.Metrics.SessionFinished(session.Status, end.Sub(start))
	}
	if o.opts.Publisher != nil {
		if err := o.opts.Publisher.SessionEvent(ctx, *session); err != nil {
			o.log.Warn("session event publish failed", logger.Error(err))
		}
	}

	succeeded, failed := session.UserOutcomes()
	o.log.Info("analysis run finished",
		logger.String("session_id", session.ID),
		logger.String("status", string(session.Status)),
		logger.Int("users_ok", succeeded),
		logger.Int("users_failed", failed),
		logger.Int("symbols", session.SymbolsAnalyzed),
		logger.Int("recommendations", session.TotalRecommendations),
		logger.Duration("took", end.Sub(start)))
}

func (o *SessionOrchestrator) fail(ctx context.Context, session *models.AnalysisSession, cause error) {
	session.Error = cause.Error()
	if session.Status.CanTransitionTo(models.SessionFailed) {
		_ = session.Transition(models.SessionFailed)
	}
	o.finalize(ctx, session, session.StartedAt)
}

func (o *SessionOrchestrator) publishRecommendations(ctx context.Context, recs []models.Recommendation) {
	if o.opts.Publisher == nil {
		return
	}
	for _, rec := range recs {
		if err := o.opts.Publisher.RecommendationEvent(ctx, rec); err != nil {
			o.log.Warn("recommendation event publish failed",
				logger.String("recommendation_id", rec.ID), logger.Error(err))
		}
	}
	if o.opts.Metrics != nil {
		byAction := make(map[models.ActionType]int)
		for _, rec := range recs {
			byAction[rec.Action]++
		}
		for action, n := range byAction {
			o.opts.Metrics.RecommendationsProduced(action, n)
		}
	}
}

// Execute carries out a pending recommendation via the trade executor and
// marks it EXECUTED. Expired or already-settled recommendations are
// rejected.
func (o *SessionOrchestrator) Execute(ctx context.Context, recommendationID string) (*models.Recommendation, error) {
	rec, err := o.opts.Recommendations.GetByID(ctx, recommendationID)
	if err != nil {
		return nil, err
	}
	if !rec.Executable(o.now()) {
		return nil, ErrNotExecutable
	}
	if err := o.opts.Executor.Execute(ctx, *rec); err != nil {
		return nil, fmt.Errorf("execute trade: %w", err)
	}
	if err := o.opts.Recommendations.UpdateStatus(ctx, rec.ID, models.StatusExecuted); err != nil {
		return nil, err
	}
	rec.Status = models.StatusExecuted

	if session, err := o.opts.Sessions.GetByID(ctx, rec.SessionID); err == nil {
		session.ExecutedCount++
		if err := o.opts.Sessions.Update(ctx, session); err != nil {
			o.log.Warn("session executed-count update failed",
				logger.String("session_id", session.ID), logger.Error(err))
		}
	}
	return rec, nil
}

// ExpireStale marks recommendations past their expiry as EXPIRED and
// returns how many were swept.
func (o *SessionOrchestrator) ExpireStale(ctx context.Context) (int64, error) {
	return o.opts.Recommendations.ExpireOlderThan(ctx, o.now())
}

// acquire serializes runs: one batch run at a time, and at most one run per
// user. A batch run excludes all single-user runs and vice versa.
func (o *SessionOrchestrator) acquire(scope models.SessionScope, userID string) error {
	o.guardMu.Lock()
	defer o.guardMu.Unlock()

	if o.batchActive {
		return ErrRunInProgress
	}
	if scope == models.ScopeAllUsers {
		if len(o.activeUsers) > 0 {
			return ErrRunInProgress
		}
		o.batchActive = true
		return nil
	}
	if _, ok := o.activeUsers[userID]; ok {
		return ErrRunInProgress
	}
	o.activeUsers[userID] = struct{}{}
	return nil
}

func (o *SessionOrchestrator) release(scope models.SessionScope, userID string) {
	o.guardMu.Lock()
	defer o.guardMu.Unlock()
	if scope == models.ScopeAllUsers {
		o.batchActive = false
		return
	}
	delete(o.activeUsers, userID)
}
