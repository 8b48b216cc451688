package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SmartFolio/internal/domain/models"
	domainrepo "SmartFolio/internal/domain/repository"
	"SmartFolio/internal/domain/service"
	"SmartFolio/internal/repository"
)

type orchestratorFixture struct {
	orchestrator *SessionOrchestrator
	sessions     *repository.MemorySessionStore
	recs         *repository.MemoryRecommendationStore
	profiles     *repository.MemoryRiskProfileStore
	portfolios   *repository.MemoryPortfolioStore
	gateway      *fakeGateway
	executor     *countingExecutor
}

func newFixture(t *testing.T, gateway *fakeGateway) *orchestratorFixture {
	t.Helper()
	f := &orchestratorFixture{
		sessions:   repository.NewMemorySessionStore(),
		recs:       repository.NewMemoryRecommendationStore(),
		profiles:   repository.NewMemoryRiskProfileStore(),
		portfolios: repository.NewMemoryPortfolioStore(),
		gateway:    gateway,
		executor:   &countingExecutor{},
	}
	f.orchestrator = NewSessionOrchestrator(OrchestratorOptions{
		Sessions:        f.sessions,
		Recommendations: f.recs,
		Profiles:        f.profiles,
		Portfolios:      f.portfolios,
		Gateways:        []service.AdvisorGateway{gateway},
		Volatility:      fixedVolatility{pct: 15},
		Quotes:          fixedQuotes{price: decimal.NewFromInt(100)},
		Executor:        f.executor,
		Aggregator:      NewConsensusAggregator(nil),
		ProfitTaking: NewProfitTakingDetector(ProfitTakingOptions{
			Volatility:        fixedVolatility{pct: 15},
			ModerateGainPct:   10,
			StrongGainPct:     20,
			ModerateSellRatio: 0.25,
			StrongSellRatio:   0.50,
		}),
		Ranker:         defaultRanker(),
		RatePerSecond:  1000,
		RateBurst:      1000,
		RequestTimeout: time.Second,
		UserWorkers:    4,
	})
	return f
}

func nvdaGateway() *fakeGateway {
	return newFakeGateway(models.AdvisorFMP, map[string][]models.AdvisorSignal{
		"NVDA": {signal(models.AdvisorFMP, "NVDA", models.SignalStrongBuy, models.ConfidenceVeryHigh, 0.9)},
	})
}

func nvdaPortfolio(userID string) models.Portfolio {
	return models.Portfolio{
		UserID:        userID,
		AvailableCash: decimal.NewFromInt(10000),
		Holdings:      []models.Holding{holding("NVDA", 10, 100, 120)},
	}
}

func TestBatchRunFetchesSharedSymbolOnce(t *testing.T) {
	f := newFixture(t, nvdaGateway())
	for _, uid := range []string{"u1", "u2", "u3"} {
		f.portfolios.Put(nvdaPortfolio(uid))
	}

	session, err := f.orchestrator.Run(context.Background(), models.ScopeAllUsers, "", false)
	require.NoError(t, err)

	assert.Equal(t, models.SessionCompleted, session.Status)
	assert.Equal(t, 1, f.gateway.fetchCount("NVDA"),
		"three users holding NVDA must share a single external fetch")
	assert.Equal(t, 1, session.SymbolsAnalyzed)
	assert.Len(t, session.UserResults, 3)
}

func TestSingleUserRunProducesRecommendations(t *testing.T) {
	f := newFixture(t, nvdaGateway())
	f.portfolios.Put(nvdaPortfolio("u1"))

	session, err := f.orchestrator.Run(context.Background(), models.ScopeSingleUser, "u1", false)
	require.NoError(t, err)

	assert.Equal(t, models.SessionCompleted, session.Status)
	assert.Greater(t, session.TotalRecommendations, 0)

	persisted, err := f.recs.BySession(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Len(t, persisted, session.TotalRecommendations)
	for _, rec := range persisted {
		assert.Equal(t, models.StatusPending, rec.Status)
		assert.True(t, rec.ExpiresAt.After(rec.CreatedAt))
	}
}

func TestDryRunPersistsNothing(t *testing.T) {
	f := newFixture(t, nvdaGateway())
	f.portfolios.Put(nvdaPortfolio("u1"))

	session, err := f.orchestrator.Run(context.Background(), models.ScopeSingleUser, "u1", true)
	require.NoError(t, err)

	assert.True(t, session.DryRun)
	assert.Greater(t, session.TotalRecommendations, 0)

	persisted, err := f.recs.BySession(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Empty(t, persisted, "dry run must not commit recommendations")
}

func TestUserFailureDoesNotAbortBatch(t *testing.T) {
	f := newFixture(t, nvdaGateway())
	f.portfolios.Put(nvdaPortfolio("u1"))
	f.portfolios.Put(nvdaPortfolio("u3"))
	// u2 has no portfolio record, its evaluation fails

	session := mustRunUsers(t, f, []string{"u1", "u2", "u3"})

	assert.Equal(t, models.SessionCompleted, session.Status)
	succeeded, failed := session.UserOutcomes()
	assert.Equal(t, 2, succeeded)
	assert.Equal(t, 1, failed)
	for _, r := range session.UserResults {
		if r.UserID == "u2" {
			assert.NotEmpty(t, r.Error)
		}
	}
}

// mustRunUsers runs an ALL_USERS session over the given users. Users without
// a portfolio are injected as bare IDs through a wrapping store.
func mustRunUsers(t *testing.T, f *orchestratorFixture, userIDs []string) *models.AnalysisSession {
	t.Helper()
	f.orchestrator.opts.Portfolios = fixedUserList{
		PortfolioStore: f.portfolios,
		ids:            userIDs,
	}
	session, err := f.orchestrator.Run(context.Background(), models.ScopeAllUsers, "", false)
	require.NoError(t, err)
	return session
}

type fixedUserList struct {
	domainrepo.PortfolioStore
	ids []string
}

func (f fixedUserList) ListUserIDs(context.Context) ([]string, error) {
	return f.ids, nil
}

func TestRunGuardSerializesOverlappingRuns(t *testing.T) {
	f := newFixture(t, nvdaGateway())
	o := f.orchestrator

	// same user twice
	require.NoError(t, o.acquire(models.ScopeSingleUser, "u1"))
	assert.ErrorIs(t, o.acquire(models.ScopeSingleUser, "u1"), ErrRunInProgress)

	// a different user may run concurrently
	require.NoError(t, o.acquire(models.ScopeSingleUser, "u2"))

	// a batch run is excluded while any single-user run is active
	assert.ErrorIs(t, o.acquire(models.ScopeAllUsers, ""), ErrRunInProgress)

	o.release(models.ScopeSingleUser, "u1")
	o.release(models.ScopeSingleUser, "u2")

	// and excludes single-user runs while it is active
	require.NoError(t, o.acquire(models.ScopeAllUsers, ""))
	assert.ErrorIs(t, o.acquire(models.ScopeSingleUser, "u1"), ErrRunInProgress)
	o.release(models.ScopeAllUsers, "")

	require.NoError(t, o.acquire(models.ScopeSingleUser, "u1"))
	o.release(models.ScopeSingleUser, "u1")
}

func TestSessionStatusMonotonic(t *testing.T) {
	s := &models.AnalysisSession{ID: "s1", Status: models.SessionQueued}

	require.NoError(t, s.Transition(models.SessionRunning))
	require.NoError(t, s.Transition(models.SessionCompleted))

	assert.Error(t, s.Transition(models.SessionRunning), "terminal session must not re-enter RUNNING")
	assert.Error(t, s.Transition(models.SessionFailed))
}

func TestExecuteRecommendation(t *testing.T) {
	f := newFixture(t, nvdaGateway())
	f.portfolios.Put(nvdaPortfolio("u1"))

	session, err := f.orchestrator.Run(context.Background(), models.ScopeSingleUser, "u1", false)
	require.NoError(t, err)
	recs, err := f.recs.BySession(context.Background(), session.ID)
	require.NoError(t, err)
	require.NotEmpty(t, recs)

	executed, err := f.orchestrator.Execute(context.Background(), recs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusExecuted, executed.Status)
	assert.EqualValues(t, 1, f.executor.executed.Load())

	stored, err := f.sessions.GetByID(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.ExecutedCount)

	// a settled recommendation cannot be executed twice
	_, err = f.orchestrator.Execute(context.Background(), recs[0].ID)
	assert.ErrorIs(t, err, ErrNotExecutable)
}

func TestAutoExecuteRunsTrades(t *testing.T) {
	f := newFixture(t, nvdaGateway())
	f.portfolios.Put(nvdaPortfolio("u1"))
	profile := models.DefaultRiskProfile("u1")
	profile.AutoExecuteTrades = true
	require.NoError(t, f.profiles.Put(context.Background(), profile))

	session, err := f.orchestrator.Run(context.Background(), models.ScopeSingleUser, "u1", false)
	require.NoError(t, err)

	require.Greater(t, session.TotalRecommendations, 0)
	assert.Greater(t, session.ExecutedCount, 0)
	assert.EqualValues(t, session.ExecutedCount, f.executor.executed.Load())

	persisted, err := f.recs.BySession(context.Background(), session.ID)
	require.NoError(t, err)
	for _, rec := range persisted {
		if rec.Action != models.ActionHold {
			assert.Equal(t, models.StatusExecuted, rec.Status)
		}
	}
}

func TestAutoExecuteSkippedOnDryRun(t *testing.T) {
	f := newFixture(t, nvdaGateway())
	f.portfolios.Put(nvdaPortfolio("u1"))
	profile := models.DefaultRiskProfile("u1")
	profile.AutoExecuteTrades = true
	require.NoError(t, f.profiles.Put(context.Background(), profile))

	session, err := f.orchestrator.Run(context.Background(), models.ScopeSingleUser, "u1", true)
	require.NoError(t, err)

	assert.Equal(t, 0, session.ExecutedCount)
	assert.EqualValues(t, 0, f.executor.executed.Load())
}

func TestRunBuildsSessionSummary(t *testing.T) {
	f := newFixture(t, nvdaGateway())
	f.portfolios.Put(nvdaPortfolio("u1"))

	session, err := f.orchestrator.Run(context.Background(), models.ScopeSingleUser, "u1", false)
	require.NoError(t, err)

	require.NotNil(t, session.Summary)
	persisted, err := f.recs.BySession(context.Background(), session.ID)
	require.NoError(t, err)
	buys := 0
	allocated := decimal.Zero
	for _, rec := range persisted {
		if rec.Action == models.ActionBuy {
			buys++
			allocated = allocated.Add(rec.CashAllocated)
		}
	}
	assert.Equal(t, buys, session.Summary.BuyCount)
	assert.True(t, session.Summary.CashAllocated.Equal(allocated))
	assert.Greater(t, session.Summary.AvgConfidence, 0.0)
	assert.Greater(t, session.Summary.AvgPriority, 0.0)

	stored, err := f.sessions.GetByID(context.Background(), session.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Summary)
	assert.Equal(t, buys, stored.Summary.BuyCount)
}

func TestExpiredRecommendationNotExecutable(t *testing.T) {
	f := newFixture(t, nvdaGateway())
	stale := models.Recommendation{
		ID: "r1", UserID: "u1", Symbol: "NVDA", Action: models.ActionBuy,
		Status:    models.StatusPending,
		CreatedAt: time.Now().Add(-8 * 24 * time.Hour),
		ExpiresAt: time.Now().Add(-24 * time.Hour),
	}
	require.NoError(t, f.recs.SaveBatch(context.Background(), []models.Recommendation{stale}))

	_, err := f.orchestrator.Execute(context.Background(), "r1")
	assert.ErrorIs(t, err, ErrNotExecutable)

	swept, err := f.orchestrator.ExpireStale(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, swept)

	rec, err := f.recs.GetByID(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusExpired, rec.Status)
}

func TestRunRecordsSessionHistory(t *testing.T) {
	f := newFixture(t, nvdaGateway())
	f.portfolios.Put(nvdaPortfolio("u1"))

	_, err := f.orchestrator.Run(context.Background(), models.ScopeSingleUser, "u1", false)
	require.NoError(t, err)
	_, err = f.orchestrator.Run(context.Background(), models.ScopeSingleUser, "u1", true)
	require.NoError(t, err)

	latest, err := f.sessions.Latest(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, latest.DryRun)

	all, err := f.sessions.List(context.Background(), "u1", 10, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
