package usecase

import (
	"context"
	"errors"
	"time"

	"SmartFolio/internal/domain/models"
	"SmartFolio/pkg/logger"
)

// Scheduler triggers one ALL_USERS analysis run per day at a fixed local
// time and sweeps expired recommendations before each run.
type Scheduler struct {
	orchestrator *SessionOrchestrator
	runAt        string
	log          *logger.Logger
	now          func() time.Time
}

func NewScheduler(orchestrator *SessionOrchestrator, runAt string, log *logger.Logger) *Scheduler {
	if log == nil {
		log = logger.NewNop()
	}
	return &Scheduler{
		orchestrator: orchestrator,
		runAt:        runAt,
		log:          log,
		now:          time.Now,
	}
}

// Start blocks until ctx is cancelled, firing the daily run.
func (s *Scheduler) Start(ctx context.Context) {
	for {
		wait := s.untilNextRun(s.now())
		s.log.Info("daily analysis scheduled", logger.Duration("in", wait))

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}

		s.runOnce(ctx)
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if swept, err := s.orchestrator.ExpireStale(ctx); err != nil {
		s.log.Warn("expiry sweep failed", logger.Error(err))
	} else if swept > 0 {
		s.log.Info("expired stale recommendations", logger.Int64("count", swept))
	}

	session, err := s.orchestrator.Run(ctx, models.ScopeAllUsers, "", false)
	if err != nil {
		if errors.Is(err, ErrRunInProgress) {
			s.log.Warn("skipping scheduled run, another run active")
			return
		}
		s.log.Error("scheduled run failed", logger.Error(err))
		return
	}
	s.log.Info("scheduled run completed",
		logger.String("session_id", session.ID),
		logger.Int("recommendations", session.TotalRecommendations))
}

// untilNextRun computes the wait to the next occurrence of the configured
// HH:MM, which may be tomorrow.
func (s *Scheduler) untilNextRun(now time.Time) time.Duration {
	at, err := time.Parse("15:04", s.runAt)
	if err != nil {
		return 24 * time.Hour
	}
	next := time.Date(now.Year(), now.Month(), now.Day(), at.Hour(), at.Minute(), 0, 0, now.Location())
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next.Sub(now)
}
