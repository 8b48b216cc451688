package repository

import (
	"context"

	"SmartFolio/internal/domain/models"
)

// NoopSignalArchive is used when ClickHouse is disabled.
type NoopSignalArchive struct{}

func (NoopSignalArchive) Append(context.Context, []models.AdvisorSignal) error { return nil }
func (NoopSignalArchive) Close() error                                         { return nil }

// NoopEventPublisher is used when Kafka is disabled.
type NoopEventPublisher struct{}

func (NoopEventPublisher) SessionEvent(context.Context, models.AnalysisSession) error { return nil }
func (NoopEventPublisher) RecommendationEvent(context.Context, models.Recommendation) error {
	return nil
}
func (NoopEventPublisher) Close() error { return nil }
