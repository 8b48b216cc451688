package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"SmartFolio/internal/domain/models"
	"SmartFolio/pkg/kafka"
)

// event is the envelope every published message shares.
type event struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

// KafkaEventPublisher emits session and recommendation events keyed by user
// so one user's events stay ordered.
type KafkaEventPublisher struct {
	producer *kafka.Producer
}

func NewKafkaEventPublisher(producer *kafka.Producer) *KafkaEventPublisher {
	return &KafkaEventPublisher{producer: producer}
}

func (p *KafkaEventPublisher) SessionEvent(ctx context.Context, session models.AnalysisSession) error {
	return p.publish(ctx, "analysis.session."+string(session.Status), session.UserID, session)
}

func (p *KafkaEventPublisher) RecommendationEvent(ctx context.Context, rec models.Recommendation) error {
	return p.publish(ctx, "analysis.recommendation.created", rec.UserID, rec)
}

func (p *KafkaEventPublisher) publish(ctx context.Context, eventType, key string, payload any) error {
	data, err := json.Marshal(event{
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	})
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", eventType, err)
	}
	return p.producer.Publish(ctx, []byte(key), data)
}

func (p *KafkaEventPublisher) Close() error { return p.producer.Close() }
