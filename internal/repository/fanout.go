package repository

import (
	"context"

	"SmartFolio/internal/domain/models"
	"SmartFolio/pkg/ws"
)

// FanoutPublisher delivers every event to all wrapped publishers. Errors
// from one publisher do not stop delivery to the rest; the first error is
// returned.
type FanoutPublisher struct {
	publishers []EventPublisher
}

// EventPublisher mirrors the domain port so fanout can wrap any mix of
// implementations.
type EventPublisher interface {
	SessionEvent(ctx context.Context, session models.AnalysisSession) error
	RecommendationEvent(ctx context.Context, rec models.Recommendation) error
	Close() error
}

func NewFanoutPublisher(publishers ...EventPublisher) *FanoutPublisher {
	return &FanoutPublisher{publishers: publishers}
}

func (f *FanoutPublisher) SessionEvent(ctx context.Context, session models.AnalysisSession) error {
	var first error
	for _, p := range f.publishers {
		if err := p.SessionEvent(ctx, session); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (f *FanoutPublisher) RecommendationEvent(ctx context.Context, rec models.Recommendation) error {
	var first error
	for _, p := range f.publishers {
		if err := p.RecommendationEvent(ctx, rec); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (f *FanoutPublisher) Close() error {
	var first error
	for _, p := range f.publishers {
		if err := p.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// HubPublisher pushes events to connected websocket clients.
type HubPublisher struct {
	hub *ws.Hub
}

func NewHubPublisher(hub *ws.Hub) *HubPublisher {
	return &HubPublisher{hub: hub}
}

func (p *HubPublisher) SessionEvent(_ context.Context, session models.AnalysisSession) error {
	p.hub.Broadcast(map[string]any{"type": "session", "session": session})
	return nil
}

func (p *HubPublisher) RecommendationEvent(_ context.Context, rec models.Recommendation) error {
	p.hub.Broadcast(map[string]any{"type": "recommendation", "recommendation": rec})
	return nil
}

func (p *HubPublisher) Close() error { return nil }
