package kafka

import (
	"context"

	"go.uber.org/zap"

	"user-service/internal/usecase"
)

// NoopProducer stands in when no bus is configured. Publish still reports
// success to its caller; the capability choice is made once at construction
// instead of null checks at call sites.
type NoopProducer struct {
	logger *zap.Logger
}

func NewNoopProducer(logger *zap.Logger) *NoopProducer {
	return &NoopProducer{logger: logger}
}

func (p *NoopProducer) PublishUserEvent(ctx context.Context, event *usecase.UserEvent) error {
	p.logger.Debug("event bus not configured, dropping event",
		zap.String("event_type", event.EventType),
		zap.String("user_id", event.Payload.UserID),
	)
	return nil
}

func (p *NoopProducer) Close() error { return nil }
