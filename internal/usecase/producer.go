// usecase/producer.go
package usecase

import (
	"context"
	"time"
)

// Change event types carried on the bus.
const (
	EventUserCreated = "CREATED"
	EventUserUpdated = "UPDATED"
	EventUserDeleted = "DELETED"
)

// UserEventPayload carries the minimal identifying fields of the changed row.
type UserEventPayload struct {
	UserID string  `json:"user_id"`
	Email  string  `json:"email,omitempty"`
	Name   *string `json:"name,omitempty"`
}

type UserEvent struct {
	EventID   string           `json:"event_id"`
	EventType string           `json:"event_type"`
	Timestamp time.Time        `json:"timestamp"`
	Payload   UserEventPayload `json:"payload"`
}

// UserEventProducer is the bus boundary expected by the usecase. Delivery is
// best-effort with no ordering guarantee; a failed publish is observable only
// through logs and metrics, never through control flow.
type UserEventProducer interface {
	PublishUserEvent(ctx context.Context, event *UserEvent) error
	Close() error
}
