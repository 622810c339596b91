// Package eventbus publishes domain events to interested subscribers.
package eventbus

import (
	"context"
	"encoding/json"

	"untangle/internal/shared/domain"
)

// Publisher sends serialized domain events to a transport.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload []byte) error
	Close() error
}

// envelope is the wire shape every published event shares.
type envelope struct {
	EventID     string          `json:"event_id"`
	SubjectID   string          `json:"subject_id"`
	SubjectType string          `json:"subject_type"`
	RoutingKey  string          `json:"routing_key"`
	OccurredAt  string          `json:"occurred_at"`
	Payload     json.RawMessage `json:"payload,omitempty"`
}

// PublishDomainEvent serializes a domain event and hands it to the publisher.
// A nil publisher is allowed and turns publishing into a no-op, so callers
// never need to branch on whether a bus is configured.
func PublishDomainEvent(ctx context.Context, p Publisher, event domain.DomainEvent, payload any) error {
	if p == nil {
		return nil
	}

	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		raw = data
	}

	body, err := json.Marshal(envelope{
		EventID:     event.EventID().String(),
		SubjectID:   event.SubjectID().String(),
		SubjectType: event.SubjectType(),
		RoutingKey:  event.RoutingKey(),
		OccurredAt:  event.OccurredAt().Format("2006-01-02T15:04:05Z07:00"),
		Payload:     raw,
	})
	if err != nil {
		return err
	}

	return p.Publish(ctx, event.RoutingKey(), body)
}
