// Package domain holds the shared kernel used by every bounded context.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// DomainEvent represents something that happened in the domain.
type DomainEvent interface {
	EventID() uuid.UUID
	SubjectID() uuid.UUID
	SubjectType() string
	RoutingKey() string
	OccurredAt() time.Time
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	eventID     uuid.UUID
	subjectID   uuid.UUID
	subjectType string
	routingKey  string
	occurredAt  time.Time
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(subjectID uuid.UUID, subjectType, routingKey string) BaseEvent {
	return BaseEvent{
		eventID:     uuid.New(),
		subjectID:   subjectID,
		subjectType: subjectType,
		routingKey:  routingKey,
		occurredAt:  time.Now().UTC(),
	}
}

func (e BaseEvent) EventID() uuid.UUID    { return e.eventID }
func (e BaseEvent) SubjectID() uuid.UUID  { return e.subjectID }
func (e BaseEvent) SubjectType() string   { return e.subjectType }
func (e BaseEvent) RoutingKey() string    { return e.routingKey }
func (e BaseEvent) OccurredAt() time.Time { return e.occurredAt }
