package domain

import (
	"untangle/internal/shared/domain"
)

// Routing keys for conflict lifecycle events.
const (
	RoutingKeyConflictDetected = "conflict.detected"
)

// ConflictDetected is published when a run identifies a conflict group.
type ConflictDetected struct {
	domain.BaseEvent
	EventCount int
	RangeStart string
	RangeEnd   string
}

// NewConflictDetected creates a ConflictDetected event for a group.
func NewConflictDetected(group ConflictGroup) ConflictDetected {
	r := group.Range()
	return ConflictDetected{
		BaseEvent:  domain.NewBaseEvent(group.ID(), "conflict_group", RoutingKeyConflictDetected),
		EventCount: group.Size(),
		RangeStart: r.Start.Format("2006-01-02T15:04:05Z07:00"),
		RangeEnd:   r.End.Format("2006-01-02T15:04:05Z07:00"),
	}
}
