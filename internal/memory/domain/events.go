package domain

import (
	shared "untangle/internal/shared/domain"
)

// RoutingKeyDecisionRecorded identifies the decision-recorded event on the bus.
const RoutingKeyDecisionRecorded = "decision.recorded"

// DecisionRecorded is published after a decision lands in the log.
type DecisionRecorded struct {
	shared.BaseEvent
	Fingerprint string
	UserAction  UserAction
	Revision    int
}

// NewDecisionRecorded creates a DecisionRecorded event for a stored record.
func NewDecisionRecorded(d Decision) DecisionRecorded {
	return DecisionRecorded{
		BaseEvent:   shared.NewBaseEvent(d.ID, "decision", RoutingKeyDecisionRecorded),
		Fingerprint: d.Fingerprint,
		UserAction:  d.UserAction,
		Revision:    d.Revision,
	}
}
