package domain

import (
	"untangle/internal/shared/domain"
)

// Routing keys for resolution lifecycle events.
const (
	RoutingKeyProposalResolved = "proposal.resolved"
)

// ProposalResolved is published once a conflict group has a final proposal,
// whether rule-based or advisor-refined.
type ProposalResolved struct {
	domain.BaseEvent
	Action      string
	Source      string
	PriorityGap int
	TargetCount int
}

// NewProposalResolved creates a ProposalResolved event for a proposal.
func NewProposalResolved(proposal Proposal) ProposalResolved {
	return ProposalResolved{
		BaseEvent:   domain.NewBaseEvent(proposal.GroupID, "conflict_group", RoutingKeyProposalResolved),
		Action:      string(proposal.Action),
		Source:      string(proposal.Source),
		PriorityGap: proposal.Gap,
		TargetCount: len(proposal.Targets),
	}
}
