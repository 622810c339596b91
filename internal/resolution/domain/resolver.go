package domain

import (
	"github.com/google/uuid"

	conflicts "untangle/internal/conflicts/domain"
	priority "untangle/internal/priority/domain"
)

// Source records which mechanism produced a proposal.
type Source string

const (
	SourceRules   Source = "rules"
	SourceAdvisor Source = "advisor"
)

// ScoredEvent pairs an event with its priority result.
type ScoredEvent struct {
	Event    conflicts.Event
	Priority priority.Result
}

// Proposal is the resolution suggested for one conflict group. It is created
// fresh each run and never persisted; only the derived decision is.
type Proposal struct {
	GroupID     uuid.UUID
	Action      Action
	Description string
	Source      Source

	// Targets are the events the action applies to: every event scoring
	// below the group maximum. Retained events share the maximum score.
	Targets  []ScoredEvent
	Retained []ScoredEvent

	MaxScore int
	MinScore int
	Gap      int

	// Advisor enrichment, present only when Source is SourceAdvisor.
	Confidence   float64
	Alternatives []string
}

// Resolver applies threshold rules to conflict groups.
type Resolver struct {
	thresholds []ThresholdRule
}

// NewResolver creates a resolver with the given ordered threshold rules.
func NewResolver(thresholds []ThresholdRule) *Resolver {
	return &Resolver{thresholds: thresholds}
}

// Resolve scores the spread within a group and returns a proposal. With no
// matching rule (or no rules at all) the action defaults to manual decision.
// Scored must hold one entry per group event, in group order.
func (r *Resolver) Resolve(group conflicts.ConflictGroup, scored []ScoredEvent) Proposal {
	maxScore, minScore := scored[0].Priority.Score, scored[0].Priority.Score
	for _, s := range scored[1:] {
		if s.Priority.Score > maxScore {
			maxScore = s.Priority.Score
		}
		if s.Priority.Score < minScore {
			minScore = s.Priority.Score
		}
	}
	gap := maxScore - minScore

	proposal := Proposal{
		GroupID:     group.ID(),
		Action:      ActionManualDecision,
		Description: "No threshold rule matched; manual decision required",
		Source:      SourceRules,
		MaxScore:    maxScore,
		MinScore:    minScore,
		Gap:         gap,
	}

	for _, rule := range r.thresholds {
		if rule.Matches(gap) {
			proposal.Action = rule.Action
			if rule.Description != "" {
				proposal.Description = rule.Description
			}
			break
		}
	}

	// Events tied at the maximum score are retained together; everything
	// below the maximum becomes a target of the action.
	for _, s := range scored {
		if s.Priority.Score == maxScore {
			proposal.Retained = append(proposal.Retained, s)
		} else {
			proposal.Targets = append(proposal.Targets, s)
		}
	}

	return proposal
}
