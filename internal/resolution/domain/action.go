// Package domain decides how a conflict group should be resolved.
package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Action is the explicit discriminant for a resolution class. Action type is
// never recovered from description text; the description exists for humans
// only.
type Action string

const (
	ActionRescheduleLower Action = "reschedule_lower_priority"
	ActionSuggestResched  Action = "suggest_reschedule"
	ActionDeclineLower    Action = "decline_lower_priority"
	ActionManualDecision  Action = "manual_decision"
)

var ErrInvalidAction = errors.New("invalid resolution action")

// ParseAction validates and converts an action name.
func ParseAction(s string) (Action, error) {
	switch Action(strings.ToLower(s)) {
	case ActionRescheduleLower:
		return ActionRescheduleLower, nil
	case ActionSuggestResched:
		return ActionSuggestResched, nil
	case ActionDeclineLower:
		return ActionDeclineLower, nil
	case ActionManualDecision:
		return ActionManualDecision, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidAction, s)
	}
}

// RequiresSlotSearch reports whether applying the action needs alternative
// time slots.
func (a Action) RequiresSlotSearch() bool {
	return a == ActionRescheduleLower || a == ActionSuggestResched
}

// ThresholdRule maps a priority-gap range onto an action. Rules are evaluated
// in declaration order and the first match wins. Nil bounds are open.
type ThresholdRule struct {
	MinGap      *int // matches when gap > MinGap
	MaxGap      *int // matches when gap < MaxGap
	Action      Action
	Description string
}

// Matches reports whether the gap satisfies the rule's bounds.
func (r ThresholdRule) Matches(gap int) bool {
	if r.MinGap != nil && gap <= *r.MinGap {
		return false
	}
	if r.MaxGap != nil && gap >= *r.MaxGap {
		return false
	}
	return true
}
