// Package domain implements rule-driven importance scoring for calendar
// events.
package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	conflicts "untangle/internal/conflicts/domain"
)

// Level names a priority tier.
type Level string

const (
	LevelCritical Level = "critical"
	LevelHigh     Level = "high"
	LevelMedium   Level = "medium"
	LevelLow      Level = "low"
)

// Score returns the fixed numeric score for the level.
func (l Level) Score() int {
	switch l {
	case LevelCritical:
		return 100
	case LevelHigh:
		return 75
	case LevelMedium:
		return 50
	case LevelLow:
		return 25
	default:
		return 0
	}
}

// TierOrder is the evaluation order: the first tier with a matching rule wins.
var TierOrder = []Level{LevelCritical, LevelHigh, LevelMedium, LevelLow}

var ErrInvalidLevel = errors.New("invalid priority level")

// ParseLevel validates and converts a level name.
func ParseLevel(s string) (Level, error) {
	switch Level(strings.ToLower(s)) {
	case LevelCritical:
		return LevelCritical, nil
	case LevelHigh:
		return LevelHigh, nil
	case LevelMedium:
		return LevelMedium, nil
	case LevelLow:
		return LevelLow, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidLevel, s)
	}
}

// Rule is a single predicate inside a tier. Every declared sub-condition must
// pass for the rule to match; unset conditions are skipped.
type Rule struct {
	Description       string
	pattern           *regexp.Regexp
	excludePattern    *regexp.Regexp
	keywords          []string
	minAttendees      *int
	maxAttendees      *int
	organizerContains string
}

// RuleSpec is the unvalidated form of a Rule, as authored in configuration.
type RuleSpec struct {
	Description       string
	Pattern           string
	ExcludePattern    string
	Keywords          []string
	MinAttendees      *int
	MaxAttendees      *int
	OrganizerContains string
}

// NewRule validates a spec and compiles its patterns.
func NewRule(spec RuleSpec) (Rule, error) {
	r := Rule{
		Description:       spec.Description,
		keywords:          spec.Keywords,
		minAttendees:      spec.MinAttendees,
		maxAttendees:      spec.MaxAttendees,
		organizerContains: spec.OrganizerContains,
	}
	if spec.Pattern != "" {
		re, err := regexp.Compile("(?i)" + spec.Pattern)
		if err != nil {
			return Rule{}, fmt.Errorf("invalid pattern %q: %w", spec.Pattern, err)
		}
		r.pattern = re
	}
	if spec.ExcludePattern != "" {
		re, err := regexp.Compile("(?i)" + spec.ExcludePattern)
		if err != nil {
			return Rule{}, fmt.Errorf("invalid exclude pattern %q: %w", spec.ExcludePattern, err)
		}
		r.excludePattern = re
	}
	return r, nil
}

// Matches evaluates the rule against an event. The result depends only on the
// event's subject, attendee count and organizer.
func (r Rule) Matches(event conflicts.Event) bool {
	if r.pattern != nil && !r.pattern.MatchString(event.Subject) {
		return false
	}
	if r.excludePattern != nil && r.excludePattern.MatchString(event.Subject) {
		return false
	}
	if len(r.keywords) > 0 {
		subject := strings.ToLower(event.Subject)
		found := false
		for _, kw := range r.keywords {
			if strings.Contains(subject, strings.ToLower(kw)) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	count := len(event.Attendees)
	if r.minAttendees != nil && count < *r.minAttendees {
		return false
	}
	if r.maxAttendees != nil && count > *r.maxAttendees {
		return false
	}
	if r.organizerContains != "" &&
		!strings.Contains(strings.ToLower(event.Organizer), strings.ToLower(r.organizerContains)) {
		return false
	}
	return true
}

// RuleSet holds the ordered tiers of priority rules.
type RuleSet struct {
	tiers map[Level][]Rule
}

// NewRuleSet creates a rule set from per-tier rules.
func NewRuleSet(tiers map[Level][]Rule) RuleSet {
	if tiers == nil {
		tiers = make(map[Level][]Rule)
	}
	return RuleSet{tiers: tiers}
}

// Tier returns the rules configured for a level.
func (rs RuleSet) Tier(level Level) []Rule {
	return rs.tiers[level]
}

// Empty reports whether no tier holds any rule.
func (rs RuleSet) Empty() bool {
	for _, rules := range rs.tiers {
		if len(rules) > 0 {
			return false
		}
	}
	return true
}
