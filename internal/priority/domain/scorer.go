package domain

import (
	conflicts "untangle/internal/conflicts/domain"
)

// DefaultReason is attached when no rule matches an event.
const DefaultReason = "Default priority"

// Result is the outcome of scoring one event.
type Result struct {
	Score   int
	Level   Level
	Reasons []string
}

// Score computes an event's importance against the rule set. Tiers are tried
// in critical-to-low order and the first tier with a matching rule wins; an
// event matched by nothing receives the explicit medium default. The function
// is pure: identical (event, rules) input always yields an identical result.
func Score(event conflicts.Event, rules RuleSet) Result {
	for _, level := range TierOrder {
		for _, rule := range rules.Tier(level) {
			if rule.Matches(event) {
				reason := rule.Description
				if reason == "" {
					reason = "Matched " + string(level) + " rule"
				}
				return Result{
					Score:   level.Score(),
					Level:   level,
					Reasons: []string{reason},
				}
			}
		}
	}

	return Result{
		Score:   LevelMedium.Score(),
		Level:   LevelMedium,
		Reasons: []string{DefaultReason},
	}
}

// ScoreAll scores every event in a slice, preserving order.
func ScoreAll(events []conflicts.Event, rules RuleSet) []Result {
	results := make([]Result, len(events))
	for i, e := range events {
		results[i] = Score(e, rules)
	}
	return results
}
