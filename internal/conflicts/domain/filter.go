package domain

import (
	"strings"
	"time"
)

// IgnoreRule marks a class of overlapping events as "never a real conflict".
// All declared conditions must hold for the rule to match; nil conditions are
// skipped. The two subject patterns must each be present somewhere among the
// group's events.
type IgnoreRule struct {
	Name          string
	DayOfWeek     *time.Weekday
	Hour          *int
	EventPattern1 string
	EventPattern2 string
}

// Matches reports whether the rule applies to the group. Weekday and hour are
// evaluated against the group range's start in its own location.
func (r IgnoreRule) Matches(group ConflictGroup) bool {
	start := group.Range().Start

	if r.DayOfWeek != nil && start.Weekday() != *r.DayOfWeek {
		return false
	}
	if r.Hour != nil && start.Hour() != *r.Hour {
		return false
	}
	if r.EventPattern1 != "" && !groupHasSubject(group, r.EventPattern1) {
		return false
	}
	if r.EventPattern2 != "" && !groupHasSubject(group, r.EventPattern2) {
		return false
	}
	return true
}

func groupHasSubject(group ConflictGroup, pattern string) bool {
	p := strings.ToLower(pattern)
	for _, e := range group.Events() {
		if strings.Contains(strings.ToLower(e.Subject), p) {
			return true
		}
	}
	return false
}

// FilterGroups drops every group matched by any ignore rule. Filtered groups
// never reach the resolver, so they generate no proposals, decisions or slot
// searches.
func FilterGroups(groups []ConflictGroup, rules []IgnoreRule) []ConflictGroup {
	if len(rules) == 0 {
		return groups
	}
	kept := make([]ConflictGroup, 0, len(groups))
	for _, g := range groups {
		ignored := false
		for _, r := range rules {
			if r.Matches(g) {
				ignored = true
				break
			}
		}
		if !ignored {
			kept = append(kept, g)
		}
	}
	return kept
}
