// Package rules loads the user's rule files: priority tiers, ignore rules and
// resolution thresholds. Every loader falls back to a sensible built-in when
// no path is configured; a configured path that cannot be read is an error.
package rules

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	conflicts "untangle/internal/conflicts/domain"
	priority "untangle/internal/priority/domain"
	resolution "untangle/internal/resolution/domain"
)

type priorityRuleYAML struct {
	Description       string   `yaml:"description"`
	Pattern           string   `yaml:"pattern"`
	ExcludePattern    string   `yaml:"exclude_pattern"`
	Keywords          []string `yaml:"keywords"`
	MinAttendees      *int     `yaml:"min_attendees"`
	MaxAttendees      *int     `yaml:"max_attendees"`
	OrganizerContains string   `yaml:"organizer_contains"`
}

type ignoreRuleYAML struct {
	Name          string `yaml:"name"`
	DayOfWeek     string `yaml:"day_of_week"`
	Hour          *int   `yaml:"hour"`
	EventPattern1 string `yaml:"event_pattern_1"`
	EventPattern2 string `yaml:"event_pattern_2"`
}

type thresholdYAML struct {
	MinGap      *int   `yaml:"min_gap"`
	MaxGap      *int   `yaml:"max_gap"`
	Action      string `yaml:"action"`
	Description string `yaml:"description"`
}

// LoadPriorityRules reads a tier-keyed YAML file into a rule set. An empty
// path yields an empty set, meaning every event scores the medium default.
func LoadPriorityRules(path string) (priority.RuleSet, error) {
	if path == "" {
		return priority.NewRuleSet(nil), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return priority.RuleSet{}, fmt.Errorf("reading priority rules: %w", err)
	}

	var raw map[string][]priorityRuleYAML
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return priority.RuleSet{}, fmt.Errorf("parsing priority rules %s: %w", path, err)
	}

	tiers := make(map[priority.Level][]priority.Rule)
	for tierName, specs := range raw {
		level, err := priority.ParseLevel(tierName)
		if err != nil {
			return priority.RuleSet{}, fmt.Errorf("priority rules %s: %w", path, err)
		}
		for i, spec := range specs {
			rule, err := priority.NewRule(priority.RuleSpec{
				Description:       spec.Description,
				Pattern:           spec.Pattern,
				ExcludePattern:    spec.ExcludePattern,
				Keywords:          spec.Keywords,
				MinAttendees:      spec.MinAttendees,
				MaxAttendees:      spec.MaxAttendees,
				OrganizerContains: spec.OrganizerContains,
			})
			if err != nil {
				return priority.RuleSet{}, fmt.Errorf("priority rules %s, tier %s, rule %d: %w", path, tierName, i+1, err)
			}
			tiers[level] = append(tiers[level], rule)
		}
	}
	return priority.NewRuleSet(tiers), nil
}

// LoadIgnoreRules reads ignore rules from YAML. An empty path yields none.
func LoadIgnoreRules(path string) ([]conflicts.IgnoreRule, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading ignore rules: %w", err)
	}

	var raw []ignoreRuleYAML
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing ignore rules %s: %w", path, err)
	}

	rules := make([]conflicts.IgnoreRule, 0, len(raw))
	for i, r := range raw {
		rule := conflicts.IgnoreRule{
			Name:          r.Name,
			Hour:          r.Hour,
			EventPattern1: r.EventPattern1,
			EventPattern2: r.EventPattern2,
		}
		if r.DayOfWeek != "" {
			weekday, err := parseWeekday(r.DayOfWeek)
			if err != nil {
				return nil, fmt.Errorf("ignore rules %s, rule %d: %w", path, i+1, err)
			}
			rule.DayOfWeek = &weekday
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// LoadThresholds reads the ordered threshold rules from YAML. An empty path
// yields the built-in defaults: a gap above 50 reschedules the lower-priority
// side, a gap above 20 suggests a reschedule, anything else needs a human.
func LoadThresholds(path string) ([]resolution.ThresholdRule, error) {
	if path == "" {
		return DefaultThresholds(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading thresholds: %w", err)
	}

	var raw []thresholdYAML
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing thresholds %s: %w", path, err)
	}

	rules := make([]resolution.ThresholdRule, 0, len(raw))
	for i, r := range raw {
		action, err := resolution.ParseAction(r.Action)
		if err != nil {
			return nil, fmt.Errorf("thresholds %s, rule %d: %w", path, i+1, err)
		}
		rules = append(rules, resolution.ThresholdRule{
			MinGap:      r.MinGap,
			MaxGap:      r.MaxGap,
			Action:      action,
			Description: r.Description,
		})
	}
	return rules, nil
}

// DefaultThresholds returns the built-in resolution ladder.
func DefaultThresholds() []resolution.ThresholdRule {
	gapLarge := 50
	gapMedium := 20
	return []resolution.ThresholdRule{
		{
			MinGap:      &gapLarge,
			Action:      resolution.ActionRescheduleLower,
			Description: "Clear priority difference; reschedule the lower-priority event",
		},
		{
			MinGap:      &gapMedium,
			Action:      resolution.ActionSuggestResched,
			Description: "Moderate priority difference; suggest rescheduling",
		},
	}
}

func parseWeekday(s string) (time.Weekday, error) {
	switch strings.ToLower(s) {
	case "sunday":
		return time.Sunday, nil
	case "monday":
		return time.Monday, nil
	case "tuesday":
		return time.Tuesday, nil
	case "wednesday":
		return time.Wednesday, nil
	case "thursday":
		return time.Thursday, nil
	case "friday":
		return time.Friday, nil
	case "saturday":
		return time.Saturday, nil
	default:
		return 0, fmt.Errorf("invalid weekday %q", s)
	}
}
