package domain

import (
	"testing"
	"time"

	conflicts "untangle/internal/conflicts/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEvent(subject, organizer string, attendees int) conflicts.Event {
	addrs := make([]string, attendees)
	for i := range addrs {
		addrs[i] = "person@example.com"
	}
	return conflicts.Event{
		ID:        "ev-1",
		Subject:   subject,
		Start:     time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC),
		End:       time.Date(2026, 9, 1, 11, 0, 0, 0, time.UTC),
		Organizer: organizer,
		Attendees: addrs,
		ShowAs:    conflicts.ShowAsBusy,
	}
}

func mustRule(t *testing.T, spec RuleSpec) Rule {
	t.Helper()
	r, err := NewRule(spec)
	require.NoError(t, err)
	return r
}

func TestScore_PatternMatch(t *testing.T) {
	rules := NewRuleSet(map[Level][]Rule{
		LevelCritical: {mustRule(t, RuleSpec{Pattern: "CEO", Description: "Executive meeting"})},
	})

	result := Score(testEvent("CEO 1on1", "boss@example.com", 2), rules)
	assert.Equal(t, 100, result.Score)
	assert.Equal(t, LevelCritical, result.Level)
	assert.Equal(t, []string{"Executive meeting"}, result.Reasons)
}

func TestScore_TierPrecedence(t *testing.T) {
	// An event matching both critical and low must score critical.
	rules := NewRuleSet(map[Level][]Rule{
		LevelCritical: {mustRule(t, RuleSpec{Keywords: []string{"review"}, Description: "critical review"})},
		LevelLow:      {mustRule(t, RuleSpec{Keywords: []string{"review"}, Description: "low review"})},
	})

	result := Score(testEvent("Quarterly Review", "", 5), rules)
	assert.Equal(t, 100, result.Score)
	assert.Equal(t, LevelCritical, result.Level)
}

func TestScore_DefaultFallback(t *testing.T) {
	result := Score(testEvent("Coffee chat", "", 2), NewRuleSet(nil))
	assert.Equal(t, 50, result.Score)
	assert.Equal(t, LevelMedium, result.Level)
	assert.Equal(t, []string{DefaultReason}, result.Reasons)
}

func TestScore_Deterministic(t *testing.T) {
	rules := NewRuleSet(map[Level][]Rule{
		LevelHigh: {mustRule(t, RuleSpec{Pattern: "interview", Description: "Hiring"})},
	})
	event := testEvent("Candidate Interview", "recruiting@example.com", 3)

	first := Score(event, rules)
	second := Score(event, rules)
	assert.Equal(t, first, second)
}

func TestRule_Conjunction(t *testing.T) {
	min, max := 3, 10
	rule := mustRule(t, RuleSpec{
		Pattern:           "planning",
		ExcludePattern:    "optional",
		MinAttendees:      &min,
		MaxAttendees:      &max,
		OrganizerContains: "@example.com",
	})

	tests := []struct {
		name    string
		event   conflicts.Event
		matches bool
	}{
		{"all conditions pass", testEvent("Sprint Planning", "lead@example.com", 5), true},
		{"exclude pattern fires", testEvent("Sprint Planning (optional)", "lead@example.com", 5), false},
		{"too few attendees", testEvent("Sprint Planning", "lead@example.com", 2), false},
		{"too many attendees", testEvent("Sprint Planning", "lead@example.com", 11), false},
		{"wrong organizer", testEvent("Sprint Planning", "lead@other.org", 5), false},
		{"subject mismatch", testEvent("Daily Standup", "lead@example.com", 5), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.matches, rule.Matches(tt.event))
		})
	}
}

func TestRule_CaseInsensitive(t *testing.T) {
	rule := mustRule(t, RuleSpec{Keywords: []string{"STANDUP"}})
	assert.True(t, rule.Matches(testEvent("daily standup", "", 2)))

	patternRule := mustRule(t, RuleSpec{Pattern: "ceo"})
	assert.True(t, patternRule.Matches(testEvent("CEO sync", "", 2)))
}

func TestNewRule_InvalidPattern(t *testing.T) {
	_, err := NewRule(RuleSpec{Pattern: "["})
	assert.Error(t, err)

	_, err = NewRule(RuleSpec{ExcludePattern: "("})
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("Critical")
	require.NoError(t, err)
	assert.Equal(t, LevelCritical, level)

	_, err = ParseLevel("urgent")
	assert.ErrorIs(t, err, ErrInvalidLevel)
}
