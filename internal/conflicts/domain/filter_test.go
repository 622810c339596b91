package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func weekdayPtr(d time.Weekday) *time.Weekday { return &d }
func intPtr(i int) *int                       { return &i }

func fridayGroup(t *testing.T) ConflictGroup {
	t.Helper()
	// 2026-09-04 is a Friday.
	start := time.Date(2026, 9, 4, 9, 0, 0, 0, time.UTC)
	groups := GroupOverlapping([]Event{
		busyEvent("standup", start, start.Add(30*time.Minute)),
		busyEvent("block", start.Add(15*time.Minute), start.Add(90*time.Minute)),
	})
	require.Len(t, groups, 1)
	g := groups[0]
	events := g.Events()
	events[0].Subject = "Daily Standup"
	events[1].Subject = "Focus Block"
	return NewConflictGroup(events)
}

func TestIgnoreRule_Matches(t *testing.T) {
	group := fridayGroup(t)

	tests := []struct {
		name    string
		rule    IgnoreRule
		matches bool
	}{
		{
			name: "all conditions hold",
			rule: IgnoreRule{
				DayOfWeek:     weekdayPtr(time.Friday),
				EventPattern1: "Standup",
				EventPattern2: "Block",
			},
			matches: true,
		},
		{
			name:    "wrong weekday",
			rule:    IgnoreRule{DayOfWeek: weekdayPtr(time.Monday), EventPattern1: "Standup"},
			matches: false,
		},
		{
			name:    "hour condition",
			rule:    IgnoreRule{Hour: intPtr(9), EventPattern1: "Standup"},
			matches: true,
		},
		{
			name:    "wrong hour",
			rule:    IgnoreRule{Hour: intPtr(14), EventPattern1: "Standup"},
			matches: false,
		},
		{
			name:    "missing second subject",
			rule:    IgnoreRule{EventPattern1: "Standup", EventPattern2: "Retro"},
			matches: false,
		},
		{
			name:    "pattern match is case-insensitive",
			rule:    IgnoreRule{EventPattern1: "standup", EventPattern2: "focus"},
			matches: true,
		},
		{
			name:    "empty rule matches everything",
			rule:    IgnoreRule{},
			matches: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.matches, tt.rule.Matches(group))
		})
	}
}

func TestFilterGroups(t *testing.T) {
	group := fridayGroup(t)

	rules := []IgnoreRule{{
		Name:          "friday standup vs focus block",
		DayOfWeek:     weekdayPtr(time.Friday),
		EventPattern1: "Standup",
		EventPattern2: "Block",
	}}

	assert.Empty(t, FilterGroups([]ConflictGroup{group}, rules))
	assert.Len(t, FilterGroups([]ConflictGroup{group}, nil), 1)

	nonMatching := []IgnoreRule{{DayOfWeek: weekdayPtr(time.Tuesday)}}
	assert.Len(t, FilterGroups([]ConflictGroup{group}, nonMatching), 1)
}
