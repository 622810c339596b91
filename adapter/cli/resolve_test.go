package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	conflicts "untangle/internal/conflicts/domain"
	priority "untangle/internal/priority/domain"
	resolution "untangle/internal/resolution/domain"
)

func TestScoreGroup_KeepsGroupOrder(t *testing.T) {
	start := time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC)
	events := []conflicts.Event{
		{ID: "a", Subject: "1:1 with CEO", Start: start, End: start.Add(time.Hour)},
		{ID: "b", Subject: "Standup", Start: start, End: start.Add(30 * time.Minute)},
	}
	group := conflicts.NewConflictGroup(events)

	scored := scoreGroup(group, priority.NewRuleSet(nil))
	require.Len(t, scored, 2)
	assert.Equal(t, "a", scored[0].Event.ID)
	assert.Equal(t, "b", scored[1].Event.ID)
	for _, s := range scored {
		assert.Equal(t, 50, s.Priority.Score)
	}
}

func TestSlotRequest(t *testing.T) {
	start := time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC)
	proposal := resolution.Proposal{
		Targets: []resolution.ScoredEvent{
			{Event: conflicts.Event{
				ID: "a", Start: start, End: start.Add(30 * time.Minute),
				Attendees: []string{"x@example.com", "y@example.com"},
			}},
			{Event: conflicts.Event{
				ID: "b", Start: start.Add(15 * time.Minute), End: start.Add(75 * time.Minute),
				Attendees: []string{"y@example.com", "z@example.com"},
			}},
		},
	}

	duration, attendees, originalStart := slotRequest(proposal)
	assert.Equal(t, time.Hour, duration)
	assert.Equal(t, []string{"x@example.com", "y@example.com", "z@example.com"}, attendees)
	require.NotNil(t, originalStart)
	assert.Equal(t, start, *originalStart)
}

func TestSlotRequest_NoTargets(t *testing.T) {
	duration, attendees, originalStart := slotRequest(resolution.Proposal{})
	assert.Zero(t, duration)
	assert.Empty(t, attendees)
	assert.Nil(t, originalStart)
}
