package rules

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	conflicts "untangle/internal/conflicts/domain"
	priority "untangle/internal/priority/domain"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadPriorityRules(t *testing.T) {
	path := writeFile(t, "priority.yaml", `
critical:
  - description: Meetings with the CEO
    pattern: "1:1"
    organizer_contains: ceo@example.com
high:
  - description: Large meetings
    min_attendees: 5
medium:
  - description: Team rituals
    keywords: [standup, retro]
`)

	rules, err := LoadPriorityRules(path)
	require.NoError(t, err)
	assert.False(t, rules.Empty())
	assert.Len(t, rules.Tier(priority.LevelCritical), 1)
	assert.Len(t, rules.Tier(priority.LevelHigh), 1)
	assert.Len(t, rules.Tier(priority.LevelMedium), 1)
	assert.Empty(t, rules.Tier(priority.LevelLow))

	event := conflicts.Event{
		Subject:   "Quarterly 1:1",
		Organizer: "CEO@example.com",
	}
	assert.True(t, rules.Tier(priority.LevelCritical)[0].Matches(event))
}

func TestLoadPriorityRules_EmptyPathMeansNoRules(t *testing.T) {
	rules, err := LoadPriorityRules("")
	require.NoError(t, err)
	assert.True(t, rules.Empty())
}

func TestLoadPriorityRules_MissingFileIsAnError(t *testing.T) {
	_, err := LoadPriorityRules(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoadPriorityRules_RejectsUnknownTier(t *testing.T) {
	path := writeFile(t, "priority.yaml", `
urgent:
  - description: not a tier
`)
	_, err := LoadPriorityRules(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid priority level")
}

func TestLoadPriorityRules_RejectsBadPattern(t *testing.T) {
	path := writeFile(t, "priority.yaml", `
high:
  - description: broken
    pattern: "(["
`)
	_, err := LoadPriorityRules(path)
	require.Error(t, err)
}

func TestLoadIgnoreRules(t *testing.T) {
	path := writeFile(t, "ignore.yaml", `
- name: friday-standup-overlap
  day_of_week: Friday
  hour: 9
  event_pattern_1: standup
  event_pattern_2: focus block
- name: any-time-sync
  event_pattern_1: sync
`)

	rules, err := LoadIgnoreRules(path)
	require.NoError(t, err)
	require.Len(t, rules, 2)

	require.NotNil(t, rules[0].DayOfWeek)
	assert.Equal(t, time.Friday, *rules[0].DayOfWeek)
	require.NotNil(t, rules[0].Hour)
	assert.Equal(t, 9, *rules[0].Hour)
	assert.Equal(t, "standup", rules[0].EventPattern1)

	assert.Nil(t, rules[1].DayOfWeek)
	assert.Nil(t, rules[1].Hour)
}

func TestLoadIgnoreRules_RejectsBadWeekday(t *testing.T) {
	path := writeFile(t, "ignore.yaml", `
- name: broken
  day_of_week: Funday
`)
	_, err := LoadIgnoreRules(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid weekday")
}

func TestLoadThresholds(t *testing.T) {
	path := writeFile(t, "thresholds.yaml", `
- min_gap: 50
  action: reschedule_lower_priority
  description: big gap
- min_gap: 20
  max_gap: 51
  action: suggest_reschedule
`)

	rules, err := LoadThresholds(path)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.True(t, rules[0].Matches(70))
	assert.False(t, rules[0].Matches(50))
	assert.True(t, rules[1].Matches(30))
	assert.False(t, rules[1].Matches(51))
}

func TestLoadThresholds_EmptyPathUsesDefaults(t *testing.T) {
	rules, err := LoadThresholds("")
	require.NoError(t, err)
	require.Len(t, rules, 2)

	// gap 70 hits the reschedule rung, 30 the suggestion rung, 10 neither.
	assert.True(t, rules[0].Matches(70))
	assert.False(t, rules[0].Matches(30))
	assert.True(t, rules[1].Matches(30))
	assert.False(t, rules[1].Matches(10))
}

func TestLoadThresholds_RejectsUnknownAction(t *testing.T) {
	path := writeFile(t, "thresholds.yaml", `
- min_gap: 50
  action: escalate_to_manager
`)
	_, err := LoadThresholds(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid resolution action")
}
