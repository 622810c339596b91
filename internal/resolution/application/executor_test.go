package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	availability "untangle/internal/availability/domain"
	calendar "untangle/internal/calendar/domain"
	conflicts "untangle/internal/conflicts/domain"
	priority "untangle/internal/priority/domain"
	"untangle/internal/resolution/domain"
)

type recordingSource struct {
	updates      map[string][2]time.Time
	declined     []string
	markedSilent []string
	cancelled    []string
	updateErr    error
	declineErr   error
	markErr      error
	cancelErr    error
}

func newRecordingSource() *recordingSource {
	return &recordingSource{updates: make(map[string][2]time.Time)}
}

func (s *recordingSource) ListEvents(ctx context.Context, start, end time.Time) ([]conflicts.Event, error) {
	return nil, nil
}

func (s *recordingSource) UpdateEvent(ctx context.Context, id string, newStart, newEnd time.Time) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	s.updates[id] = [2]time.Time{newStart, newEnd}
	return nil
}

func (s *recordingSource) DeclineEvent(ctx context.Context, id, message string) error {
	if s.declineErr != nil {
		return s.declineErr
	}
	s.declined = append(s.declined, id)
	return nil
}

func (s *recordingSource) MarkDeclined(ctx context.Context, id string) error {
	if s.markErr != nil {
		return s.markErr
	}
	s.markedSilent = append(s.markedSilent, id)
	return nil
}

func (s *recordingSource) CancelEvent(ctx context.Context, id, message string) error {
	if s.cancelErr != nil {
		return s.cancelErr
	}
	s.cancelled = append(s.cancelled, id)
	return nil
}

func scoredTarget(id, subject string, start time.Time, duration time.Duration) domain.ScoredEvent {
	return domain.ScoredEvent{
		Event: conflicts.Event{
			ID:      id,
			Subject: subject,
			Start:   start,
			End:     start.Add(duration),
		},
		Priority: priority.Result{Score: 25},
	}
}

func slotAt(start time.Time, duration time.Duration) availability.Slot {
	return availability.Slot{Start: start, End: start.Add(duration)}
}

func TestExecutor_RescheduleMovesTargetsIntoSlots(t *testing.T) {
	source := newRecordingSource()
	executor := NewExecutor(source, nil)

	origin := time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC)
	proposal := domain.Proposal{
		Action: domain.ActionRescheduleLower,
		Targets: []domain.ScoredEvent{
			scoredTarget("low-1", "Standup", origin, 30*time.Minute),
			scoredTarget("low-2", "Planning", origin, time.Hour),
		},
	}
	slots := []availability.Slot{
		slotAt(time.Date(2026, 9, 8, 9, 0, 0, 0, time.UTC), 30*time.Minute),
		slotAt(time.Date(2026, 9, 8, 11, 0, 0, 0, time.UTC), time.Hour),
	}

	result, err := executor.Apply(context.Background(), proposal, slots)
	require.NoError(t, err)
	assert.Equal(t, ApplyStatusAll, result.Status())

	// Each target keeps its own duration from its slot start.
	moved := source.updates["low-1"]
	assert.Equal(t, slots[0].Start, moved[0])
	assert.Equal(t, slots[0].Start.Add(30*time.Minute), moved[1])
	moved = source.updates["low-2"]
	assert.Equal(t, slots[1].Start.Add(time.Hour), moved[1])
}

func TestExecutor_RescheduleWithoutEnoughSlotsIsPartial(t *testing.T) {
	source := newRecordingSource()
	executor := NewExecutor(source, nil)

	origin := time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC)
	proposal := domain.Proposal{
		Action: domain.ActionRescheduleLower,
		Targets: []domain.ScoredEvent{
			scoredTarget("low-1", "Standup", origin, 30*time.Minute),
			scoredTarget("low-2", "Planning", origin, time.Hour),
		},
	}
	slots := []availability.Slot{
		slotAt(time.Date(2026, 9, 8, 9, 0, 0, 0, time.UTC), 30*time.Minute),
	}

	result, err := executor.Apply(context.Background(), proposal, slots)
	require.NoError(t, err)
	assert.Equal(t, ApplyStatusPartial, result.Status())
	assert.True(t, result.Outcomes[0].Applied)
	assert.False(t, result.Outcomes[1].Applied)
	assert.Contains(t, result.Outcomes[1].Detail, "no free slot")
}

func TestExecutor_DeclineTargets(t *testing.T) {
	source := newRecordingSource()
	executor := NewExecutor(source, nil)

	origin := time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC)
	proposal := domain.Proposal{
		Action:      domain.ActionDeclineLower,
		Description: "Conflicts with a higher-priority meeting",
		Targets: []domain.ScoredEvent{
			scoredTarget("low-1", "Optional sync", origin, 30*time.Minute),
		},
	}

	result, err := executor.Apply(context.Background(), proposal, nil)
	require.NoError(t, err)
	assert.Equal(t, ApplyStatusAll, result.Status())
	assert.Equal(t, []string{"low-1"}, source.declined)
	assert.Empty(t, source.markedSilent)
}

func TestExecutor_DeclineFallsBackToSilentMark(t *testing.T) {
	source := newRecordingSource()
	source.declineErr = calendar.ErrResponseNotRequested
	executor := NewExecutor(source, nil)

	origin := time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC)
	proposal := domain.Proposal{
		Action: domain.ActionDeclineLower,
		Targets: []domain.ScoredEvent{
			scoredTarget("low-1", "FYI meeting", origin, 30*time.Minute),
		},
	}

	result, err := executor.Apply(context.Background(), proposal, nil)
	require.NoError(t, err)
	assert.Equal(t, ApplyStatusAll, result.Status())
	assert.Equal(t, []string{"low-1"}, source.markedSilent)
	assert.Contains(t, result.Outcomes[0].Detail, "silently")
}

func TestExecutor_DeclineFailureIsReportedNotFatal(t *testing.T) {
	source := newRecordingSource()
	source.declineErr = errors.New("403 forbidden")
	executor := NewExecutor(source, nil)

	origin := time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC)
	proposal := domain.Proposal{
		Action: domain.ActionDeclineLower,
		Targets: []domain.ScoredEvent{
			scoredTarget("low-1", "Sync", origin, 30*time.Minute),
		},
	}

	result, err := executor.Apply(context.Background(), proposal, nil)
	require.NoError(t, err)
	assert.Equal(t, ApplyStatusNone, result.Status())
	assert.Contains(t, result.Outcomes[0].Detail, "decline failed")
}

func TestExecutor_CancelEvent(t *testing.T) {
	source := newRecordingSource()
	executor := NewExecutor(source, nil)

	require.NoError(t, executor.Cancel(context.Background(), "own-1", "moved to async"))
	assert.Equal(t, []string{"own-1"}, source.cancelled)
}

func TestExecutor_CancelFailureSurfaces(t *testing.T) {
	source := newRecordingSource()
	source.cancelErr = errors.New("403 forbidden")
	executor := NewExecutor(source, nil)

	err := executor.Cancel(context.Background(), "own-1", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cancelling event own-1")
}

func TestExecutor_SuggestAndManualTouchNothing(t *testing.T) {
	source := newRecordingSource()
	executor := NewExecutor(source, nil)

	origin := time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC)
	for _, action := range []domain.Action{domain.ActionSuggestResched, domain.ActionManualDecision} {
		proposal := domain.Proposal{
			Action: action,
			Targets: []domain.ScoredEvent{
				scoredTarget("low-1", "Sync", origin, 30*time.Minute),
			},
		}
		result, err := executor.Apply(context.Background(), proposal, nil)
		require.NoError(t, err)
		assert.Equal(t, ApplyStatusNone, result.Status())
	}
	assert.Empty(t, source.updates)
	assert.Empty(t, source.declined)
}
