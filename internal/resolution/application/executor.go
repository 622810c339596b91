package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	availability "untangle/internal/availability/domain"
	calendar "untangle/internal/calendar/domain"
	"untangle/internal/resolution/domain"
)

// ApplyStatus summarizes how many of a proposal's targets were mutated.
type ApplyStatus string

const (
	ApplyStatusAll     ApplyStatus = "all"
	ApplyStatusPartial ApplyStatus = "partial"
	ApplyStatusNone    ApplyStatus = "none"
)

// TargetOutcome is the result of applying the action to one target event.
type TargetOutcome struct {
	EventID string
	Subject string
	Applied bool
	Detail  string
}

// ApplyResult aggregates per-target outcomes for one proposal.
type ApplyResult struct {
	Outcomes []TargetOutcome
}

// Status classifies the result: all targets mutated, some, or none.
func (r ApplyResult) Status() ApplyStatus {
	applied := 0
	for _, o := range r.Outcomes {
		if o.Applied {
			applied++
		}
	}
	switch {
	case len(r.Outcomes) == 0 || applied == 0:
		return ApplyStatusNone
	case applied == len(r.Outcomes):
		return ApplyStatusAll
	default:
		return ApplyStatusPartial
	}
}

// Executor applies an approved proposal to the calendar. Each target is
// mutated independently; one failure never rolls back or blocks the others.
type Executor struct {
	source calendar.Source
	logger *slog.Logger
}

// NewExecutor creates an executor.
func NewExecutor(source calendar.Source, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{source: source, logger: logger}
}

// Apply mutates the calendar per the proposal's action. Reschedule actions
// consume slots in order, one per target. Suggestion and manual actions touch
// nothing and report every target as pending.
func (e *Executor) Apply(ctx context.Context, proposal domain.Proposal, slots []availability.Slot) (ApplyResult, error) {
	var result ApplyResult

	switch proposal.Action {
	case domain.ActionRescheduleLower:
		for i, target := range proposal.Targets {
			result.Outcomes = append(result.Outcomes, e.reschedule(ctx, target, slots, i))
		}
	case domain.ActionDeclineLower:
		for _, target := range proposal.Targets {
			result.Outcomes = append(result.Outcomes, e.decline(ctx, target, proposal.Description))
		}
	case domain.ActionSuggestResched, domain.ActionManualDecision:
		for _, target := range proposal.Targets {
			result.Outcomes = append(result.Outcomes, TargetOutcome{
				EventID: target.Event.ID,
				Subject: target.Event.Subject,
				Detail:  "no calendar change; awaiting user decision",
			})
		}
	default:
		return ApplyResult{}, fmt.Errorf("cannot apply action %q", proposal.Action)
	}

	return result, nil
}

// Cancel cancels an event the user organizes. Unlike Apply this is a direct
// user order on a single event, so failures are surfaced instead of collected.
func (e *Executor) Cancel(ctx context.Context, eventID, message string) error {
	if err := e.source.CancelEvent(ctx, eventID, message); err != nil {
		return fmt.Errorf("cancelling event %s: %w", eventID, err)
	}
	e.logger.Info("event cancelled", "event_id", eventID)
	return nil
}

func (e *Executor) reschedule(ctx context.Context, target domain.ScoredEvent, slots []availability.Slot, index int) TargetOutcome {
	outcome := TargetOutcome{EventID: target.Event.ID, Subject: target.Event.Subject}
	if index >= len(slots) {
		outcome.Detail = "no free slot available"
		return outcome
	}

	slot := slots[index]
	duration := target.Event.End.Sub(target.Event.Start)
	newEnd := slot.Start.Add(duration)
	if err := e.source.UpdateEvent(ctx, target.Event.ID, slot.Start, newEnd); err != nil {
		e.logger.Warn("rescheduling event failed",
			"event_id", target.Event.ID,
			"error", err,
		)
		outcome.Detail = fmt.Sprintf("reschedule failed: %v", err)
		return outcome
	}

	outcome.Applied = true
	outcome.Detail = fmt.Sprintf("moved to %s", slot.Start.Format("2006-01-02 15:04"))
	return outcome
}

func (e *Executor) decline(ctx context.Context, target domain.ScoredEvent, message string) TargetOutcome {
	outcome := TargetOutcome{EventID: target.Event.ID, Subject: target.Event.Subject}

	err := e.source.DeclineEvent(ctx, target.Event.ID, message)
	if errors.Is(err, calendar.ErrResponseNotRequested) {
		// The organizer did not ask for responses; update our own copy
		// silently instead.
		err = e.source.MarkDeclined(ctx, target.Event.ID)
		if err == nil {
			outcome.Applied = true
			outcome.Detail = "declined silently (no response requested)"
			return outcome
		}
	}
	if err != nil {
		e.logger.Warn("declining event failed",
			"event_id", target.Event.ID,
			"error", err,
		)
		outcome.Detail = fmt.Sprintf("decline failed: %v", err)
		return outcome
	}

	outcome.Applied = true
	outcome.Detail = "declined"
	return outcome
}
