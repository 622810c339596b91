// Package application records decisions and derives insights from the log.
package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	conflicts "untangle/internal/conflicts/domain"
	"untangle/internal/memory/domain"
	resolution "untangle/internal/resolution/domain"
	"untangle/internal/shared/infrastructure/eventbus"
)

// Recorder appends decision records to the primary log, mirrors them to an
// optional archive and enforces retention. The archive and the event bus are
// best effort: their failures are logged, never surfaced.
type Recorder struct {
	log       domain.DecisionRepository
	archive   domain.DecisionRepository
	publisher eventbus.Publisher
	logger    *slog.Logger
	salt      string
	retention time.Duration
	now       func() time.Time
}

// NewRecorder creates a recorder. archive and publisher may be nil.
func NewRecorder(
	log domain.DecisionRepository,
	archive domain.DecisionRepository,
	publisher eventbus.Publisher,
	logger *slog.Logger,
	salt string,
	retention time.Duration,
) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		log:       log,
		archive:   archive,
		publisher: publisher,
		logger:    logger,
		salt:      salt,
		retention: retention,
		now:       time.Now,
	}
}

// Record derives a decision record from a resolved conflict and appends it.
// Failure to write the primary log is an error; everything downstream of it
// is advisory.
func (r *Recorder) Record(
	ctx context.Context,
	group conflicts.ConflictGroup,
	proposal resolution.Proposal,
	userAction domain.UserAction,
	finalAction resolution.Action,
) (domain.Decision, error) {
	decision := domain.NewDecision(group, proposal, userAction, finalAction, r.salt, r.now())
	if err := r.append(ctx, decision); err != nil {
		return domain.Decision{}, err
	}
	r.enforceRetention(ctx)
	return decision, nil
}

// RecordFeedback appends an amended copy of an existing decision carrying the
// outcome. The copy keeps the original's recording date so both revisions
// share a partition and expire together.
func (r *Recorder) RecordFeedback(ctx context.Context, decisionID uuid.UUID, outcome domain.Outcome, comment string) (domain.Decision, error) {
	history, err := r.log.LoadSince(ctx, r.now().Add(-r.retention))
	if err != nil {
		return domain.Decision{}, fmt.Errorf("loading decision history: %w", err)
	}

	var found *domain.Decision
	for _, d := range domain.LastWriteWins(history) {
		if d.ID == decisionID {
			d := d
			found = &d
			break
		}
	}
	if found == nil {
		return domain.Decision{}, fmt.Errorf("decision %s not found", decisionID)
	}

	amended := found.WithFeedback(outcome, comment, r.now())
	if err := r.append(ctx, amended); err != nil {
		return domain.Decision{}, err
	}
	return amended, nil
}

func (r *Recorder) append(ctx context.Context, decision domain.Decision) error {
	if err := r.log.Append(ctx, decision); err != nil {
		return fmt.Errorf("appending decision: %w", err)
	}

	if r.archive != nil {
		if err := r.archive.Append(ctx, decision); err != nil {
			r.logger.Warn("decision archive write failed",
				"decision_id", decision.ID,
				"error", err,
			)
		}
	}

	event := domain.NewDecisionRecorded(decision)
	if err := eventbus.PublishDomainEvent(ctx, r.publisher, event, nil); err != nil {
		r.logger.Warn("publishing decision event failed",
			"decision_id", decision.ID,
			"error", err,
		)
	}
	return nil
}

func (r *Recorder) enforceRetention(ctx context.Context) {
	cutoff := r.now().Add(-r.retention)
	if err := r.log.Cleanup(ctx, cutoff); err != nil {
		r.logger.Warn("decision log cleanup failed", "error", err)
	}
	if r.archive != nil {
		if err := r.archive.Cleanup(ctx, cutoff); err != nil {
			r.logger.Warn("decision archive cleanup failed", "error", err)
		}
	}
}
