package application

import (
	"context"
	"fmt"
	"time"

	"untangle/internal/memory/domain"
)

// Insights answers read queries over the decision log: aggregate statistics
// and mined approval patterns. Amended revisions are collapsed before any
// aggregation so each decision counts once.
type Insights struct {
	log    domain.DecisionRepository
	mining domain.MiningConfig
	now    func() time.Time
}

// NewInsights creates an insights query service.
func NewInsights(log domain.DecisionRepository, mining domain.MiningConfig) *Insights {
	return &Insights{log: log, mining: mining, now: time.Now}
}

// Stats aggregates decisions from the last windowDays days.
func (i *Insights) Stats(ctx context.Context, windowDays int) (domain.Stats, error) {
	decisions, err := i.history(ctx, windowDays)
	if err != nil {
		return domain.Stats{}, err
	}
	return domain.ComputeStats(decisions), nil
}

// Patterns mines the last windowDays days for consistently approved actions.
func (i *Insights) Patterns(ctx context.Context, windowDays int) ([]domain.Pattern, error) {
	decisions, err := i.history(ctx, windowDays)
	if err != nil {
		return nil, err
	}
	return domain.MinePatterns(decisions, i.mining), nil
}

// History returns the collapsed decision records of the last windowDays days,
// oldest first.
func (i *Insights) History(ctx context.Context, windowDays int) ([]domain.Decision, error) {
	return i.history(ctx, windowDays)
}

func (i *Insights) history(ctx context.Context, windowDays int) ([]domain.Decision, error) {
	cutoff := i.now().AddDate(0, 0, -windowDays)
	raw, err := i.log.LoadSince(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("loading decision history: %w", err)
	}
	collapsed := domain.LastWriteWins(raw)
	domain.SortByRecordedAt(collapsed)
	return collapsed, nil
}
