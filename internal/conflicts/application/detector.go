// Package application runs conflict detection over a calendar window.
package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	calendar "untangle/internal/calendar/domain"
	"untangle/internal/conflicts/domain"
	"untangle/internal/shared/infrastructure/eventbus"
)

// Detector fetches a calendar window, partitions it into conflict groups and
// drops groups the user's ignore rules cover.
type Detector struct {
	source    calendar.Source
	ignore    []domain.IgnoreRule
	publisher eventbus.Publisher
	logger    *slog.Logger
}

// NewDetector creates a detector. publisher may be nil.
func NewDetector(source calendar.Source, ignore []domain.IgnoreRule, publisher eventbus.Publisher, logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{source: source, ignore: ignore, publisher: publisher, logger: logger}
}

// Detect returns the conflict groups within [start, end), ignore rules
// applied. One ConflictDetected event is published per surviving group;
// publish failures are logged, not surfaced.
func (d *Detector) Detect(ctx context.Context, start, end time.Time) ([]domain.ConflictGroup, error) {
	events, err := d.source.ListEvents(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("listing calendar events: %w", err)
	}

	groups := domain.GroupOverlapping(events)
	filtered := domain.FilterGroups(groups, d.ignore)
	d.logger.Info("conflict detection completed",
		"events", len(events),
		"groups", len(groups),
		"ignored", len(groups)-len(filtered),
	)

	for _, group := range filtered {
		event := domain.NewConflictDetected(group)
		if err := eventbus.PublishDomainEvent(ctx, d.publisher, event, nil); err != nil {
			d.logger.Warn("publishing conflict event failed",
				"group_id", group.ID(),
				"error", err,
			)
		}
	}
	return filtered, nil
}
