// Package application coordinates the data fetches feeding the slot search.
package application

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"untangle/internal/availability/domain"
	calendar "untangle/internal/calendar/domain"
	conflicts "untangle/internal/conflicts/domain"
)

// SlotFinder fetches the user's calendar and attendee free/busy data, then
// runs the pure slot search. The two fetches are independent and read-only,
// so they run concurrently and join before the search.
type SlotFinder struct {
	source   calendar.Source
	freeBusy calendar.FreeBusyProvider
	logger   *slog.Logger
}

// NewSlotFinder creates a slot finder.
func NewSlotFinder(source calendar.Source, freeBusy calendar.FreeBusyProvider, logger *slog.Logger) *SlotFinder {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlotFinder{source: source, freeBusy: freeBusy, logger: logger}
}

// FindSlots returns candidate slots for the given search parameters and
// required attendees. An empty result is a valid negative outcome; an error
// means a data fetch failed and the search could not run.
func (f *SlotFinder) FindSlots(ctx context.Context, params domain.SearchParams, attendees []string) ([]domain.Slot, error) {
	windowStart := params.Now
	windowEnd := params.Now.AddDate(0, 0, params.WindowDays)

	var (
		ownEvents []conflicts.Event
		views     []domain.FreeBusyView
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		events, err := f.source.ListEvents(gctx, windowStart, windowEnd)
		if err != nil {
			return fmt.Errorf("listing own calendar: %w", err)
		}
		ownEvents = events
		return nil
	})
	if len(attendees) > 0 && f.freeBusy != nil {
		g.Go(func() error {
			fetched, err := f.freeBusy.GetFreeBusy(gctx, attendees, windowStart, windowEnd)
			if err != nil {
				return fmt.Errorf("fetching free/busy: %w", err)
			}
			views = fetched
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	slots := domain.SearchSlots(params, ownEvents, views)
	f.logger.Debug("slot search completed",
		"own_events", len(ownEvents),
		"attendees", len(attendees),
		"candidates", len(slots),
	)
	return slots, nil
}
