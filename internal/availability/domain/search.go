package domain

import (
	"time"

	conflicts "untangle/internal/conflicts/domain"
)

// SearchParams configures one slot search.
type SearchParams struct {
	// Now anchors the rolling window; slots never start before
	// Now + LeadTime on the first day.
	Now      time.Time
	Location *time.Location

	Duration   time.Duration
	WindowDays int
	LeadTime   time.Duration // minimum notice before the first slot

	BusinessDayStart time.Duration // offset from midnight
	BusinessDayEnd   time.Duration
	Step             time.Duration

	// Holidays in YYYY-MM-DD form, evaluated in Location.
	Holidays map[string]struct{}

	MaxResults int

	// OriginalStart, when set, excludes the slot matching a reschedule's
	// current time so the search never proposes the status quo.
	OriginalStart *time.Time
}

// DefaultSearchParams returns the standard search configuration anchored at
// now.
func DefaultSearchParams(now time.Time, loc *time.Location) SearchParams {
	return SearchParams{
		Now:              now,
		Location:         loc,
		WindowDays:       14,
		LeadTime:         30 * time.Minute,
		BusinessDayStart: 9 * time.Hour,
		BusinessDayEnd:   19 * time.Hour,
		Step:             30 * time.Minute,
		MaxResults:       20,
	}
}

// SearchSlots enumerates open slots in the rolling window. Only workdays are
// considered; each candidate must clear the user's own busy events and every
// attendee's free/busy view. Results come back ascending by start time,
// capped at MaxResults because downstream choice lists assume a short list.
func SearchSlots(params SearchParams, ownEvents []conflicts.Event, views []FreeBusyView) []Slot {
	if params.Duration <= 0 || params.WindowDays <= 0 {
		return nil
	}
	loc := params.Location
	if loc == nil {
		loc = time.Local
	}
	step := params.Step
	if step <= 0 {
		step = 30 * time.Minute
	}
	maxResults := params.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	now := params.Now.In(loc)
	earliest := roundUpToStep(now.Add(params.LeadTime), step)

	slots := make([]Slot, 0, maxResults)
	for dayOffset := 0; dayOffset < params.WindowDays; dayOffset++ {
		day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, dayOffset)
		if !isWorkday(day, params.Holidays) {
			continue
		}

		start := day.Add(params.BusinessDayStart)
		end := day.Add(params.BusinessDayEnd)
		if dayOffset == 0 && earliest.After(start) {
			start = earliest
		}

		for t := start; !t.Add(params.Duration).After(end); t = t.Add(step) {
			trial := Slot{Start: t, End: t.Add(params.Duration)}
			if params.OriginalStart != nil && t.Equal(*params.OriginalStart) {
				continue
			}
			if overlapsOwnCalendar(trial, ownEvents) {
				continue
			}
			if !attendeesFree(trial, views) {
				continue
			}
			slots = append(slots, trial)
			if len(slots) == maxResults {
				return slots
			}
		}
	}
	return slots
}

func isWorkday(day time.Time, holidays map[string]struct{}) bool {
	if day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
		return false
	}
	if holidays != nil {
		if _, ok := holidays[day.Format("2006-01-02")]; ok {
			return false
		}
	}
	return true
}

func overlapsOwnCalendar(trial Slot, events []conflicts.Event) bool {
	trialRange := conflicts.TimeRange{Start: trial.Start, End: trial.End}
	for _, e := range events {
		if !e.BlocksTime() {
			continue
		}
		if e.Range().Overlaps(trialRange) {
			return true
		}
	}
	return false
}

func attendeesFree(trial Slot, views []FreeBusyView) bool {
	for _, v := range views {
		if !v.IsFreeDuring(trial.Start, trial.End) {
			return false
		}
	}
	return true
}

func roundUpToStep(t time.Time, step time.Duration) time.Time {
	rounded := t.Truncate(step)
	if rounded.Before(t) {
		rounded = rounded.Add(step)
	}
	return rounded
}
