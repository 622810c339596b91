// Package domain contains the conflict-detection model: calendar event
// snapshots, overlap grouping and user-authored ignore rules.
package domain

import (
	"time"
)

// ShowAs is a calendar event's declared busy-state.
type ShowAs string

const (
	ShowAsFree             ShowAs = "free"
	ShowAsTentative        ShowAs = "tentative"
	ShowAsBusy             ShowAs = "busy"
	ShowAsOOF              ShowAs = "oof"
	ShowAsWorkingElsewhere ShowAs = "workingElsewhere"
	ShowAsUnknown          ShowAs = "unknown"
)

// ResponseStatus is the current user's own response to an event.
type ResponseStatus string

const (
	ResponseNone      ResponseStatus = "none"
	ResponseAccepted  ResponseStatus = "accepted"
	ResponseDeclined  ResponseStatus = "declined"
	ResponseOrganizer ResponseStatus = "organizer"
)

// TimeRange represents a half-open time period [Start, End).
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// Overlaps checks if two time ranges overlap. Touching boundaries do not
// overlap: [10:00, 11:00) and [11:00, 12:00) are disjoint.
func (t TimeRange) Overlaps(other TimeRange) bool {
	return t.Start.Before(other.End) && other.Start.Before(t.End)
}

// Duration returns the duration of the time range.
func (t TimeRange) Duration() time.Duration {
	return t.End.Sub(t.Start)
}

// IsZeroDuration reports whether start and end coincide. Upstream free/busy
// feeds occasionally emit such anomalies; they must be treated as ignorable,
// not busy.
func (t TimeRange) IsZeroDuration() bool {
	return !t.Start.Before(t.End)
}

// Event is an immutable snapshot of a calendar item at query time.
type Event struct {
	ID             string
	Subject        string
	Start          time.Time
	End            time.Time
	Organizer      string
	Attendees      []string
	IsAllDay       bool
	IsCancelled    bool
	ShowAs         ShowAs
	ResponseStatus ResponseStatus
}

// Range returns the event's time range.
func (e Event) Range() TimeRange {
	return TimeRange{Start: e.Start, End: e.End}
}

// IsEligibleForConflict reports whether the event can participate in a
// conflict group. Declined, cancelled, all-day and show-as-free events never
// conflict: they represent commitments the user has already released or
// blocking time that is tentative by declaration.
func (e Event) IsEligibleForConflict() bool {
	if e.IsCancelled || e.IsAllDay {
		return false
	}
	if e.ResponseStatus == ResponseDeclined {
		return false
	}
	if e.ShowAs == ShowAsFree {
		return false
	}
	return !e.Range().IsZeroDuration()
}

// BlocksTime reports whether the event occupies time on the user's own
// calendar for slot-search purposes. All-day events block the whole day
// unless marked free.
func (e Event) BlocksTime() bool {
	if e.IsCancelled || e.ShowAs == ShowAsFree {
		return false
	}
	if e.IsAllDay {
		return true
	}
	return !e.Range().IsZeroDuration()
}
