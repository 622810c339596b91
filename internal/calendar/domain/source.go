// Package domain defines the ports to the external calendar collaborator.
package domain

import (
	"context"
	"errors"
	"time"

	availability "untangle/internal/availability/domain"
	conflicts "untangle/internal/conflicts/domain"
)

var (
	// ErrResponseNotRequested is returned by DeclineEvent when the event did
	// not ask for a response. Callers fall back to a silent status update.
	ErrResponseNotRequested = errors.New("event response not requested")

	// ErrNotSupported is returned by read-only sources for mutations.
	ErrNotSupported = errors.New("operation not supported by calendar source")
)

// Source provides the user's own calendar.
type Source interface {
	// ListEvents returns event snapshots within [start, end).
	ListEvents(ctx context.Context, start, end time.Time) ([]conflicts.Event, error)

	// UpdateEvent moves an event to a new time.
	UpdateEvent(ctx context.Context, id string, newStart, newEnd time.Time) error

	// DeclineEvent declines an event with a message. Returns
	// ErrResponseNotRequested when the organizer did not request responses.
	DeclineEvent(ctx context.Context, id, message string) error

	// MarkDeclined silently updates the event's status without notifying the
	// organizer; the fallback for ErrResponseNotRequested.
	MarkDeclined(ctx context.Context, id string) error

	// CancelEvent cancels an event the user organizes.
	CancelEvent(ctx context.Context, id, message string) error
}

// FreeBusyProvider exposes attendee availability without event details.
type FreeBusyProvider interface {
	// GetFreeBusy returns one view per requested attendee covering
	// [start, end).
	GetFreeBusy(ctx context.Context, attendees []string, start, end time.Time) ([]availability.FreeBusyView, error)
}
