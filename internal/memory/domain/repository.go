package domain

import (
	"context"
	"time"
)

// DecisionRepository is the port to the durable decision log. The log is
// append-only; amendments land as new lines with a higher revision.
type DecisionRepository interface {
	// Append writes a decision record.
	Append(ctx context.Context, decision Decision) error

	// LoadSince returns all records recorded at or after the cutoff, oldest
	// first, including superseded revisions.
	LoadSince(ctx context.Context, cutoff time.Time) ([]Decision, error)

	// Cleanup removes records older than the cutoff.
	Cleanup(ctx context.Context, cutoff time.Time) error
}
