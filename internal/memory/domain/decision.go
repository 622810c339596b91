// Package domain models the append-only decision memory: durable records of
// past human decisions and the statistics and patterns derived from them.
package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	conflicts "untangle/internal/conflicts/domain"
	resolution "untangle/internal/resolution/domain"
)

// SchemaVersion is stamped on every persisted record. The structure of a
// decision has changed before; readers use this field to interpret old lines.
const SchemaVersion = 1

// UserAction is what the user actually did with a proposal.
type UserAction string

const (
	UserActionApprove UserAction = "approve"
	UserActionModify  UserAction = "modify"
	UserActionSkip    UserAction = "skip"
)

// Outcome is optional later feedback on how a decision worked out.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// Gap buckets for pattern features.
const (
	GapBucketSmall  = "gap_small"  // < 25
	GapBucketMedium = "gap_medium" // 25-49
	GapBucketLarge  = "gap_large"  // >= 50
)

// Time-of-day buckets for pattern features.
const (
	TimeBucketMorning   = "morning"   // before 12:00
	TimeBucketAfternoon = "afternoon" // 12:00-16:59
	TimeBucketEvening   = "evening"   // from 17:00
)

// Features are the anonymized dimensions mined for patterns.
type Features struct {
	GapBucket   string `json:"gap_bucket"`
	AttendeeSum int    `json:"attendee_sum"`
	TimeOfDay   string `json:"time_of_day"`
	DayOfWeek   string `json:"day_of_week"`
}

// Feedback is attached after the fact by appending an amended copy of the
// decision; the original line is never rewritten.
type Feedback struct {
	Outcome    Outcome   `json:"outcome"`
	Comment    string    `json:"comment,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Decision is the durable record of one resolved conflict. It stores a
// fingerprint of the conflict shape, never raw subjects or attendee
// addresses.
type Decision struct {
	ID             uuid.UUID         `json:"id"`
	SchemaVersion  int               `json:"schema_version"`
	Revision       int               `json:"revision"`
	RecordedAt     time.Time         `json:"recorded_at"`
	Fingerprint    string            `json:"fingerprint"`
	ProposedAction resolution.Action `json:"proposed_action"`
	PriorityGap    int               `json:"priority_gap"`
	UserAction     UserAction        `json:"user_action"`
	FinalAction    resolution.Action `json:"final_action,omitempty"`
	Features       Features          `json:"features"`
	Feedback       *Feedback         `json:"feedback,omitempty"`
}

// NewDecision derives the durable record from a resolved conflict. finalAction
// is only meaningful when userAction is modify; otherwise the proposed action
// stands.
func NewDecision(
	group conflicts.ConflictGroup,
	proposal resolution.Proposal,
	userAction UserAction,
	finalAction resolution.Action,
	salt string,
	now time.Time,
) Decision {
	if userAction != UserActionModify {
		finalAction = ""
	}
	return Decision{
		ID:             uuid.New(),
		SchemaVersion:  SchemaVersion,
		Revision:       1,
		RecordedAt:     now.UTC(),
		Fingerprint:    Fingerprint(group, proposal, salt),
		ProposedAction: proposal.Action,
		PriorityGap:    proposal.Gap,
		UserAction:     userAction,
		FinalAction:    finalAction,
		Features:       extractFeatures(group, proposal),
	}
}

// EffectiveAction is the action that was actually taken: the final action for
// modified decisions, the proposed one otherwise.
func (d Decision) EffectiveAction() resolution.Action {
	if d.UserAction == UserActionModify && d.FinalAction != "" {
		return d.FinalAction
	}
	return d.ProposedAction
}

// WithFeedback returns an amended copy carrying the outcome, with a bumped
// revision. Appending the copy, not editing in place, keeps the log
// append-only.
func (d Decision) WithFeedback(outcome Outcome, comment string, now time.Time) Decision {
	amended := d
	amended.Revision++
	amended.Feedback = &Feedback{
		Outcome:    outcome,
		Comment:    comment,
		RecordedAt: now.UTC(),
	}
	return amended
}

// Fingerprint produces a salted one-way hash of the conflict's shape: its
// time range, event count and score spread. Identifying text never enters the
// hash input.
func Fingerprint(group conflicts.ConflictGroup, proposal resolution.Proposal, salt string) string {
	r := group.Range()
	input := fmt.Sprintf("%s|%d|%d|%d|%d",
		salt,
		r.Start.Unix(),
		group.Size(),
		proposal.MaxScore,
		proposal.MinScore,
	)
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}

// LastWriteWins collapses a decision and its later amended copies into one
// logical record per ID, keeping the highest revision. Order of the result
// follows first appearance in the input.
func LastWriteWins(decisions []Decision) []Decision {
	latest := make(map[uuid.UUID]Decision, len(decisions))
	order := make([]uuid.UUID, 0, len(decisions))
	for _, d := range decisions {
		existing, seen := latest[d.ID]
		if !seen {
			order = append(order, d.ID)
			latest[d.ID] = d
			continue
		}
		if d.Revision > existing.Revision {
			latest[d.ID] = d
		}
	}
	result := make([]Decision, 0, len(order))
	for _, id := range order {
		result = append(result, latest[id])
	}
	return result
}

func extractFeatures(group conflicts.ConflictGroup, proposal resolution.Proposal) Features {
	attendeeSum := 0
	for _, e := range group.Events() {
		attendeeSum += len(e.Attendees)
	}

	start := group.Range().Start
	return Features{
		GapBucket:   gapBucket(proposal.Gap),
		AttendeeSum: attendeeSum,
		TimeOfDay:   timeBucket(start.Hour()),
		DayOfWeek:   start.Weekday().String(),
	}
}

func gapBucket(gap int) string {
	switch {
	case gap >= 50:
		return GapBucketLarge
	case gap >= 25:
		return GapBucketMedium
	default:
		return GapBucketSmall
	}
}

func timeBucket(hour int) string {
	switch {
	case hour < 12:
		return TimeBucketMorning
	case hour < 17:
		return TimeBucketAfternoon
	default:
		return TimeBucketEvening
	}
}

// SortByRecordedAt orders decisions oldest first.
func SortByRecordedAt(decisions []Decision) {
	sort.Slice(decisions, func(i, j int) bool {
		return decisions[i].RecordedAt.Before(decisions[j].RecordedAt)
	})
}
