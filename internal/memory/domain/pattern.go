package domain

import (
	"fmt"
	"sort"
)

// Stats summarize how the user has acted on proposals within a window.
type Stats struct {
	Total         int     `json:"total"`
	Approved      int     `json:"approved"`
	Modified      int     `json:"modified"`
	Skipped       int     `json:"skipped"`
	ApprovalRate  float64 `json:"approval_rate"`
	ModifyRate    float64 `json:"modify_rate"`
	SkipRate      float64 `json:"skip_rate"`
	FeedbackCount int     `json:"feedback_count"`
	SuccessCount  int     `json:"success_count"`
}

// ComputeStats aggregates decisions. Amended copies must be collapsed with
// LastWriteWins before calling, or revisions count double.
func ComputeStats(decisions []Decision) Stats {
	stats := Stats{Total: len(decisions)}
	for _, d := range decisions {
		switch d.UserAction {
		case UserActionApprove:
			stats.Approved++
		case UserActionModify:
			stats.Modified++
		case UserActionSkip:
			stats.Skipped++
		}
		if d.Feedback != nil {
			stats.FeedbackCount++
			if d.Feedback.Outcome == OutcomeSuccess {
				stats.SuccessCount++
			}
		}
	}
	if stats.Total > 0 {
		total := float64(stats.Total)
		stats.ApprovalRate = float64(stats.Approved) / total
		stats.ModifyRate = float64(stats.Modified) / total
		stats.SkipRate = float64(stats.Skipped) / total
	}
	return stats
}

// Pattern is a mined regularity: within a feature bucket, a particular action
// was approved often enough to suggest as a default.
type Pattern struct {
	Bucket       string  `json:"bucket"`
	Action       string  `json:"action"`
	Samples      int     `json:"samples"`
	Approvals    int     `json:"approvals"`
	ApprovalRate float64 `json:"approval_rate"`
	Description  string  `json:"description"`
}

// MiningConfig bounds what counts as a pattern.
type MiningConfig struct {
	// MinSamples is the minimum decisions a bucket needs before it may
	// surface as a pattern.
	MinSamples int
	// MinBucket is the minimum decisions a bucket needs to be tallied at all.
	MinBucket int
	// ApprovalRate is the exclusive lower bound for a bucket's approval rate.
	ApprovalRate float64
}

// MinePatterns buckets decisions by gap and by time of day and reports the
// buckets where one action was consistently approved. For each condition
// bucket the most frequently approved action is chosen and its approval rate
// is computed over every decision in the bucket, approved or not. Results are
// ordered by descending approval rate, ties broken by bucket name.
func MinePatterns(decisions []Decision, cfg MiningConfig) []Pattern {
	if len(decisions) < cfg.MinSamples {
		return nil
	}

	type tally struct {
		samples   int
		approvals map[string]int
	}
	buckets := make(map[string]*tally)

	for _, d := range decisions {
		for _, bucket := range []string{d.Features.GapBucket, d.Features.TimeOfDay} {
			if bucket == "" {
				continue
			}
			t := buckets[bucket]
			if t == nil {
				t = &tally{approvals: make(map[string]int)}
				buckets[bucket] = t
			}
			t.samples++
			if d.UserAction == UserActionApprove {
				t.approvals[string(d.EffectiveAction())]++
			}
		}
	}

	var patterns []Pattern
	for bucket, t := range buckets {
		if t.samples < cfg.MinBucket || t.samples < cfg.MinSamples {
			continue
		}
		action, approved := mostApprovedAction(t.approvals)
		if approved == 0 {
			continue
		}
		rate := float64(approved) / float64(t.samples)
		if rate <= cfg.ApprovalRate {
			continue
		}
		patterns = append(patterns, Pattern{
			Bucket:       bucket,
			Action:       action,
			Samples:      t.samples,
			Approvals:    approved,
			ApprovalRate: rate,
			Description: fmt.Sprintf("%s conflicts: %s approved %d of %d times",
				bucket, action, approved, t.samples),
		})
	}

	sort.Slice(patterns, func(i, j int) bool {
		if patterns[i].ApprovalRate != patterns[j].ApprovalRate {
			return patterns[i].ApprovalRate > patterns[j].ApprovalRate
		}
		if patterns[i].Bucket != patterns[j].Bucket {
			return patterns[i].Bucket < patterns[j].Bucket
		}
		return patterns[i].Action < patterns[j].Action
	})
	return patterns
}

// mostApprovedAction picks the action with the most approvals, ties broken
// alphabetically so results are deterministic.
func mostApprovedAction(approvals map[string]int) (string, int) {
	var best string
	var count int
	for action, n := range approvals {
		if n > count || (n == count && count > 0 && action < best) {
			best = action
			count = n
		}
	}
	return best, count
}
