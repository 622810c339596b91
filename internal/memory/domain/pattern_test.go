package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	resolution "untangle/internal/resolution/domain"
)

func decisionWith(action UserAction, gapBucket, timeOfDay string, proposed resolution.Action) Decision {
	return Decision{
		UserAction:     action,
		ProposedAction: proposed,
		Features: Features{
			GapBucket: gapBucket,
			TimeOfDay: timeOfDay,
		},
	}
}

func TestComputeStats(t *testing.T) {
	decisions := []Decision{
		decisionWith(UserActionApprove, GapBucketLarge, TimeBucketMorning, resolution.ActionRescheduleLower),
		decisionWith(UserActionApprove, GapBucketLarge, TimeBucketMorning, resolution.ActionRescheduleLower),
		decisionWith(UserActionModify, GapBucketSmall, TimeBucketEvening, resolution.ActionManualDecision),
		decisionWith(UserActionSkip, GapBucketSmall, TimeBucketEvening, resolution.ActionManualDecision),
	}
	decisions[0].Feedback = &Feedback{Outcome: OutcomeSuccess}

	stats := ComputeStats(decisions)
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 2, stats.Approved)
	assert.Equal(t, 1, stats.Modified)
	assert.Equal(t, 1, stats.Skipped)
	assert.InDelta(t, 0.5, stats.ApprovalRate, 1e-9)
	assert.InDelta(t, 0.25, stats.ModifyRate, 1e-9)
	assert.InDelta(t, 0.25, stats.SkipRate, 1e-9)
	assert.Equal(t, 1, stats.FeedbackCount)
	assert.Equal(t, 1, stats.SuccessCount)
}

func TestComputeStats_Empty(t *testing.T) {
	stats := ComputeStats(nil)
	assert.Zero(t, stats.Total)
	assert.Zero(t, stats.ApprovalRate)
}

func defaultMining() MiningConfig {
	return MiningConfig{MinSamples: 5, MinBucket: 3, ApprovalRate: 0.7}
}

func TestMinePatterns_BelowMinSamplesReturnsNothing(t *testing.T) {
	decisions := []Decision{
		decisionWith(UserActionApprove, GapBucketLarge, TimeBucketMorning, resolution.ActionRescheduleLower),
		decisionWith(UserActionApprove, GapBucketLarge, TimeBucketMorning, resolution.ActionRescheduleLower),
		decisionWith(UserActionApprove, GapBucketLarge, TimeBucketMorning, resolution.ActionRescheduleLower),
		decisionWith(UserActionApprove, GapBucketLarge, TimeBucketMorning, resolution.ActionRescheduleLower),
	}
	assert.Nil(t, MinePatterns(decisions, defaultMining()))
}

func TestMinePatterns_ConsistentApprovalSurfaces(t *testing.T) {
	var decisions []Decision
	// 5 of 5 large-gap reschedules approved in the morning.
	for i := 0; i < 5; i++ {
		decisions = append(decisions, decisionWith(UserActionApprove, GapBucketLarge, TimeBucketMorning, resolution.ActionRescheduleLower))
	}
	// Noise in a different bucket, too small to surface.
	decisions = append(decisions,
		decisionWith(UserActionSkip, GapBucketSmall, TimeBucketEvening, resolution.ActionManualDecision),
		decisionWith(UserActionSkip, GapBucketSmall, TimeBucketEvening, resolution.ActionManualDecision),
	)

	patterns := MinePatterns(decisions, defaultMining())
	require.NotEmpty(t, patterns)
	for _, p := range patterns {
		assert.Equal(t, string(resolution.ActionRescheduleLower), p.Action)
		assert.GreaterOrEqual(t, p.Samples, 5)
		assert.Greater(t, p.ApprovalRate, 0.7)
	}

	buckets := make(map[string]bool)
	for _, p := range patterns {
		buckets[p.Bucket] = true
	}
	assert.True(t, buckets[GapBucketLarge])
	assert.True(t, buckets[TimeBucketMorning])
}

func TestMinePatterns_BucketBelowMinSamplesDoesNotSurface(t *testing.T) {
	var decisions []Decision
	// 3 unanimous approvals clear the tally floor but not the recommendation
	// minimum of 5.
	for i := 0; i < 3; i++ {
		decisions = append(decisions, decisionWith(UserActionApprove, GapBucketLarge, TimeBucketMorning, resolution.ActionRescheduleLower))
	}
	decisions = append(decisions,
		decisionWith(UserActionSkip, GapBucketSmall, TimeBucketEvening, resolution.ActionManualDecision),
		decisionWith(UserActionSkip, GapBucketSmall, TimeBucketEvening, resolution.ActionManualDecision),
	)

	assert.Empty(t, MinePatterns(decisions, defaultMining()))
}

func TestMinePatterns_RateSpansWholeBucket(t *testing.T) {
	var decisions []Decision
	// 4 approved reschedules and 3 skipped manual decisions share the bucket;
	// the rate is 4/7, below the threshold, so no pattern may surface even
	// though every approval agrees on one action.
	for i := 0; i < 4; i++ {
		decisions = append(decisions, decisionWith(UserActionApprove, GapBucketLarge, TimeBucketMorning, resolution.ActionRescheduleLower))
	}
	for i := 0; i < 3; i++ {
		decisions = append(decisions, decisionWith(UserActionSkip, GapBucketLarge, TimeBucketMorning, resolution.ActionManualDecision))
	}

	assert.Empty(t, MinePatterns(decisions, defaultMining()))
}

func TestMinePatterns_PicksMostApprovedAction(t *testing.T) {
	var decisions []Decision
	for i := 0; i < 5; i++ {
		decisions = append(decisions, decisionWith(UserActionApprove, GapBucketLarge, TimeBucketMorning, resolution.ActionRescheduleLower))
	}
	decisions = append(decisions, decisionWith(UserActionApprove, GapBucketLarge, TimeBucketMorning, resolution.ActionDeclineLower))

	patterns := MinePatterns(decisions, defaultMining())
	require.NotEmpty(t, patterns)
	for _, p := range patterns {
		assert.Equal(t, string(resolution.ActionRescheduleLower), p.Action)
		assert.Equal(t, 5, p.Approvals)
		assert.Equal(t, 6, p.Samples)
		assert.InDelta(t, 5.0/6.0, p.ApprovalRate, 1e-9)
	}
}

func TestMinePatterns_ApprovalRateBoundIsExclusive(t *testing.T) {
	var decisions []Decision
	// Exactly 0.7: 7 approvals of 10 must not surface.
	for i := 0; i < 7; i++ {
		decisions = append(decisions, decisionWith(UserActionApprove, GapBucketMedium, TimeBucketAfternoon, resolution.ActionSuggestResched))
	}
	for i := 0; i < 3; i++ {
		decisions = append(decisions, decisionWith(UserActionSkip, GapBucketMedium, TimeBucketAfternoon, resolution.ActionSuggestResched))
	}

	assert.Empty(t, MinePatterns(decisions, defaultMining()))
}

func TestMinePatterns_ModificationsDiluteApprovalRate(t *testing.T) {
	var decisions []Decision
	for i := 0; i < 4; i++ {
		decisions = append(decisions, decisionWith(UserActionApprove, GapBucketLarge, TimeBucketMorning, resolution.ActionRescheduleLower))
	}
	d := decisionWith(UserActionModify, GapBucketLarge, TimeBucketMorning, resolution.ActionRescheduleLower)
	d.FinalAction = resolution.ActionDeclineLower
	decisions = append(decisions, d)

	// The modification counts toward the bucket but not toward approvals.
	patterns := MinePatterns(decisions, defaultMining())
	require.NotEmpty(t, patterns)
	for _, p := range patterns {
		assert.Equal(t, string(resolution.ActionRescheduleLower), p.Action)
		assert.Equal(t, 4, p.Approvals)
		assert.Equal(t, 5, p.Samples)
		assert.InDelta(t, 0.8, p.ApprovalRate, 1e-9)
	}
}

func TestMinePatterns_NoApprovalsNoPattern(t *testing.T) {
	var decisions []Decision
	for i := 0; i < 6; i++ {
		decisions = append(decisions, decisionWith(UserActionSkip, GapBucketLarge, TimeBucketMorning, resolution.ActionManualDecision))
	}
	assert.Empty(t, MinePatterns(decisions, MiningConfig{MinSamples: 5, MinBucket: 3, ApprovalRate: -1}))
}

func TestMinePatterns_Ordering(t *testing.T) {
	var decisions []Decision
	for i := 0; i < 5; i++ {
		decisions = append(decisions, decisionWith(UserActionApprove, GapBucketLarge, TimeBucketMorning, resolution.ActionRescheduleLower))
	}
	for i := 0; i < 5; i++ {
		decisions = append(decisions, decisionWith(UserActionApprove, GapBucketMedium, TimeBucketEvening, resolution.ActionSuggestResched))
	}
	decisions = append(decisions, decisionWith(UserActionSkip, GapBucketMedium, TimeBucketEvening, resolution.ActionSuggestResched))

	patterns := MinePatterns(decisions, defaultMining())
	require.True(t, len(patterns) >= 2)
	for i := 1; i < len(patterns); i++ {
		assert.GreaterOrEqual(t, patterns[i-1].ApprovalRate, patterns[i].ApprovalRate)
	}
}
