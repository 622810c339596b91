// Package application refines and applies resolution proposals.
package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"

	conflicts "untangle/internal/conflicts/domain"
	"untangle/internal/resolution/domain"
	"untangle/internal/shared/infrastructure/eventbus"
)

// Analysis is the advisor's judgment on one conflict group.
type Analysis struct {
	Action       domain.Action
	Reasoning    string
	Confidence   float64
	Alternatives []string
}

// Advisor is the port to an external analysis service.
type Advisor interface {
	Analyze(ctx context.Context, group conflicts.ConflictGroup, proposal domain.Proposal, scored []domain.ScoredEvent) (Analysis, error)
}

// RefinerConfig configures the circuit breaker guarding the advisor.
type RefinerConfig struct {
	// MaxRequests is the number of probes allowed while half-open.
	MaxRequests uint32

	// Interval is the cyclic period of the closed state.
	Interval time.Duration

	// Timeout is the period of the open state.
	Timeout time.Duration

	// FailureThreshold trips the breaker after this many consecutive failures.
	FailureThreshold uint32
}

// DefaultRefinerConfig returns a sensible default configuration.
func DefaultRefinerConfig() RefinerConfig {
	return RefinerConfig{
		MaxRequests:      2,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 3,
	}
}

// Refiner asks the advisor to second-guess a rule-based proposal. The advisor
// is optional and unreliable by assumption: any failure, including an open
// breaker, leaves the rule proposal untouched.
type Refiner struct {
	advisor   Advisor
	breaker   *gobreaker.CircuitBreaker[Analysis]
	publisher eventbus.Publisher
	logger    *slog.Logger
}

// NewRefiner creates a refiner. advisor and publisher may be nil; a nil
// advisor disables refinement.
func NewRefiner(advisor Advisor, publisher eventbus.Publisher, config RefinerConfig, logger *slog.Logger) *Refiner {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Refiner{advisor: advisor, publisher: publisher, logger: logger}
	if advisor == nil {
		return r
	}

	settings := gobreaker.Settings{
		Name:        "resolution-advisor",
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	}
	r.breaker = gobreaker.NewCircuitBreaker[Analysis](settings)
	return r
}

// Refine returns the advisor-enriched proposal, or the rule proposal as-is
// when no advisor is configured or the call fails. A ProposalResolved event
// is published for the returned proposal either way.
func (r *Refiner) Refine(ctx context.Context, group conflicts.ConflictGroup, proposal domain.Proposal, scored []domain.ScoredEvent) domain.Proposal {
	if r.advisor == nil {
		r.publishResolved(ctx, proposal)
		return proposal
	}

	analysis, err := r.breaker.Execute(func() (Analysis, error) {
		return r.advisor.Analyze(ctx, group, proposal, scored)
	})
	if err != nil {
		r.logger.Warn("advisor unavailable, keeping rule proposal",
			"group_id", proposal.GroupID,
			"error", err,
		)
		r.publishResolved(ctx, proposal)
		return proposal
	}

	refined := proposal
	refined.Source = domain.SourceAdvisor
	refined.Action = analysis.Action
	if analysis.Reasoning != "" {
		refined.Description = analysis.Reasoning
	}
	refined.Confidence = analysis.Confidence
	refined.Alternatives = analysis.Alternatives
	r.publishResolved(ctx, refined)
	return refined
}

func (r *Refiner) publishResolved(ctx context.Context, proposal domain.Proposal) {
	event := domain.NewProposalResolved(proposal)
	if err := eventbus.PublishDomainEvent(ctx, r.publisher, event, nil); err != nil {
		r.logger.Warn("publishing proposal event failed",
			"group_id", proposal.GroupID,
			"error", err,
		)
	}
}
