package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"untangle/internal/app"
	availability "untangle/internal/availability/domain"
	conflicts "untangle/internal/conflicts/domain"
	memory "untangle/internal/memory/domain"
	priority "untangle/internal/priority/domain"
	resolutionApp "untangle/internal/resolution/application"
	resolution "untangle/internal/resolution/domain"
)

var (
	resolveDays     int
	resolveApply    bool
	resolveSkip     bool
	resolveOverride string
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Detect conflicts and propose resolutions",
	Long: `Scan the upcoming calendar window for overlapping events, score each
event against the priority rules and propose a resolution per conflict.

Examples:
  untangle resolve                       # show proposals only
  untangle resolve --apply               # apply each proposal and record approval
  untangle resolve --skip                # record a skip for each conflict
  untangle resolve --override decline_lower_priority --apply`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireCalendar()
		if err != nil {
			return err
		}
		if resolveApply && resolveSkip {
			return fmt.Errorf("--apply and --skip are mutually exclusive")
		}

		var override resolution.Action
		if resolveOverride != "" {
			override, err = resolution.ParseAction(resolveOverride)
			if err != nil {
				return err
			}
		}

		ctx := cmd.Context()
		now := time.Now().In(c.Location)
		groups, err := c.Detector.Detect(ctx, now, now.AddDate(0, 0, resolveDays))
		if err != nil {
			return err
		}
		if len(groups) == 0 {
			fmt.Printf("No conflicts in the next %d days.\n", resolveDays)
			return nil
		}

		for i, group := range groups {
			scored := scoreGroup(group, c.PriorityRules)
			proposal := c.Resolver.Resolve(group, scored)
			proposal = c.Refiner.Refine(ctx, group, proposal, scored)
			if override != "" {
				proposal.Action = override
			}

			fmt.Printf("\nConflict %d/%d\n", i+1, len(groups))
			printConflict(group, scored)
			printProposal(proposal)

			var slots []availability.Slot
			if proposal.Action.RequiresSlotSearch() {
				slots, err = findSlotsForProposal(ctx, c, proposal, now)
				if err != nil {
					fmt.Printf("  slot search failed: %v\n", err)
				} else {
					printSlots(slots, len(proposal.Targets))
				}
			}

			if err := settleConflict(ctx, c, group, proposal, override, slots); err != nil {
				return err
			}
		}

		fmt.Println()
		return nil
	},
}

// settleConflict applies and records the user's choice for one conflict.
func settleConflict(
	ctx context.Context,
	c *app.Container,
	group conflicts.ConflictGroup,
	proposal resolution.Proposal,
	override resolution.Action,
	slots []availability.Slot,
) error {
	switch {
	case resolveSkip:
		if _, err := c.Recorder.Record(ctx, group, proposal, memory.UserActionSkip, ""); err != nil {
			return err
		}
		fmt.Println("  Skipped; decision recorded.")
	case resolveApply:
		result, err := c.Executor.Apply(ctx, proposal, slots)
		if err != nil {
			return err
		}
		printApplyResult(result)

		userAction := memory.UserActionApprove
		if override != "" {
			userAction = memory.UserActionModify
		}
		if _, err := c.Recorder.Record(ctx, group, proposal, userAction, override); err != nil {
			return err
		}
		fmt.Println("  Decision recorded.")
	default:
		fmt.Println("  Re-run with --apply to act on this proposal.")
	}
	return nil
}

// scoreGroup pairs every group event with its priority result, in group order.
func scoreGroup(group conflicts.ConflictGroup, rules priority.RuleSet) []resolution.ScoredEvent {
	events := group.Events()
	results := priority.ScoreAll(events, rules)
	scored := make([]resolution.ScoredEvent, len(events))
	for i := range events {
		scored[i] = resolution.ScoredEvent{Event: events[i], Priority: results[i]}
	}
	return scored
}

// slotRequest derives the search inputs from a proposal's targets: the
// longest target duration (so any returned slot fits any target), the union
// of target attendees, and the first target's start to exclude from results.
func slotRequest(proposal resolution.Proposal) (time.Duration, []string, *time.Time) {
	var duration time.Duration
	seen := make(map[string]struct{})
	var attendees []string
	for _, target := range proposal.Targets {
		if d := target.Event.End.Sub(target.Event.Start); d > duration {
			duration = d
		}
		for _, a := range target.Event.Attendees {
			if _, ok := seen[a]; ok {
				continue
			}
			seen[a] = struct{}{}
			attendees = append(attendees, a)
		}
	}

	var originalStart *time.Time
	if len(proposal.Targets) > 0 {
		start := proposal.Targets[0].Event.Start
		originalStart = &start
	}
	return duration, attendees, originalStart
}

// findSlotsForProposal searches replacement slots for the proposal's targets.
func findSlotsForProposal(ctx context.Context, c *app.Container, proposal resolution.Proposal, now time.Time) ([]availability.Slot, error) {
	duration, attendees, originalStart := slotRequest(proposal)

	params := c.SearchParams(now)
	params.Duration = duration
	params.OriginalStart = originalStart

	return c.SlotFinder.FindSlots(ctx, params, attendees)
}

func printConflict(group conflicts.ConflictGroup, scored []resolution.ScoredEvent) {
	r := group.Range()
	fmt.Printf("  %s - %s (%d events)\n",
		r.Start.Format("Mon 2006-01-02 15:04"), r.End.Format("15:04"), group.Size())
	for _, s := range scored {
		fmt.Printf("    [%3d] %s (%s-%s) %s\n",
			s.Priority.Score,
			s.Event.Subject,
			s.Event.Start.Format("15:04"),
			s.Event.End.Format("15:04"),
			strings.Join(s.Priority.Reasons, "; "),
		)
	}
}

func printProposal(proposal resolution.Proposal) {
	fmt.Printf("  Proposal: %s (gap %d, source %s)\n", proposal.Action, proposal.Gap, proposal.Source)
	fmt.Printf("    %s\n", proposal.Description)
	if proposal.Source == resolution.SourceAdvisor {
		fmt.Printf("    confidence %.0f%%\n", proposal.Confidence*100)
		for _, alt := range proposal.Alternatives {
			fmt.Printf("    alternative: %s\n", alt)
		}
	}
	for _, target := range proposal.Targets {
		fmt.Printf("    target: %s\n", target.Event.Subject)
	}
}

func printSlots(slots []availability.Slot, wanted int) {
	if len(slots) == 0 {
		fmt.Println("  No free slots found in the search window.")
		return
	}
	shown := len(slots)
	if wanted > 0 && wanted < shown {
		shown = wanted
	}
	fmt.Printf("  Candidate slots (%d of %d):\n", shown, len(slots))
	for _, slot := range slots[:shown] {
		fmt.Printf("    %s - %s\n",
			slot.Start.Format("Mon 2006-01-02 15:04"), slot.End.Format("15:04"))
	}
}

func printApplyResult(result resolutionApp.ApplyResult) {
	fmt.Printf("  Applied (%s):\n", result.Status())
	for _, outcome := range result.Outcomes {
		marker := "-"
		if outcome.Applied {
			marker = "+"
		}
		fmt.Printf("    %s %s: %s\n", marker, outcome.Subject, outcome.Detail)
	}
}

func init() {
	resolveCmd.Flags().IntVarP(&resolveDays, "days", "d", 7, "calendar window in days")
	resolveCmd.Flags().BoolVar(&resolveApply, "apply", false, "apply each proposal and record approval")
	resolveCmd.Flags().BoolVar(&resolveSkip, "skip", false, "record a skip for each conflict")
	resolveCmd.Flags().StringVar(&resolveOverride, "override", "", "replace the proposed action before applying")
	rootCmd.AddCommand(resolveCmd)
}
