package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	memory "untangle/internal/memory/domain"
)

var historyDays int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded resolution decisions",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireContainer()
		if err != nil {
			return err
		}

		days := historyDays
		if days <= 0 {
			days = c.Config.StatsWindowDays
		}
		decisions, err := c.Insights.History(cmd.Context(), days)
		if err != nil {
			return err
		}
		if len(decisions) == 0 {
			fmt.Printf("No decisions recorded in the last %d days.\n", days)
			return nil
		}

		fmt.Printf("%d decision(s) in the last %d days:\n", len(decisions), days)
		for _, d := range decisions {
			printDecision(d)
		}
		return nil
	},
}

func printDecision(d memory.Decision) {
	fmt.Printf("  %s  %s\n", d.RecordedAt.Format("2006-01-02 15:04"), d.ID)
	fmt.Printf("    proposed %s, user %s", d.ProposedAction, d.UserAction)
	if d.UserAction == memory.UserActionModify && d.FinalAction != "" {
		fmt.Printf(" (final %s)", d.FinalAction)
	}
	fmt.Println()
	fmt.Printf("    gap %d, %s, %s %s\n",
		d.PriorityGap, d.Features.GapBucket, d.Features.DayOfWeek, d.Features.TimeOfDay)
	if d.Feedback != nil {
		fmt.Printf("    feedback: %s", d.Feedback.Outcome)
		if d.Feedback.Comment != "" {
			fmt.Printf(" (%s)", d.Feedback.Comment)
		}
		fmt.Println()
	}
}

func init() {
	historyCmd.Flags().IntVarP(&historyDays, "days", "d", 0, "window in days (default from config)")
	rootCmd.AddCommand(historyCmd)
}
