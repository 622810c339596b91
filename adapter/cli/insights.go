package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var insightsDays int

var insightsCmd = &cobra.Command{
	Use:     "insights",
	Short:   "Show decision statistics and mined patterns",
	Aliases: []string{"stats", "patterns"},
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireContainer()
		if err != nil {
			return err
		}

		statsDays := insightsDays
		if statsDays <= 0 {
			statsDays = c.Config.StatsWindowDays
		}
		stats, err := c.Insights.Stats(cmd.Context(), statsDays)
		if err != nil {
			return err
		}

		fmt.Printf("\n  Decisions (last %d days)\n", statsDays)
		fmt.Println(strings.Repeat("-", 50))
		fmt.Printf("    Total: %d\n", stats.Total)
		if stats.Total > 0 {
			fmt.Printf("    Approved: %d (%.0f%%) | Modified: %d (%.0f%%) | Skipped: %d (%.0f%%)\n",
				stats.Approved, stats.ApprovalRate*100,
				stats.Modified, stats.ModifyRate*100,
				stats.Skipped, stats.SkipRate*100)
		}
		if stats.FeedbackCount > 0 {
			fmt.Printf("    Feedback: %d (%d reported success)\n",
				stats.FeedbackCount, stats.SuccessCount)
		}

		patternDays := insightsDays
		if patternDays <= 0 {
			patternDays = c.Config.PatternWindowDays
		}
		patterns, err := c.Insights.Patterns(cmd.Context(), patternDays)
		if err != nil {
			return err
		}

		fmt.Printf("\n  Patterns (last %d days)\n", patternDays)
		fmt.Println(strings.Repeat("-", 50))
		if len(patterns) == 0 {
			fmt.Println("    Not enough decisions yet to mine patterns.")
		}
		for _, p := range patterns {
			fmt.Printf("    %s\n", p.Description)
			fmt.Printf("      %s / %s: %d/%d approved (%.0f%%)\n",
				p.Bucket, p.Action, p.Approvals, p.Samples, p.ApprovalRate*100)
		}
		fmt.Println()
		return nil
	},
}

func init() {
	insightsCmd.Flags().IntVarP(&insightsDays, "days", "d", 0, "window in days (default from config)")
	rootCmd.AddCommand(insightsCmd)
}
