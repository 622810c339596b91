package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var conflictsDays int

var conflictsCmd = &cobra.Command{
	Use:   "conflicts",
	Short: "List upcoming calendar conflicts",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireCalendar()
		if err != nil {
			return err
		}

		now := time.Now().In(c.Location)
		groups, err := c.Detector.Detect(cmd.Context(), now, now.AddDate(0, 0, conflictsDays))
		if err != nil {
			return err
		}
		if len(groups) == 0 {
			fmt.Printf("No conflicts in the next %d days.\n", conflictsDays)
			return nil
		}

		fmt.Printf("%d conflict(s) in the next %d days:\n", len(groups), conflictsDays)
		for i, group := range groups {
			scored := scoreGroup(group, c.PriorityRules)
			fmt.Printf("\nConflict %d/%d\n", i+1, len(groups))
			printConflict(group, scored)
		}
		fmt.Println()
		return nil
	},
}

func init() {
	conflictsCmd.Flags().IntVarP(&conflictsDays, "days", "d", 7, "calendar window in days")
	rootCmd.AddCommand(conflictsCmd)
}
