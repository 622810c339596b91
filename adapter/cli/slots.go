package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	slotsDuration  time.Duration
	slotsAttendees []string
)

var slotsCmd = &cobra.Command{
	Use:   "slots",
	Short: "Find free meeting slots",
	Long: `Search the upcoming window for slots where you and every listed
attendee are free.

Examples:
  untangle slots --duration 30m
  untangle slots --duration 1h --attendees a@example.com,b@example.com`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireCalendar()
		if err != nil {
			return err
		}
		if slotsDuration <= 0 {
			return fmt.Errorf("--duration must be positive")
		}

		now := time.Now().In(c.Location)
		params := c.SearchParams(now)
		params.Duration = slotsDuration

		slots, err := c.SlotFinder.FindSlots(cmd.Context(), params, slotsAttendees)
		if err != nil {
			return err
		}
		if len(slots) == 0 {
			fmt.Println("No free slots found in the search window.")
			return nil
		}

		fmt.Printf("%d free slot(s) for %s:\n", len(slots), slotsDuration)
		for _, slot := range slots {
			fmt.Printf("  %s - %s\n",
				slot.Start.Format("Mon 2006-01-02 15:04"), slot.End.Format("15:04"))
		}
		return nil
	},
}

func init() {
	slotsCmd.Flags().DurationVar(&slotsDuration, "duration", 30*time.Minute, "required slot length")
	slotsCmd.Flags().StringSliceVar(&slotsAttendees, "attendees", nil, "attendee addresses that must be free")
	rootCmd.AddCommand(slotsCmd)
}
