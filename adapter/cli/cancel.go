package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cancelMessage string

var cancelCmd = &cobra.Command{
	Use:   "cancel <event-id>",
	Short: "Cancel an event you organize",
	Long: `Cancel one of your own events, notifying attendees with an optional
message. Use this when a conflict is best resolved by dropping a meeting you
own rather than moving someone else's.

Examples:
  untangle cancel AAMkAGI2...
  untangle cancel AAMkAGI2... --message "superseded by the offsite"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireCalendar()
		if err != nil {
			return err
		}

		if err := c.Executor.Cancel(cmd.Context(), args[0], cancelMessage); err != nil {
			return err
		}
		fmt.Printf("Event %s cancelled.\n", args[0])
		return nil
	},
}

func init() {
	cancelCmd.Flags().StringVarP(&cancelMessage, "message", "m", "", "message sent to attendees")
	rootCmd.AddCommand(cancelCmd)
}
