package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	memory "untangle/internal/memory/domain"
)

var (
	feedbackOutcome string
	feedbackComment string
)

var feedbackCmd = &cobra.Command{
	Use:   "feedback <decision-id>",
	Short: "Record how a past decision worked out",
	Long: `Attach success or failure feedback to a recorded decision. Feedback
sharpens the mined patterns over time.

Examples:
  untangle feedback 4fa0... --outcome success
  untangle feedback 4fa0... --outcome failure --comment "room was double-booked"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireContainer()
		if err != nil {
			return err
		}

		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid decision id %q: %w", args[0], err)
		}

		var outcome memory.Outcome
		switch feedbackOutcome {
		case "success":
			outcome = memory.OutcomeSuccess
		case "failure":
			outcome = memory.OutcomeFailure
		default:
			return fmt.Errorf("outcome must be %q or %q", "success", "failure")
		}

		decision, err := c.Recorder.RecordFeedback(cmd.Context(), id, outcome, feedbackComment)
		if err != nil {
			return err
		}

		fmt.Printf("Feedback recorded for %s (revision %d).\n", decision.ID, decision.Revision)
		return nil
	},
}

func init() {
	feedbackCmd.Flags().StringVarP(&feedbackOutcome, "outcome", "o", "", "success or failure (required)")
	feedbackCmd.Flags().StringVarP(&feedbackComment, "comment", "m", "", "optional note")
	_ = feedbackCmd.MarkFlagRequired("outcome")
	rootCmd.AddCommand(feedbackCmd)
}
