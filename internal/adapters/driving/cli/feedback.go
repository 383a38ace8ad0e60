package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var feedbackCmd = &cobra.Command{
	Use:   "feedback [query-id] [rating] [comment...]",
	Short: "Rate an answer",
	Long:  `Attach a rating from 1 to 5, and an optional comment, to a previous answer.`,
	Args:  cobra.MinimumNArgs(2),
	RunE:  runFeedback,
}

func init() {
	rootCmd.AddCommand(feedbackCmd)
}

func runFeedback(cmd *cobra.Command, args []string) error {
	if queryService == nil {
		return errors.New("query service not configured")
	}

	rating, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("rating must be a number from 1 to 5: %q", args[1])
	}
	comment := strings.Join(args[2:], " ")

	if err := queryService.RecordFeedback(cmd.Context(), args[0], rating, comment); err != nil {
		return fmt.Errorf("failed to record feedback: %w", err)
	}

	cmd.Printf("Recorded rating %d for %s\n", rating, args[0])
	return nil
}
