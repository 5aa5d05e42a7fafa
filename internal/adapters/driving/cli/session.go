package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage conversation sessions",
}

var sessionShowCmd = &cobra.Command{
	Use:   "show [session-id]",
	Short: "Show a session's conversation history",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionShow,
}

var sessionClearCmd = &cobra.Command{
	Use:   "clear [session-id]",
	Short: "Delete a session's conversation history",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionClear,
}

var sessionSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Remove sessions idle beyond the retention period",
	Args:  cobra.NoArgs,
	RunE:  runSessionSweep,
}

func init() {
	sessionCmd.AddCommand(sessionShowCmd)
	sessionCmd.AddCommand(sessionClearCmd)
	sessionCmd.AddCommand(sessionSweepCmd)
	rootCmd.AddCommand(sessionCmd)
}

func runSessionShow(cmd *cobra.Command, args []string) error {
	if sessionService == nil {
		return errors.New("session service not configured")
	}

	turns, err := sessionService.History(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}
	if len(turns) == 0 {
		cmd.Println("No history.")
		return nil
	}

	for _, turn := range turns {
		cmd.Printf("[%s] You: %s\n", turn.CreatedAt.Format("2006-01-02 15:04"), turn.Question)
		cmd.Printf("%*s ansa: %s\n\n", len("[2006-01-02 15:04]"), "", turn.Answer)
	}
	return nil
}

func runSessionClear(cmd *cobra.Command, args []string) error {
	if sessionService == nil {
		return errors.New("session service not configured")
	}

	if err := sessionService.Clear(context.Background(), args[0]); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	cmd.Printf("Session %s cleared.\n", args[0])
	return nil
}

func runSessionSweep(cmd *cobra.Command, _ []string) error {
	if sessionService == nil {
		return errors.New("session service not configured")
	}

	removed, err := sessionService.Sweep(context.Background())
	if err != nil {
		return fmt.Errorf("sweep failed: %w", err)
	}
	cmd.Printf("Removed %d idle sessions.\n", removed)
	return nil
}
