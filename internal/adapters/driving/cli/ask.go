package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/lodestar-labs/ansa-cli/internal/core/domain"
)

var (
	askSession string
	askJSON    bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a single question",
	Long: `Asks one question and prints the answer with source citations.

Passing --session keeps conversation history between invocations, so
follow-up questions can refer to earlier answers.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive question answering",
	Long: `Starts an interactive session. Each question is answered with the
conversation so far as context. Type 'exit' or press Ctrl-D to quit.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	askCmd.Flags().StringVarP(&askSession, "session", "s", "", "session id for conversation continuity")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	chatCmd.Flags().StringVarP(&askSession, "session", "s", "", "session id for conversation continuity")
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(chatCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if qaService == nil {
		return errors.New("qa service not configured")
	}

	sessionID := askSession
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	answer, err := qaService.Ask(context.Background(), sessionID, args[0])
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		return outputAnswerJSON(cmd, answer)
	}
	outputAnswerText(cmd, answer)
	return nil
}

func runChat(cmd *cobra.Command, _ []string) error {
	if qaService == nil {
		return errors.New("qa service not configured")
	}

	sessionID := askSession
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	cmd.Printf("Session %s. Type 'exit' to quit.\n\n", sessionID)
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		cmd.Print("> ")
		if !scanner.Scan() {
			cmd.Println()
			return scanner.Err()
		}

		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if question == "exit" || question == "quit" {
			return nil
		}

		answer, err := qaService.Ask(context.Background(), sessionID, question)
		if err != nil {
			cmd.PrintErrf("Error: %v\n", err)
			continue
		}
		outputAnswerText(cmd, answer)
	}
}

func outputAnswerJSON(cmd *cobra.Command, answer *domain.Answer) error {
	data, err := json.MarshalIndent(answer, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal answer: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputAnswerText(cmd *cobra.Command, answer *domain.Answer) {
	cmd.Println(answer.Text)

	if len(answer.Sources) > 0 {
		cmd.Println()
		cmd.Println("Sources:")
		for i, source := range answer.Sources {
			cmd.Printf("  [%d] %s", i+1, source.Title)
			if source.URL != "" {
				cmd.Printf(" (%s)", source.URL)
			}
			cmd.Println()
		}
	}
	cmd.Println()
}
