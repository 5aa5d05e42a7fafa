package cli

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and change configuration: company identity, corpus location,
AI providers, retrieval tuning, and session retention.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a configuration value",
	Long: `Sets a configuration value by dotted key, for example:

  ansa settings set company.name "Lodestar"
  ansa settings set corpus.path ./crawl/site.json
  ansa settings set llm.provider openai
  ansa settings set llm.api_key sk-...
  ansa settings set embedding.provider ollama`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}

// secretKeySuffixes marks values that are masked in output.
var secretKeySuffixes = []string{"api_key", "token", "secret"}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	cmd.Printf("Configuration: %s\n\n", configStore.Path())

	keys := []string{
		"company.name", "company.description",
		"corpus.path",
		"llm.provider", "llm.model", "llm.api_key", "llm.base_url",
		"embedding.provider", "embedding.model", "embedding.api_key", "embedding.base_url",
		"retrieval.top_k", "retrieval.min_source_score",
		"session.max_turns", "session.ttl_hours",
	}
	sort.Strings(keys)

	for _, key := range keys {
		value, ok := configStore.Get(key)
		if !ok {
			continue
		}
		cmd.Printf("  %-28s %v\n", key, maskSecret(key, value))
	}
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	key, value := args[0], args[1]
	if err := configStore.Set(key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	cmd.Printf("Set %s = %v\n", key, maskSecret(key, value))
	return nil
}

func maskSecret(key string, value any) any {
	for _, suffix := range secretKeySuffixes {
		if strings.HasSuffix(key, suffix) {
			if s, ok := value.(string); ok && s != "" {
				return "****"
			}
		}
	}
	return value
}
