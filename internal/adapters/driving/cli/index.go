package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lodestar-labs/ansa-cli/internal/core/ports/driving"
)

var indexWatch bool

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the retrieval index from the corpus",
	Long: `Reads the corpus file, chunks and embeds every document, and builds
the keyword and vector indices. Pass --watch to keep running and rebuild
automatically whenever the corpus file changes.`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

var indexStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show index statistics",
	Long:  `Loads the persisted index and prints document, chunk, and embedding counts.`,
	Args:  cobra.NoArgs,
	RunE:  runIndexStatus,
}

func init() {
	indexCmd.Flags().BoolVarP(&indexWatch, "watch", "w", false, "rebuild whenever the corpus file changes")
	indexCmd.AddCommand(indexStatusCmd)
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, _ []string) error {
	if indexService == nil {
		return errors.New("index service not configured")
	}

	ctx := context.Background()
	stats, err := indexService.Rebuild(ctx)
	if err != nil {
		return fmt.Errorf("index build failed: %w", err)
	}
	printStats(cmd, stats)

	if indexWatch {
		cmd.Println("Watching for corpus changes (Ctrl-C to stop)...")
		if err := indexService.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("watch failed: %w", err)
		}
	}
	return nil
}

func runIndexStatus(cmd *cobra.Command, _ []string) error {
	if indexService == nil {
		return errors.New("index service not configured")
	}

	stats, err := indexService.LoadFromStore(context.Background())
	if err != nil {
		return fmt.Errorf("index status failed: %w", err)
	}
	printStats(cmd, stats)
	return nil
}

func printStats(cmd *cobra.Command, stats *driving.IndexStats) {
	cmd.Printf("Documents: %d\n", stats.Documents)
	cmd.Printf("Chunks:    %d\n", stats.Chunks)
	cmd.Printf("Embedded:  %d\n", stats.Embedded)
}
