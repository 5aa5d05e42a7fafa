// Package cli provides the command line interface.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/lodestar-labs/ansa-cli/internal/core/ports/driven"
	"github.com/lodestar-labs/ansa-cli/internal/core/ports/driving"
)

// version is injected at build time via SetVersion.
var version = "dev"

// Services used by the commands. Wired once from main before Execute.
var (
	qaService        driving.QAService
	retrieverService driving.RetrieverService
	indexService     driving.IndexService
	sessionService   driving.SessionService
	configStore      driven.ConfigStore
)

// Services bundles everything the commands need.
type Services struct {
	QA        driving.QAService
	Retriever driving.RetrieverService
	Indexer   driving.IndexService
	Sessions  driving.SessionService
	Config    driven.ConfigStore
}

// SetServices wires the service layer into the commands.
func SetServices(s Services) {
	qaService = s.QA
	retrieverService = s.Retriever
	indexService = s.Indexer
	sessionService = s.Sessions
	configStore = s.Config
}

// SetVersion sets the version string printed by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

var rootCmd = &cobra.Command{
	Use:   "ansa",
	Short: "Retrieval-augmented question answering over a crawled corpus",
	Long: `ansa answers questions about an organisation from its crawled website.

Questions are classified, relevant passages are retrieved with hybrid
keyword and semantic search, and answers are generated with citations
back to the source pages.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
