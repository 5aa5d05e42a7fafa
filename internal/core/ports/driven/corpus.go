package driven

import (
	"context"

	"github.com/lodestar-labs/ansa-cli/internal/core/domain"
)

// CorpusLoader reads crawled documents for index builds.
// Crawling itself happens outside this system; the loader consumes
// whatever flat record format the crawler produced.
type CorpusLoader interface {
	// Load returns all usable documents from the corpus. Pages with
	// too little content are skipped by the implementation.
	Load(ctx context.Context) ([]domain.Document, error)

	// Path returns the corpus location, for logging and for the
	// reindex watcher.
	Path() string
}
