package driving

import (
	"context"

	"github.com/lodestar-labs/ansa-cli/internal/core/domain"
)

// RetrieverService performs hybrid retrieval over the indexed corpus.
type RetrieverService interface {
	// Retrieve runs lexical and vector searches for the query and
	// fuses their rankings. Empty results mean "no relevant context",
	// not an error.
	Retrieve(ctx context.Context, query string, opts domain.RetrievalOptions) ([]domain.RetrievedChunk, error)
}

// IndexService builds and maintains the two retrieval indices.
type IndexService interface {
	// Rebuild wipes the chunk store, re-chunks the corpus, embeds
	// every chunk, and swaps in fresh indices. Readers never observe
	// a partially built index.
	Rebuild(ctx context.Context) (*IndexStats, error)

	// LoadFromStore rebuilds the in-memory indices from persisted
	// chunks and embeddings, without touching the corpus or the
	// embedding service.
	LoadFromStore(ctx context.Context) (*IndexStats, error)

	// Watch re-runs Rebuild whenever the corpus file changes. It
	// blocks until the context is cancelled.
	Watch(ctx context.Context) error
}

// IndexStats summarises an index build.
type IndexStats struct {
	// Documents is the number of corpus documents indexed.
	Documents int

	// Chunks is the number of chunks produced.
	Chunks int

	// Embedded is the number of chunks carrying embeddings.
	Embedded int
}
