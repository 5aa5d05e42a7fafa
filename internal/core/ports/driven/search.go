package driven

import (
	"context"

	"github.com/lodestar-labs/ansa-cli/internal/core/domain"
)

// SearchEngine provides lexical full-text search operations.
// Backed by an in-memory BM25 index built once per corpus.
type SearchEngine interface {
	// Build constructs the index from the full chunk set, replacing
	// any previous contents.
	Build(ctx context.Context, chunks []domain.Chunk) error

	// Search performs a keyword search and returns matching chunk IDs
	// with scores, best first. Ties are broken by chunk ID ascending.
	// A query matching nothing returns an empty slice, not an error.
	Search(ctx context.Context, query string, limit int) ([]SearchHit, error)

	// Close releases resources.
	Close() error
}

// SearchHit represents a search result from the engine.
type SearchHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// Score is the BM25 relevance score.
	Score float64
}
