package driven

import (
	"context"

	"github.com/lodestar-labs/ansa-cli/internal/core/domain"
)

// VectorIndex provides semantic similarity search operations over
// chunk embeddings. Embeddings are computed once at build time and
// persisted through the DocumentStore, so the index can be rebuilt
// from storage without calling the embedding service again.
type VectorIndex interface {
	// Build constructs the index from chunks that already carry
	// embeddings, replacing any previous contents. Chunks without an
	// embedding are skipped.
	Build(ctx context.Context, chunks []domain.Chunk) error

	// Search finds the k nearest neighbours to the query vector by
	// cosine similarity. Ties are broken by chunk ID ascending.
	Search(ctx context.Context, query []float32, k int) ([]VectorHit, error)

	// Close releases resources.
	Close() error
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// Similarity is the cosine similarity score in [-1, 1].
	Similarity float64
}
