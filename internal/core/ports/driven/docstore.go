package driven

import (
	"context"

	"github.com/lodestar-labs/ansa-cli/internal/core/domain"
)

// DocumentStore persists documents and chunks.
// Backed by SQLite so a process restart can reload chunk texts and
// embeddings without re-crawling or re-embedding.
type DocumentStore interface {
	// SaveDocument stores or updates a document.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// SaveChunks stores chunks, including any embeddings.
	SaveChunks(ctx context.Context, chunks []domain.Chunk) error

	// GetDocument retrieves a document by ID.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// GetChunk retrieves a specific chunk by ID.
	GetChunk(ctx context.Context, id string) (*domain.Chunk, error)

	// AllChunks returns every stored chunk, ordered by chunk ID.
	// Index builds and reloads iterate the full chunk set.
	AllChunks(ctx context.Context) ([]domain.Chunk, error)

	// DeleteAll removes every document and chunk. Used before a full
	// reindex.
	DeleteAll(ctx context.Context) error
}
