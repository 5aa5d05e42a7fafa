package domain

import (
	"fmt"
	"time"
)

// Document represents a single crawled corpus page.
// It is the canonical representation produced by the corpus loader
// and is immutable once ingested.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// URL is the original location of the page.
	URL string

	// Title is the human-readable page title.
	Title string

	// Content is the full cleaned text content before chunking.
	Content string

	// Metadata contains arbitrary key-value pairs from the crawler.
	Metadata map[string]string

	// CreatedAt is when the document was first indexed.
	CreatedAt time.Time
}

// Chunk represents a searchable unit within a document.
// Documents are split into chunks at index-build time; chunks are
// never mutated afterwards.
type Chunk struct {
	// ID is the unique identifier for the chunk, derived from the
	// document id and the chunk's position so rebuilds are idempotent.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Content is the text content of this chunk, including the
	// optional title prefix.
	Content string

	// Position is the ordinal position within the document.
	Position int

	// StartOffset and EndOffset locate the chunk body within the
	// cleaned document text (excluding any title prefix).
	StartOffset int
	EndOffset   int

	// Embedding is the vector representation for semantic search.
	// Empty until the embedding service has processed the chunk.
	Embedding []float32
}

// ChunkID derives the stable chunk identifier for a document and
// chunk position. Both the chunker and the stores use this so the
// same input always maps to the same id.
func ChunkID(documentID string, position int) string {
	return fmt.Sprintf("%s#%04d", documentID, position)
}
