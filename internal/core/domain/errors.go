package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidConfig indicates bad chunking or retrieval
	// parameters. Raised at build time, before any indexing happens.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrIndexNotBuilt indicates a query arrived before the indices
	// were built or loaded.
	ErrIndexNotBuilt = errors.New("index not built")

	// ErrEmbeddingService indicates the embedding call failed or
	// timed out.
	ErrEmbeddingService = errors.New("embedding service failure")

	// ErrGenerationService indicates the generation call failed or
	// timed out.
	ErrGenerationService = errors.New("generation service failure")

	// ErrEmbeddingUnavailable indicates no embedding service is
	// configured. Vector/semantic search is disabled without it.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrLLMUnavailable indicates no LLM service is configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmptyCorpus indicates the corpus loader produced no usable
	// documents.
	ErrEmptyCorpus = errors.New("corpus contains no documents")
)
