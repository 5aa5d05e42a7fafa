package domain

// RetrievalOptions configures a hybrid retrieval run.
type RetrievalOptions struct {
	// TopK is the maximum number of fused results to return.
	TopK int

	// OverFetch multiplies TopK for each underlying index search so
	// rank fusion has enough candidates to work with.
	OverFetch int

	// FusionK is the reciprocal-rank fusion constant.
	FusionK int
}

// RetrievedChunk is a single fused retrieval hit.
type RetrievedChunk struct {
	// Chunk is the matched chunk, hydrated from the chunk store.
	Chunk Chunk

	// Score is the fused reciprocal-rank score. Scores are only
	// comparable within a single query.
	Score float64
}

// Source describes one cited chunk on an answer.
type Source struct {
	// Title is the source document's title.
	Title string

	// URL is the source document's location.
	URL string

	// Preview is a truncated excerpt of the cited chunk.
	Preview string

	// Score is the chunk's fused retrieval score.
	Score float64
}

// Answer is the result of asking a question.
type Answer struct {
	// Text is the generated answer.
	Text string

	// Sources lists the cited chunks, best first. Empty for
	// general-conversation answers and for answers the model could
	// not ground in the corpus.
	Sources []Source

	// SessionID echoes the session the turn was recorded under.
	SessionID string

	// InDomain reports whether retrieval was performed.
	InDomain bool

	// Classification is the classifier judgement for the question.
	Classification Classification

	// Grounded is false when the model indicated it could not answer
	// from the retrieved context.
	Grounded bool

	// RetrievedChunks is the number of chunks retrieval returned.
	RetrievedChunks int
}
