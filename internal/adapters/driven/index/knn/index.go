// Package knn provides an exact nearest-neighbour vector index using
// cosine similarity. Vectors live in memory; the persisted copies in
// the chunk store let the index be rebuilt after a restart without
// re-embedding. Build assembles a fresh snapshot and swaps it in
// atomically, so concurrent readers never observe partial state.
package knn

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync/atomic"

	"github.com/lodestar-labs/ansa-cli/internal/core/domain"
	"github.com/lodestar-labs/ansa-cli/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// entry is one indexed vector, pre-normalised to unit length so
// similarity reduces to a dot product.
type entry struct {
	chunkID string
	vector  []float32
}

// snapshot is one immutable build of the index. Entries are kept
// sorted by chunk ID so equal-similarity results come out in
// deterministic order.
type snapshot struct {
	entries   []entry
	dimension int
}

// Index is an exact cosine-similarity nearest-neighbour index.
type Index struct {
	snap atomic.Pointer[snapshot]
}

// New creates an empty index. Search returns ErrIndexNotBuilt until
// Build has run.
func New() *Index {
	return &Index{}
}

// Build constructs the index from chunks that already carry
// embeddings, replacing any previous contents. Chunks without an
// embedding are skipped; mixed dimensions are a build error.
func (idx *Index) Build(_ context.Context, chunks []domain.Chunk) error {
	snap := &snapshot{entries: make([]entry, 0, len(chunks))}

	for _, chunk := range chunks {
		if len(chunk.Embedding) == 0 {
			continue
		}
		if snap.dimension == 0 {
			snap.dimension = len(chunk.Embedding)
		} else if len(chunk.Embedding) != snap.dimension {
			return fmt.Errorf("%w: chunk %s has dimension %d, index has %d",
				domain.ErrInvalidConfig, chunk.ID, len(chunk.Embedding), snap.dimension)
		}
		snap.entries = append(snap.entries, entry{
			chunkID: chunk.ID,
			vector:  normalise(chunk.Embedding),
		})
	}

	sort.Slice(snap.entries, func(i, j int) bool {
		return snap.entries[i].chunkID < snap.entries[j].chunkID
	})

	idx.snap.Store(snap)
	return nil
}

// Search finds the k nearest neighbours to the query vector by cosine
// similarity, best first. Ties are broken by chunk ID ascending.
func (idx *Index) Search(_ context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	snap := idx.snap.Load()
	if snap == nil {
		return nil, domain.ErrIndexNotBuilt
	}
	if len(snap.entries) == 0 || k <= 0 {
		return []driven.VectorHit{}, nil
	}
	if len(query) != snap.dimension {
		return nil, fmt.Errorf("%w: query has dimension %d, index has %d",
			domain.ErrInvalidConfig, len(query), snap.dimension)
	}

	q := normalise(query)
	hits := make([]driven.VectorHit, 0, len(snap.entries))
	for _, e := range snap.entries {
		hits = append(hits, driven.VectorHit{
			ChunkID:    e.chunkID,
			Similarity: dot(q, e.vector),
		})
	}

	// Entries are pre-sorted by chunk ID and the sort is stable, so
	// equal similarities keep ascending id order.
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Similarity > hits[j].Similarity
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Close releases resources.
func (idx *Index) Close() error {
	return nil
}

// normalise scales a vector to unit length. Zero vectors are returned
// unchanged and will never match anything.
func normalise(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		return v
	}
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

// dot computes the inner product of two equal-length vectors.
func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
