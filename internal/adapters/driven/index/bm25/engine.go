// Package bm25 provides an in-memory lexical search engine ranked with
// Okapi BM25. The index is built once per corpus and is immutable
// afterwards: Build assembles a fresh snapshot and swaps it in
// atomically, so concurrent readers never observe partial state.
package bm25

import (
	"context"
	"math"
	"sort"
	"sync/atomic"

	"github.com/lodestar-labs/ansa-cli/internal/core/domain"
	"github.com/lodestar-labs/ansa-cli/internal/core/ports/driven"
)

// Standard BM25 parameters. k1 controls term-frequency saturation and
// b the strength of length normalisation.
const (
	k1 = 1.2
	b  = 0.75
)

// Ensure Engine implements the interface.
var _ driven.SearchEngine = (*Engine)(nil)

// posting records one chunk containing a term.
type posting struct {
	chunkID string
	freq    int
}

// snapshot is one immutable build of the index.
type snapshot struct {
	postings  map[string][]posting
	docLen    map[string]int
	avgDocLen float64
	docCount  int
}

// Engine is an in-memory BM25 search engine over chunks.
type Engine struct {
	snap atomic.Pointer[snapshot]
}

// New creates an empty engine. Search returns ErrIndexNotBuilt until
// Build has run.
func New() *Engine {
	return &Engine{}
}

// Build constructs the index from the full chunk set, replacing any
// previous contents.
func (e *Engine) Build(_ context.Context, chunks []domain.Chunk) error {
	snap := &snapshot{
		postings: make(map[string][]posting),
		docLen:   make(map[string]int, len(chunks)),
	}

	totalLen := 0
	for _, chunk := range chunks {
		terms := tokenize(chunk.Content)
		snap.docLen[chunk.ID] = len(terms)
		totalLen += len(terms)

		freqs := make(map[string]int, len(terms))
		for _, term := range terms {
			freqs[term]++
		}
		for term, freq := range freqs {
			snap.postings[term] = append(snap.postings[term], posting{chunkID: chunk.ID, freq: freq})
		}
	}

	snap.docCount = len(chunks)
	if snap.docCount > 0 {
		snap.avgDocLen = float64(totalLen) / float64(snap.docCount)
	}

	e.snap.Store(snap)
	return nil
}

// Search performs a keyword search and returns matching chunk IDs with
// BM25 scores, best first. Ties are broken by chunk ID ascending. A
// query matching nothing returns an empty slice.
func (e *Engine) Search(_ context.Context, query string, limit int) ([]driven.SearchHit, error) {
	snap := e.snap.Load()
	if snap == nil {
		return nil, domain.ErrIndexNotBuilt
	}

	terms := tokenize(query)
	if len(terms) == 0 || snap.docCount == 0 {
		return []driven.SearchHit{}, nil
	}

	scores := make(map[string]float64)
	for _, term := range terms {
		postings, ok := snap.postings[term]
		if !ok {
			continue
		}
		idf := idf(snap.docCount, len(postings))
		for _, p := range postings {
			scores[p.chunkID] += idf * tfNorm(float64(p.freq), float64(snap.docLen[p.chunkID]), snap.avgDocLen)
		}
	}

	hits := make([]driven.SearchHit, 0, len(scores))
	for chunkID, score := range scores {
		hits = append(hits, driven.SearchHit{ChunkID: chunkID, Score: score})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})

	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// Close releases resources.
func (e *Engine) Close() error {
	return nil
}

// idf computes the inverse document frequency component, smoothed so
// terms present in every chunk still score non-negatively.
func idf(docCount, docFreq int) float64 {
	numerator := float64(docCount) - float64(docFreq) + 0.5
	denominator := float64(docFreq) + 0.5
	return math.Log(numerator/denominator + 1)
}

// tfNorm computes the saturated, length-normalised term frequency
// component.
func tfNorm(termFreq, docLen, avgDocLen float64) float64 {
	if avgDocLen == 0 {
		return 0
	}
	lengthRatio := docLen / avgDocLen
	return (termFreq * (k1 + 1)) / (termFreq + k1*(1-b+b*lengthRatio))
}
