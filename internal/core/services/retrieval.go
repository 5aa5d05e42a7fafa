package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/lodestar-labs/ansa-cli/internal/core/domain"
	"github.com/lodestar-labs/ansa-cli/internal/core/ports/driven"
	"github.com/lodestar-labs/ansa-cli/internal/core/ports/driving"
	"github.com/lodestar-labs/ansa-cli/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.RetrieverService = (*RetrievalService)(nil)

// Default retrieval parameters.
const (
	DefaultTopK      = 5
	DefaultOverFetch = 3
	DefaultFusionK   = 60
)

// rankedID holds one leg's ranked output before fusion.
type rankedID struct {
	chunkID string
	score   float64
}

// RetrievalService performs hybrid retrieval: independent lexical and
// vector searches fused with reciprocal ranks.
type RetrievalService struct {
	docStore         driven.DocumentStore
	searchEngine     driven.SearchEngine
	vectorIndex      driven.VectorIndex
	embeddingService driven.EmbeddingService
}

// NewRetrievalService creates a new hybrid retrieval service. The
// vectorIndex and embeddingService parameters are optional; without
// them retrieval degrades to lexical-only.
func NewRetrievalService(
	docStore driven.DocumentStore,
	searchEngine driven.SearchEngine,
	vectorIndex driven.VectorIndex,
	embeddingService driven.EmbeddingService,
) *RetrievalService {
	return &RetrievalService{
		docStore:         docStore,
		searchEngine:     searchEngine,
		vectorIndex:      vectorIndex,
		embeddingService: embeddingService,
	}
}

// Retrieve runs both index searches and fuses their rankings. An empty
// result means no relevant context was found, not an error. A
// configured leg that fails at query time fails the whole request.
func (s *RetrievalService) Retrieve(
	ctx context.Context, query string, opts domain.RetrievalOptions,
) ([]domain.RetrievedChunk, error) {
	logger.Section("Hybrid Retrieval")

	query = strings.TrimSpace(query)
	if query == "" {
		logger.Debug("Empty query, returning no results")
		return []domain.RetrievedChunk{}, nil
	}

	topK := opts.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}
	overFetch := opts.OverFetch
	if overFetch <= 0 {
		overFetch = DefaultOverFetch
	}
	fusionK := opts.FusionK
	if fusionK <= 0 {
		fusionK = DefaultFusionK
	}

	// Each leg over-fetches so fusion has enough candidates to find a
	// good combined top-k without comparing raw score scales.
	fetchLimit := topK * overFetch
	logger.Debug("Query: %q, topK=%d, fetchLimit=%d, fusionK=%d", query, topK, fetchLimit, fusionK)

	hasVectorLeg := s.vectorIndex != nil && s.embeddingService != nil
	if !hasVectorLeg {
		logger.Debug("Vector leg not configured, lexical only")
	}

	var lexical, vector []rankedID
	var lexicalErr, vectorErr error

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		lexical, lexicalErr = s.lexicalSearch(ctx, query, fetchLimit)
	}()

	if hasVectorLeg {
		wg.Add(1)
		go func() {
			defer wg.Done()
			vector, vectorErr = s.vectorSearch(ctx, query, fetchLimit)
		}()
	}
	wg.Wait()

	if lexicalErr != nil {
		return nil, fmt.Errorf("lexical search: %w", lexicalErr)
	}
	if vectorErr != nil {
		return nil, fmt.Errorf("vector search: %w", vectorErr)
	}

	logger.Debug("Fusing %d lexical + %d vector results", len(lexical), len(vector))
	fused := reciprocalRankFusion(lexical, vector, fusionK)
	if len(fused) > topK {
		fused = fused[:topK]
	}

	results, err := s.hydrate(ctx, fused)
	if err != nil {
		return nil, err
	}
	logger.Info("Retrieved %d chunks", len(results))
	return results, nil
}

// lexicalSearch runs the BM25 leg.
func (s *RetrievalService) lexicalSearch(ctx context.Context, query string, limit int) ([]rankedID, error) {
	hits, err := s.searchEngine.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	logger.Debug("Lexical search: %d hits", len(hits))

	results := make([]rankedID, len(hits))
	for i, hit := range hits {
		results[i] = rankedID{chunkID: hit.ChunkID, score: hit.Score}
	}
	return results, nil
}

// vectorSearch embeds the query once and runs the cosine leg.
func (s *RetrievalService) vectorSearch(ctx context.Context, query string, limit int) ([]rankedID, error) {
	embedding, err := s.embeddingService.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := s.vectorIndex.Search(ctx, embedding, limit)
	if err != nil {
		return nil, err
	}
	logger.Debug("Vector search: %d hits", len(hits))

	results := make([]rankedID, len(hits))
	for i, hit := range hits {
		results[i] = rankedID{chunkID: hit.ChunkID, score: hit.Similarity}
	}
	return results, nil
}

// reciprocalRankFusion merges two ranked lists. Each candidate scores
// the sum of 1/(k+rank) over the lists it appears in, rank 1-based.
// Candidates absent from a list contribute nothing from it. Ordering is
// fused score descending, ties broken by chunk id ascending.
func reciprocalRankFusion(list1, list2 []rankedID, k int) []rankedID {
	scores := make(map[string]float64)

	for rank, entry := range list1 {
		scores[entry.chunkID] += 1.0 / float64(k+rank+1)
	}
	for rank, entry := range list2 {
		scores[entry.chunkID] += 1.0 / float64(k+rank+1)
	}

	fused := make([]rankedID, 0, len(scores))
	for id, score := range scores {
		fused = append(fused, rankedID{chunkID: id, score: score})
	}

	sort.Slice(fused, func(i, j int) bool {
		if fused[i].score != fused[j].score {
			return fused[i].score > fused[j].score
		}
		return fused[i].chunkID < fused[j].chunkID
	})

	return fused
}

// hydrate resolves fused chunk ids into full chunks. Chunks deleted
// since the index was built are skipped.
func (s *RetrievalService) hydrate(ctx context.Context, fused []rankedID) ([]domain.RetrievedChunk, error) {
	results := make([]domain.RetrievedChunk, 0, len(fused))
	for _, entry := range fused {
		chunk, err := s.docStore.GetChunk(ctx, entry.chunkID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				logger.Debug("Chunk %s no longer in store, skipping", entry.chunkID)
				continue
			}
			return nil, fmt.Errorf("get chunk %s: %w", entry.chunkID, err)
		}
		results = append(results, domain.RetrievedChunk{
			Chunk: *chunk,
			Score: entry.score,
		})
	}
	return results, nil
}
