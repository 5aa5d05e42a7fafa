package services

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/lodestar-labs/ansa-cli/internal/chunker"
	"github.com/lodestar-labs/ansa-cli/internal/core/domain"
	"github.com/lodestar-labs/ansa-cli/internal/core/ports/driven"
	"github.com/lodestar-labs/ansa-cli/internal/core/ports/driving"
	"github.com/lodestar-labs/ansa-cli/internal/logger"
)

// Ensure IndexerService implements the interface.
var _ driving.IndexService = (*IndexerService)(nil)

// watchDebounce coalesces bursts of file events (editors and crawlers
// write corpus files in several steps) into one rebuild.
const watchDebounce = 2 * time.Second

// IndexerService builds and maintains the retrieval indices. Builds
// run offline: documents are chunked, chunks embedded and persisted,
// then both in-memory indices are swapped to fresh snapshots. Readers
// never observe a partially built index.
type IndexerService struct {
	corpus       driven.CorpusLoader
	chunker      *chunker.Chunker
	docStore     driven.DocumentStore
	searchEngine driven.SearchEngine
	vectorIndex  driven.VectorIndex
	embedder     driven.EmbeddingService
}

// NewIndexerService creates an indexer. The vectorIndex and embedder
// parameters are optional; without them builds produce a lexical-only
// index.
func NewIndexerService(
	corpus driven.CorpusLoader,
	ch *chunker.Chunker,
	docStore driven.DocumentStore,
	searchEngine driven.SearchEngine,
	vectorIndex driven.VectorIndex,
	embedder driven.EmbeddingService,
) *IndexerService {
	return &IndexerService{
		corpus:       corpus,
		chunker:      ch,
		docStore:     docStore,
		searchEngine: searchEngine,
		vectorIndex:  vectorIndex,
		embedder:     embedder,
	}
}

// Rebuild wipes the chunk store, re-chunks and re-embeds the corpus,
// and swaps in fresh indices.
func (s *IndexerService) Rebuild(ctx context.Context) (*driving.IndexStats, error) {
	logger.Section("Index Rebuild")

	documents, err := s.corpus.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}
	logger.Info("Corpus: %d documents from %s", len(documents), s.corpus.Path())

	if err := s.docStore.DeleteAll(ctx); err != nil {
		return nil, fmt.Errorf("clear store: %w", err)
	}

	var allChunks []domain.Chunk
	for i := range documents {
		doc := &documents[i]
		doc.Content = chunker.CleanText(doc.Content)

		chunks, err := s.chunker.Chunk(doc)
		if err != nil {
			return nil, fmt.Errorf("chunk document %s: %w", doc.ID, err)
		}
		if err := s.docStore.SaveDocument(ctx, doc); err != nil {
			return nil, fmt.Errorf("save document %s: %w", doc.ID, err)
		}
		allChunks = append(allChunks, chunks...)
	}
	logger.Info("Chunked %d documents into %d chunks", len(documents), len(allChunks))

	embedded, err := s.embedChunks(ctx, allChunks)
	if err != nil {
		return nil, err
	}

	if err := s.docStore.SaveChunks(ctx, allChunks); err != nil {
		return nil, fmt.Errorf("save chunks: %w", err)
	}

	if err := s.buildIndices(ctx, allChunks, embedded); err != nil {
		return nil, err
	}

	stats := &driving.IndexStats{
		Documents: len(documents),
		Chunks:    len(allChunks),
		Embedded:  embedded,
	}
	logger.Info("Index rebuilt: %d documents, %d chunks, %d embedded",
		stats.Documents, stats.Chunks, stats.Embedded)
	return stats, nil
}

// LoadFromStore rebuilds the in-memory indices from persisted chunks
// without touching the corpus or the embedding service.
func (s *IndexerService) LoadFromStore(ctx context.Context) (*driving.IndexStats, error) {
	logger.Section("Index Load")

	chunks, err := s.docStore.AllChunks(ctx)
	if err != nil {
		return nil, fmt.Errorf("load chunks: %w", err)
	}
	if len(chunks) == 0 {
		return nil, domain.ErrIndexNotBuilt
	}

	embedded := 0
	documents := make(map[string]struct{})
	for _, chunk := range chunks {
		documents[chunk.DocumentID] = struct{}{}
		if len(chunk.Embedding) > 0 {
			embedded++
		}
	}

	if err := s.buildIndices(ctx, chunks, embedded); err != nil {
		return nil, err
	}

	stats := &driving.IndexStats{
		Documents: len(documents),
		Chunks:    len(chunks),
		Embedded:  embedded,
	}
	logger.Info("Index loaded from store: %d documents, %d chunks, %d embedded",
		stats.Documents, stats.Chunks, stats.Embedded)
	return stats, nil
}

// Watch re-runs Rebuild whenever the corpus file changes. Blocks until
// the context is cancelled.
func (s *IndexerService) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the parent directory: crawlers and editors replace the
	// corpus file via rename, which drops a watch on the file itself.
	corpusPath := s.corpus.Path()
	if err := watcher.Add(filepath.Dir(corpusPath)); err != nil {
		return fmt.Errorf("watch %s: %w", corpusPath, err)
	}
	logger.Info("Watching %s for changes", corpusPath)

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(corpusPath) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			logger.Debug("Corpus change detected: %s", event.Op)
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
				timerC = timer.C
			} else {
				timer.Reset(watchDebounce)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			logger.Info("Corpus changed, rebuilding index")
			if _, err := s.Rebuild(ctx); err != nil {
				logger.Warn("Automatic rebuild failed: %v", err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)
		}
	}
}

// embedChunks attaches embeddings to chunks in place and returns how
// many chunks were embedded.
func (s *IndexerService) embedChunks(ctx context.Context, chunks []domain.Chunk) (int, error) {
	if s.embedder == nil || len(chunks) == 0 {
		logger.Debug("No embedding service, skipping embeddings")
		return 0, nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}

	logger.Info("Embedding %d chunks with %s", len(chunks), s.embedder.ModelName())
	embeddings, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embed chunks: %w", err)
	}
	if len(embeddings) != len(chunks) {
		return 0, fmt.Errorf("%w: got %d embeddings for %d chunks",
			domain.ErrEmbeddingService, len(embeddings), len(chunks))
	}

	embedded := 0
	for i := range chunks {
		chunks[i].Embedding = embeddings[i]
		if len(embeddings[i]) > 0 {
			embedded++
		}
	}
	return embedded, nil
}

// buildIndices swaps both in-memory indices to fresh snapshots.
func (s *IndexerService) buildIndices(ctx context.Context, chunks []domain.Chunk, embedded int) error {
	if err := s.searchEngine.Build(ctx, chunks); err != nil {
		return fmt.Errorf("build lexical index: %w", err)
	}
	if s.vectorIndex != nil && embedded > 0 {
		if err := s.vectorIndex.Build(ctx, chunks); err != nil {
			return fmt.Errorf("build vector index: %w", err)
		}
	}
	return nil
}
