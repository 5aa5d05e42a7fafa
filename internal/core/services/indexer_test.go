package services

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lodestar-labs/ansa-cli/internal/adapters/driven/corpus/jsonfile"
	"github.com/lodestar-labs/ansa-cli/internal/adapters/driven/storage/memory"
	"github.com/lodestar-labs/ansa-cli/internal/chunker"
	"github.com/lodestar-labs/ansa-cli/internal/core/domain"
)

func newTestChunker(t *testing.T) *chunker.Chunker {
	t.Helper()
	ch, err := chunker.New(chunker.Config{MaxSize: 200, Overlap: 20})
	require.NoError(t, err)
	return ch
}

func testCorpus() *mockCorpusLoader {
	return &mockCorpusLoader{
		path: "/tmp/corpus.json",
		documents: []domain.Document{
			{ID: "d1", Title: "Services", Content: strings.Repeat("We build data platforms. ", 20)},
			{ID: "d2", Title: "Contact", Content: strings.Repeat("Reach us by email. ", 20)},
		},
	}
}

func TestRebuild_IndexesCorpus(t *testing.T) {
	ctx := context.Background()
	store := memory.NewDocumentStore()
	engine := &mockSearchEngine{}
	index := &mockVectorIndex{}
	embedder := &mockEmbeddingService{embedding: []float32{0.1, 0.2, 0.3}}

	svc := NewIndexerService(testCorpus(), newTestChunker(t), store, engine, index, embedder)
	stats, err := svc.Rebuild(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Documents)
	assert.Greater(t, stats.Chunks, 2)
	assert.Equal(t, stats.Chunks, stats.Embedded)

	// Both indices were built from the same chunk set.
	assert.Len(t, engine.built, stats.Chunks)
	assert.Len(t, index.built, stats.Chunks)

	// Chunks and documents are persisted.
	chunks, err := store.AllChunks(ctx)
	require.NoError(t, err)
	assert.Len(t, chunks, stats.Chunks)
	doc, err := store.GetDocument(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "Services", doc.Title)
}

func TestRebuild_WithoutEmbedderBuildsLexicalOnly(t *testing.T) {
	engine := &mockSearchEngine{}
	index := &mockVectorIndex{}

	svc := NewIndexerService(testCorpus(), newTestChunker(t), memory.NewDocumentStore(), engine, index, nil)
	stats, err := svc.Rebuild(context.Background())
	require.NoError(t, err)

	assert.Zero(t, stats.Embedded)
	assert.NotEmpty(t, engine.built)
	assert.Empty(t, index.built)
}

func TestRebuild_ReplacesPreviousIndex(t *testing.T) {
	ctx := context.Background()
	store := memory.NewDocumentStore()
	require.NoError(t, store.SaveChunks(ctx, []domain.Chunk{{ID: "stale#0000", DocumentID: "stale"}}))

	svc := NewIndexerService(testCorpus(), newTestChunker(t), store, &mockSearchEngine{}, nil, nil)
	_, err := svc.Rebuild(ctx)
	require.NoError(t, err)

	_, err = store.GetChunk(ctx, "stale#0000")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRebuild_CorpusLoadFailurePreservesStore(t *testing.T) {
	ctx := context.Background()
	store := memory.NewDocumentStore()
	require.NoError(t, store.SaveChunks(ctx, []domain.Chunk{{ID: "keep#0000", DocumentID: "keep"}}))

	corpus := &mockCorpusLoader{err: domain.ErrEmptyCorpus}
	svc := NewIndexerService(corpus, newTestChunker(t), store, &mockSearchEngine{}, nil, nil)

	_, err := svc.Rebuild(ctx)
	assert.ErrorIs(t, err, domain.ErrEmptyCorpus)

	_, err = store.GetChunk(ctx, "keep#0000")
	assert.NoError(t, err)
}

func TestRebuild_EmbeddingFailureAborts(t *testing.T) {
	embedder := &mockEmbeddingService{embedErr: domain.ErrEmbeddingService}
	svc := NewIndexerService(testCorpus(), newTestChunker(t), memory.NewDocumentStore(),
		&mockSearchEngine{}, &mockVectorIndex{}, embedder)

	_, err := svc.Rebuild(context.Background())
	assert.ErrorIs(t, err, domain.ErrEmbeddingService)
}

func TestLoadFromStore_RebuildsIndices(t *testing.T) {
	ctx := context.Background()
	store := memory.NewDocumentStore()
	require.NoError(t, store.SaveChunks(ctx, []domain.Chunk{
		{ID: "d1#0000", DocumentID: "d1", Content: "a", Embedding: []float32{0.1}},
		{ID: "d1#0001", DocumentID: "d1", Content: "b", Embedding: []float32{0.2}},
		{ID: "d2#0000", DocumentID: "d2", Content: "c"},
	}))

	engine := &mockSearchEngine{}
	index := &mockVectorIndex{}
	svc := NewIndexerService(testCorpus(), newTestChunker(t), store, engine, index, nil)

	stats, err := svc.LoadFromStore(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Documents)
	assert.Equal(t, 3, stats.Chunks)
	assert.Equal(t, 2, stats.Embedded)
	assert.Len(t, engine.built, 3)
	assert.Len(t, index.built, 3)
}

func TestLoadFromStore_EmptyStoreMeansNoIndex(t *testing.T) {
	svc := NewIndexerService(testCorpus(), newTestChunker(t), memory.NewDocumentStore(),
		&mockSearchEngine{}, nil, nil)

	_, err := svc.LoadFromStore(context.Background())
	assert.ErrorIs(t, err, domain.ErrIndexNotBuilt)
}

func TestWatch_RebuildsOnCorpusChange(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dir := t.TempDir()
	corpusPath := filepath.Join(dir, "corpus.json")
	page := `[{"url": "https://example.com/a", "title": "A", "content": "` +
		strings.Repeat("Data platform engineering services. ", 5) + `"}]`
	require.NoError(t, os.WriteFile(corpusPath, []byte(page), 0o644))

	store := memory.NewDocumentStore()
	loader := jsonfile.New(corpusPath)
	svc := NewIndexerService(loader, newTestChunker(t), store, &mockSearchEngine{}, nil, nil)

	done := make(chan error, 1)
	go func() { done <- svc.Watch(ctx) }()

	// Give the watcher a moment to register, then touch the corpus.
	time.Sleep(200 * time.Millisecond)
	require.NoError(t, os.WriteFile(corpusPath, []byte(page), 0o644))

	require.Eventually(t, func() bool {
		chunks, err := store.AllChunks(context.Background())
		return err == nil && len(chunks) > 0
	}, 8*time.Second, 100*time.Millisecond, "expected a rebuild after the corpus changed")

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
