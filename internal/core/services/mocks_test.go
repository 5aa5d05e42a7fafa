package services

import (
	"context"

	"github.com/lodestar-labs/ansa-cli/internal/core/domain"
	"github.com/lodestar-labs/ansa-cli/internal/core/ports/driven"
)

// --- Mock implementations shared by service tests ---

// mockSearchEngine implements driven.SearchEngine.
type mockSearchEngine struct {
	hits      []driven.SearchHit
	built     []domain.Chunk
	buildErr  error
	searchErr error
	queries   []string
}

func (m *mockSearchEngine) Build(_ context.Context, chunks []domain.Chunk) error {
	if m.buildErr != nil {
		return m.buildErr
	}
	m.built = chunks
	return nil
}

func (m *mockSearchEngine) Search(_ context.Context, query string, limit int) ([]driven.SearchHit, error) {
	m.queries = append(m.queries, query)
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if limit < len(m.hits) {
		return m.hits[:limit], nil
	}
	return m.hits, nil
}

func (m *mockSearchEngine) Close() error { return nil }

// mockVectorIndex implements driven.VectorIndex.
type mockVectorIndex struct {
	hits      []driven.VectorHit
	built     []domain.Chunk
	buildErr  error
	searchErr error
}

func (m *mockVectorIndex) Build(_ context.Context, chunks []domain.Chunk) error {
	if m.buildErr != nil {
		return m.buildErr
	}
	m.built = chunks
	return nil
}

func (m *mockVectorIndex) Search(_ context.Context, _ []float32, k int) ([]driven.VectorHit, error) {
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if k < len(m.hits) {
		return m.hits[:k], nil
	}
	return m.hits, nil
}

func (m *mockVectorIndex) Close() error { return nil }

// mockEmbeddingService implements driven.EmbeddingService.
type mockEmbeddingService struct {
	embedding []float32
	embedErr  error
	calls     int
}

func (m *mockEmbeddingService) Embed(_ context.Context, _ string) ([]float32, error) {
	m.calls++
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return m.embedding, nil
}

func (m *mockEmbeddingService) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.calls++
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	result := make([][]float32, len(texts))
	for i := range texts {
		result[i] = m.embedding
	}
	return result, nil
}

func (m *mockEmbeddingService) Dimensions() int { return len(m.embedding) }

func (m *mockEmbeddingService) ModelName() string { return "mock-embed" }

func (m *mockEmbeddingService) Ping(_ context.Context) error { return nil }

func (m *mockEmbeddingService) Close() error { return nil }

// mockLLMService implements driven.LLMService. Responses are served in
// order; the last one repeats.
type mockLLMService struct {
	responses []string
	err       error
	prompts   []string
	calls     int
}

func (m *mockLLMService) Generate(_ context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	m.calls++
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return "", m.err
	}
	if len(m.responses) == 0 {
		return "", nil
	}
	idx := m.calls - 1
	if idx >= len(m.responses) {
		idx = len(m.responses) - 1
	}
	return m.responses[idx], nil
}

func (m *mockLLMService) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.GenerateOptions) (string, error) {
	var prompt string
	if len(messages) > 0 {
		prompt = messages[len(messages)-1].Content
	}
	return m.Generate(ctx, prompt, opts)
}

func (m *mockLLMService) ModelName() string { return "mock-llm" }

func (m *mockLLMService) Ping(_ context.Context) error { return nil }

func (m *mockLLMService) Close() error { return nil }

// mockPromptStore implements driven.PromptStore with the embedded
// defaults semantics but no disk I/O.
type mockPromptStore struct {
	prompts map[string]string
}

func newMockPromptStore() *mockPromptStore {
	return &mockPromptStore{prompts: map[string]string{
		driven.PromptClassify:      "Classify for {company} ({company_description}).\n{history}\nQ: {question}\nJSON only.",
		driven.PromptCompanyAnswer: "Answer for {company}.\n{history}\nContext:\n{context}\nQ: {question}",
		driven.PromptGeneralAnswer: "Chat.\n{history}\nQ: {question}",
	}}
}

func (m *mockPromptStore) Load(name string) (string, error) {
	return m.prompts[name], nil
}

func (m *mockPromptStore) Reload() {}

// mockCorpusLoader implements driven.CorpusLoader.
type mockCorpusLoader struct {
	documents []domain.Document
	err       error
	path      string
}

func (m *mockCorpusLoader) Load(_ context.Context) ([]domain.Document, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.documents, nil
}

func (m *mockCorpusLoader) Path() string { return m.path }
