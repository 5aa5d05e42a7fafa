package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lodestar-labs/ansa-cli/internal/adapters/driven/storage/memory"
	"github.com/lodestar-labs/ansa-cli/internal/core/domain"
)

// mockRetriever implements driving.RetrieverService.
type mockRetriever struct {
	chunks []domain.RetrievedChunk
	err    error
	calls  int
}

func (m *mockRetriever) Retrieve(_ context.Context, _ string, _ domain.RetrievalOptions) ([]domain.RetrievedChunk, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.chunks, nil
}

type qaFixture struct {
	svc       *QAService
	llm       *mockLLMService
	retriever *mockRetriever
	sessions  *MemoryService
	docStore  *memory.DocumentStore
}

// newQAFixture wires a QA service whose LLM first classifies, then
// generates. The first response must be a classifier verdict.
func newQAFixture(t *testing.T, llm *mockLLMService, retriever *mockRetriever) *qaFixture {
	t.Helper()

	prompts := newMockPromptStore()
	classifier := NewClassifierService(llm, prompts, ClassifierConfig{CompanyName: "Lodestar"})
	sessions := NewMemoryService(memory.NewSessionStore(), MemoryConfig{})
	docStore := memory.NewDocumentStore()

	svc := NewQAService(classifier, retriever, sessions, llm, prompts, docStore, QAConfig{
		CompanyName: "Lodestar",
	})
	return &qaFixture{svc: svc, llm: llm, retriever: retriever, sessions: sessions, docStore: docStore}
}

const companyVerdict = `{"label": "company", "confidence": 0.9, "reason": "about the company"}`
const generalVerdict = `{"label": "general", "confidence": 0.9, "reason": "small talk"}`

func retrievedChunk(id string, score float64) domain.RetrievedChunk {
	return domain.RetrievedChunk{
		Chunk: domain.Chunk{ID: id, DocumentID: "doc1", Content: "chunk " + id},
		Score: score,
	}
}

func TestAsk_CompanyQuestionRetrievesAndCites(t *testing.T) {
	ctx := context.Background()
	llm := &mockLLMService{responses: []string{companyVerdict, "We offer MLOps consulting."}}
	retriever := &mockRetriever{chunks: []domain.RetrievedChunk{
		retrievedChunk("c1", 0.03),
		retrievedChunk("c2", 0.02),
	}}
	f := newQAFixture(t, llm, retriever)
	require.NoError(t, f.docStore.SaveDocument(ctx, &domain.Document{
		ID: "doc1", Title: "Services", URL: "https://example.com/services",
	}))

	answer, err := f.svc.Ask(ctx, "s1", "what services do you offer?")
	require.NoError(t, err)

	assert.Equal(t, "We offer MLOps consulting.", answer.Text)
	assert.True(t, answer.InDomain)
	assert.True(t, answer.Grounded)
	assert.Equal(t, 2, answer.RetrievedChunks)
	assert.Equal(t, 1, retriever.calls)
	require.Len(t, answer.Sources, 2)
	assert.Equal(t, "Services", answer.Sources[0].Title)
	assert.Equal(t, "https://example.com/services", answer.Sources[0].URL)
}

func TestAsk_GeneralQuestionSkipsRetrieval(t *testing.T) {
	llm := &mockLLMService{responses: []string{generalVerdict, "Hello! How can I help?"}}
	retriever := &mockRetriever{}
	f := newQAFixture(t, llm, retriever)

	answer, err := f.svc.Ask(context.Background(), "s1", "hi there")
	require.NoError(t, err)

	assert.False(t, answer.InDomain)
	assert.Zero(t, retriever.calls)
	assert.Empty(t, answer.Sources)
}

func TestAsk_UngroundedAnswerCarriesNoSources(t *testing.T) {
	llm := &mockLLMService{responses: []string{
		companyVerdict,
		"Based on the available information I cannot answer this question.",
	}}
	retriever := &mockRetriever{chunks: []domain.RetrievedChunk{retrievedChunk("c1", 0.03)}}
	f := newQAFixture(t, llm, retriever)

	answer, err := f.svc.Ask(context.Background(), "s1", "what is the CEO's shoe size?")
	require.NoError(t, err)

	assert.False(t, answer.Grounded)
	assert.Empty(t, answer.Sources)
}

func TestAsk_LowScoreChunksNotCited(t *testing.T) {
	llm := &mockLLMService{responses: []string{companyVerdict, "An answer."}}
	retriever := &mockRetriever{chunks: []domain.RetrievedChunk{
		retrievedChunk("c1", 0.03),
		retrievedChunk("c2", 0.001),
	}}
	f := newQAFixture(t, llm, retriever)

	answer, err := f.svc.Ask(context.Background(), "s1", "what are your prices?")
	require.NoError(t, err)

	require.Len(t, answer.Sources, 1)
	assert.InDelta(t, 0.03, answer.Sources[0].Score, 1e-9)
}

func TestAsk_SourcesCappedAtMaximum(t *testing.T) {
	llm := &mockLLMService{responses: []string{companyVerdict, "An answer."}}
	retriever := &mockRetriever{chunks: []domain.RetrievedChunk{
		retrievedChunk("c1", 0.04),
		retrievedChunk("c2", 0.03),
		retrievedChunk("c3", 0.025),
		retrievedChunk("c4", 0.02),
	}}
	f := newQAFixture(t, llm, retriever)

	answer, err := f.svc.Ask(context.Background(), "s1", "what do you do?")
	require.NoError(t, err)
	assert.Len(t, answer.Sources, maxSources)
}

func TestAsk_FailedGenerationLeavesSessionUntouched(t *testing.T) {
	ctx := context.Background()
	llm := &mockLLMService{responses: []string{generalVerdict}}
	f := newQAFixture(t, llm, &mockRetriever{})

	require.NoError(t, f.sessions.Record(ctx, "s1", domain.Turn{Question: "q0", Answer: "a0"}))

	// Classification fails open, then generation fails.
	llm.err = errors.New("model overloaded")
	_, err := f.svc.Ask(ctx, "s1", "what services do you have?")
	require.Error(t, err)

	turns, err := f.sessions.History(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, turns, 1)
}

func TestAsk_SuccessfulAnswerRecordsTurn(t *testing.T) {
	ctx := context.Background()
	llm := &mockLLMService{responses: []string{generalVerdict, "Nice to meet you."}}
	f := newQAFixture(t, llm, &mockRetriever{})

	_, err := f.svc.Ask(ctx, "s1", "hello")
	require.NoError(t, err)

	turns, err := f.sessions.History(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, "hello", turns[0].Question)
	assert.Equal(t, "Nice to meet you.", turns[0].Answer)
	assert.Equal(t, domain.LabelGeneral, turns[0].Label)
}

func TestAsk_HistoryFeedsFollowUpPrompt(t *testing.T) {
	ctx := context.Background()
	llm := &mockLLMService{responses: []string{
		generalVerdict, "We were talking about offices.",
	}}
	f := newQAFixture(t, llm, &mockRetriever{})

	require.NoError(t, f.sessions.Record(ctx, "s1", domain.Turn{
		Question: "where are your offices?",
		Answer:   "Amsterdam and Utrecht.",
	}))

	_, err := f.svc.Ask(ctx, "s1", "what were we discussing?")
	require.NoError(t, err)

	// Both the classifier and generation prompts carry the history.
	require.Len(t, llm.prompts, 2)
	assert.Contains(t, llm.prompts[0], "where are your offices?")
	assert.Contains(t, llm.prompts[1], "Amsterdam and Utrecht.")
}

func TestAsk_EmptyQuestionRejected(t *testing.T) {
	llm := &mockLLMService{}
	f := newQAFixture(t, llm, &mockRetriever{})

	_, err := f.svc.Ask(context.Background(), "s1", "  ")
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
	assert.Zero(t, llm.calls)
}

func TestAsk_RetrievalFailureFailsRequest(t *testing.T) {
	ctx := context.Background()
	llm := &mockLLMService{responses: []string{companyVerdict, "unreachable"}}
	retriever := &mockRetriever{err: domain.ErrEmbeddingService}
	f := newQAFixture(t, llm, retriever)

	_, err := f.svc.Ask(ctx, "s1", "what do you offer?")
	assert.ErrorIs(t, err, domain.ErrEmbeddingService)

	turns, err2 := f.sessions.History(ctx, "s1")
	require.NoError(t, err2)
	assert.Empty(t, turns)
}

func TestAsk_ContextBlockInCompanyPrompt(t *testing.T) {
	llm := &mockLLMService{responses: []string{companyVerdict, "Answer with context."}}
	retriever := &mockRetriever{chunks: []domain.RetrievedChunk{retrievedChunk("c1", 0.03)}}
	f := newQAFixture(t, llm, retriever)

	_, err := f.svc.Ask(context.Background(), "s1", "what are your services?")
	require.NoError(t, err)

	require.Len(t, llm.prompts, 2)
	assert.Contains(t, llm.prompts[1], "chunk c1")
	assert.Contains(t, llm.prompts[1], "[Document 1")
}

func TestIsGrounded(t *testing.T) {
	assert.True(t, isGrounded("We provide data engineering services."))
	assert.False(t, isGrounded("I cannot answer that from the context."))
	assert.False(t, isGrounded("There is no information about that topic."))
	assert.False(t, isGrounded("Based on the available information I cannot answer this question."))
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "short", preview("  short  "))

	long := make([]rune, previewLength+50)
	for i := range long {
		long[i] = 'x'
	}
	got := preview(string(long))
	assert.Len(t, []rune(got), previewLength+3)
	assert.Contains(t, got, "...")
}
