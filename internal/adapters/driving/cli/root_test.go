package cli

import (
	"context"
	"errors"

	"github.com/lodestar-labs/ansa-cli/internal/core/domain"
	"github.com/lodestar-labs/ansa-cli/internal/core/ports/driving"
)

// --- Mock services shared by command tests ---

type mockQAService struct {
	answer *domain.Answer
	err    error
}

func (m *mockQAService) Ask(_ context.Context, sessionID, _ string) (*domain.Answer, error) {
	if m.err != nil {
		return nil, m.err
	}
	answer := *m.answer
	answer.SessionID = sessionID
	return &answer, nil
}

type mockRetrieverService struct {
	results []domain.RetrievedChunk
	err     error
}

func (m *mockRetrieverService) Retrieve(_ context.Context, _ string, _ domain.RetrievalOptions) ([]domain.RetrievedChunk, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.results, nil
}

type mockIndexService struct {
	stats *driving.IndexStats
	err   error
}

func (m *mockIndexService) Rebuild(_ context.Context) (*driving.IndexStats, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.stats, nil
}

func (m *mockIndexService) LoadFromStore(_ context.Context) (*driving.IndexStats, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.stats, nil
}

func (m *mockIndexService) Watch(_ context.Context) error { return m.err }

type mockSessionService struct {
	turns   []domain.Turn
	swept   int
	cleared []string
	err     error
}

func (m *mockSessionService) History(_ context.Context, _ string) ([]domain.Turn, error) {
	return m.turns, m.err
}

func (m *mockSessionService) Record(_ context.Context, _ string, _ domain.Turn) error {
	return m.err
}

func (m *mockSessionService) Clear(_ context.Context, sessionID string) error {
	if m.err != nil {
		return m.err
	}
	m.cleared = append(m.cleared, sessionID)
	return nil
}

func (m *mockSessionService) Sweep(_ context.Context) (int, error) {
	return m.swept, m.err
}

// setupTestServices wires mock services and returns a cleanup that
// restores the previous wiring.
func setupTestServices() func() {
	oldQA := qaService
	oldRetriever := retrieverService
	oldIndex := indexService
	oldSessions := sessionService

	qaService = &mockQAService{answer: &domain.Answer{
		Text:     "We build data platforms.",
		InDomain: true,
		Grounded: true,
		Sources: []domain.Source{
			{Title: "Services", URL: "https://example.com/services", Score: 0.03},
		},
	}}
	retrieverService = &mockRetrieverService{results: []domain.RetrievedChunk{
		{Chunk: domain.Chunk{ID: "d1#0000", DocumentID: "d1", Content: "chunk content"}, Score: 0.03},
	}}
	indexService = &mockIndexService{stats: &driving.IndexStats{Documents: 2, Chunks: 10, Embedded: 10}}
	sessionService = &mockSessionService{}

	return func() {
		qaService = oldQA
		retrieverService = oldRetriever
		indexService = oldIndex
		sessionService = oldSessions
	}
}

var errService = errors.New("service blew up")
