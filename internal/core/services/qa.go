package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lodestar-labs/ansa-cli/internal/core/domain"
	"github.com/lodestar-labs/ansa-cli/internal/core/ports/driven"
	"github.com/lodestar-labs/ansa-cli/internal/core/ports/driving"
	"github.com/lodestar-labs/ansa-cli/internal/logger"
)

// Ensure QAService implements the interface.
var _ driving.QAService = (*QAService)(nil)

// Generation defaults. Company answers stay factual; general chat is
// allowed more creativity.
const (
	companyTemperature = 0.1
	companyMaxTokens   = 1000
	generalTemperature = 0.7
	generalMaxTokens   = 800

	// maxSources caps how many citations an answer carries.
	maxSources = 3

	// previewLength caps source excerpt size.
	previewLength = 200

	// DefaultMinSourceScore gates citations: a chunk must reach this
	// fused score before it is shown as a source. Fused scores top out
	// around 2/(fusionK+1), so the gate is small in absolute terms.
	DefaultMinSourceScore = 0.01
)

// notFoundPhrases marks answers where the model declined to answer from
// the provided context. Such answers carry no citations.
var notFoundPhrases = []string{
	"cannot answer",
	"can't answer",
	"could not answer",
	"no information",
	"not enough information",
	"don't have information",
	"do not have information",
	"based on the available information i cannot",
}

// QAConfig tunes the question answering pipeline.
type QAConfig struct {
	// CompanyName and CompanyDescription feed prompt templates.
	CompanyName        string
	CompanyDescription string

	// HistoryWindow is how many recent turns feed generation prompts.
	HistoryWindow int

	// Retrieval configures the hybrid retriever for in-domain
	// questions.
	Retrieval domain.RetrievalOptions

	// MinSourceScore gates which retrieved chunks become citations.
	MinSourceScore float64

	// CallTimeout bounds each external call. Zero disables the bound.
	CallTimeout time.Duration
}

// QAService orchestrates one question: classify, retrieve when
// in-domain, generate, then record the turn. The turn is recorded only
// after generation succeeds, so failed requests leave session memory
// untouched.
type QAService struct {
	classifier *ClassifierService
	retriever  driving.RetrieverService
	sessions   driving.SessionService
	llm        driven.LLMService
	prompts    driven.PromptStore
	docStore   driven.DocumentStore
	cfg        QAConfig
}

// NewQAService creates the QA orchestrator. docStore resolves cited
// chunks to their parent document titles and urls; it is optional.
func NewQAService(
	classifier *ClassifierService,
	retriever driving.RetrieverService,
	sessions driving.SessionService,
	llm driven.LLMService,
	prompts driven.PromptStore,
	docStore driven.DocumentStore,
	cfg QAConfig,
) *QAService {
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = DefaultHistoryWindow
	}
	if cfg.MinSourceScore <= 0 {
		cfg.MinSourceScore = DefaultMinSourceScore
	}
	return &QAService{
		classifier: classifier,
		retriever:  retriever,
		sessions:   sessions,
		llm:        llm,
		prompts:    prompts,
		docStore:   docStore,
		cfg:        cfg,
	}
}

// Ask answers a question within a session.
func (s *QAService) Ask(ctx context.Context, sessionID, question string) (*domain.Answer, error) {
	logger.Section("Question Answering")

	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: empty question", domain.ErrInvalidConfig)
	}
	if s.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}

	history, err := s.sessions.History(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("session history: %w", err)
	}
	recent := (&domain.Session{Turns: history}).Recent(s.cfg.HistoryWindow)

	// Classification never fails the request; it fails open.
	classification := s.classifier.Classify(ctx, question, recent)

	var retrieved []domain.RetrievedChunk
	if classification.Label.InDomain() {
		retrieved, err = s.retrieve(ctx, question)
		if err != nil {
			return nil, err
		}
	} else {
		logger.Debug("General question, skipping retrieval")
	}

	answerText, err := s.generate(ctx, question, recent, retrieved, classification.Label)
	if err != nil {
		return nil, err
	}

	grounded := isGrounded(answerText)
	answer := &domain.Answer{
		Text:            answerText,
		SessionID:       sessionID,
		InDomain:        classification.Label.InDomain(),
		Classification:  classification,
		Grounded:        grounded,
		RetrievedChunks: len(retrieved),
	}
	if answer.InDomain && grounded {
		answer.Sources = s.buildSources(ctx, retrieved)
	}

	turn := domain.Turn{
		Question:  question,
		Answer:    answerText,
		Label:     classification.Label,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.sessions.Record(ctx, sessionID, turn); err != nil {
		// The answer already exists; losing one history entry is
		// preferable to failing the whole request.
		logger.Warn("Recording turn failed for session %s: %v", sessionID, err)
	}

	logger.Info("Answered (%s, %d sources, grounded=%t)",
		classification.Label, len(answer.Sources), grounded)
	return answer, nil
}

// retrieve runs hybrid retrieval with the configured call timeout.
func (s *QAService) retrieve(ctx context.Context, question string) ([]domain.RetrievedChunk, error) {
	ctx, cancel := s.callContext(ctx)
	defer cancel()

	retrieved, err := s.retriever.Retrieve(ctx, question, s.cfg.Retrieval)
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}
	return retrieved, nil
}

// generate assembles the prompt for the question type and calls the
// model.
func (s *QAService) generate(
	ctx context.Context,
	question string,
	history []domain.Turn,
	retrieved []domain.RetrievedChunk,
	label domain.QueryLabel,
) (string, error) {
	var prompt string
	var opts driven.GenerateOptions
	var err error

	if label.InDomain() {
		prompt, err = s.buildCompanyPrompt(question, history, retrieved)
		opts = driven.GenerateOptions{MaxTokens: companyMaxTokens, Temperature: companyTemperature}
	} else {
		prompt, err = s.buildGeneralPrompt(question, history)
		opts = driven.GenerateOptions{MaxTokens: generalMaxTokens, Temperature: generalTemperature}
	}
	if err != nil {
		return "", fmt.Errorf("build prompt: %w", err)
	}

	ctx, cancel := s.callContext(ctx)
	defer cancel()

	answer, err := s.llm.Generate(ctx, prompt, opts)
	if err != nil {
		return "", fmt.Errorf("generate answer: %w", err)
	}
	return strings.TrimSpace(answer), nil
}

// buildCompanyPrompt fills the grounded-answer template with retrieved
// context, history, and the question.
func (s *QAService) buildCompanyPrompt(
	question string, history []domain.Turn, retrieved []domain.RetrievedChunk,
) (string, error) {
	template, err := s.prompts.Load(driven.PromptCompanyAnswer)
	if err != nil {
		return "", err
	}

	replacer := strings.NewReplacer(
		"{company}", s.cfg.CompanyName,
		"{history}", formatHistory(history),
		"{context}", formatContext(retrieved),
		"{question}", question,
	)
	return replacer.Replace(template), nil
}

// buildGeneralPrompt fills the free-conversation template.
func (s *QAService) buildGeneralPrompt(question string, history []domain.Turn) (string, error) {
	template, err := s.prompts.Load(driven.PromptGeneralAnswer)
	if err != nil {
		return "", err
	}

	replacer := strings.NewReplacer(
		"{history}", formatHistory(history),
		"{question}", question,
	)
	return replacer.Replace(template), nil
}

// formatContext renders retrieved chunks as a numbered context block.
func formatContext(retrieved []domain.RetrievedChunk) string {
	if len(retrieved) == 0 {
		return "(no relevant context found)"
	}

	var b strings.Builder
	for i, rc := range retrieved {
		fmt.Fprintf(&b, "[Document %d, relevance %.3f]\n%s\n\n", i+1, rc.Score, strings.TrimSpace(rc.Chunk.Content))
	}
	return strings.TrimRight(b.String(), "\n")
}

// buildSources converts the best retrieved chunks into citations,
// resolving parent documents for titles and urls.
func (s *QAService) buildSources(ctx context.Context, retrieved []domain.RetrievedChunk) []domain.Source {
	docs := make(map[string]*domain.Document)
	sources := make([]domain.Source, 0, maxSources)
	for _, rc := range retrieved {
		if rc.Score < s.cfg.MinSourceScore {
			continue
		}

		source := domain.Source{
			Title:   rc.Chunk.DocumentID,
			Preview: preview(rc.Chunk.Content),
			Score:   rc.Score,
		}
		if doc := s.lookupDocument(ctx, docs, rc.Chunk.DocumentID); doc != nil {
			source.Title = doc.Title
			source.URL = doc.URL
		}

		sources = append(sources, source)
		if len(sources) == maxSources {
			break
		}
	}
	return sources
}

// lookupDocument fetches a document once per answer, caching by id.
func (s *QAService) lookupDocument(ctx context.Context, cache map[string]*domain.Document, id string) *domain.Document {
	if s.docStore == nil {
		return nil
	}
	if doc, ok := cache[id]; ok {
		return doc
	}
	doc, err := s.docStore.GetDocument(ctx, id)
	if err != nil {
		logger.Debug("Source document %s unavailable: %v", id, err)
		cache[id] = nil
		return nil
	}
	cache[id] = doc
	return doc
}

// preview truncates chunk content for display.
func preview(content string) string {
	content = strings.TrimSpace(content)
	runes := []rune(content)
	if len(runes) <= previewLength {
		return content
	}
	return string(runes[:previewLength]) + "..."
}

// isGrounded reports whether the model answered from context rather
// than declining.
func isGrounded(answer string) bool {
	lower := strings.ToLower(answer)
	for _, phrase := range notFoundPhrases {
		if strings.Contains(lower, phrase) {
			return false
		}
	}
	return true
}

// callContext applies the configured per-call timeout.
func (s *QAService) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.CallTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.cfg.CallTimeout)
}
