package services

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/lodestar-labs/ansa-cli/internal/core/domain"
	"github.com/lodestar-labs/ansa-cli/internal/core/ports/driven"
	"github.com/lodestar-labs/ansa-cli/internal/logger"
)

// Classifier defaults.
const (
	DefaultHistoryWindow      = 3
	classifyTemperature       = 0.1
	classifyMaxTokens         = 200
	degradedConfidence        = 0.5
	keywordConfidence         = 0.7
	explicitMentionConfidence = 0.9
)

// companyKeywords triggers the heuristic fallback when the LLM cannot
// be consulted. Matches are substring-based on the lowercased question.
var companyKeywords = []string{
	"company", "firm", "organisation", "organization",
	"office", "address", "contact",
	"service", "solution", "product",
	"client", "customer", "partner",
	"vacanc", "job", "career", "hiring",
	"pricing", "price", "cost",
	"mlops", "data science", "expertise",
}

// jsonPattern extracts the first JSON object from model output that may
// carry surrounding prose.
var jsonPattern = regexp.MustCompile(`(?s)\{.*\}`)

// ClassifierConfig tunes the query classifier.
type ClassifierConfig struct {
	// CompanyName names the organization in the classifier prompt and
	// heuristic keyword set.
	CompanyName string

	// CompanyDescription is a one-paragraph description fed to the
	// prompt so the model knows what counts as on-topic.
	CompanyDescription string

	// HistoryWindow is how many recent turns the classifier sees.
	HistoryWindow int
}

// ClassifierService decides whether a question needs corpus retrieval.
// The judgement is delegated to an LLM with a constrained JSON prompt;
// failures never surface to the caller, they fail open to the company
// label with a degraded flag.
type ClassifierService struct {
	llm     driven.LLMService
	prompts driven.PromptStore
	cfg     ClassifierConfig
}

// classifierVerdict is the JSON shape the model is asked to produce.
type classifierVerdict struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

// NewClassifierService creates a query classifier. The llm parameter is
// optional; without it classification always takes the heuristic path.
func NewClassifierService(llm driven.LLMService, prompts driven.PromptStore, cfg ClassifierConfig) *ClassifierService {
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = DefaultHistoryWindow
	}
	return &ClassifierService{llm: llm, prompts: prompts, cfg: cfg}
}

// Classify labels a question as company-related or general
// conversation, given recent session history. It never returns an
// error: any failure falls back to heuristics and then fails open.
func (s *ClassifierService) Classify(ctx context.Context, question string, history []domain.Turn) domain.Classification {
	logger.Section("Query Classification")
	logger.Debug("Question: %q", truncateForLog(question, 100))

	if s.llm == nil {
		logger.Debug("No LLM configured, using heuristic classification")
		return s.classifyWithHeuristics(question)
	}

	prompt, err := s.buildPrompt(question, history)
	if err != nil {
		logger.Warn("Classifier prompt load failed: %v", err)
		return s.classifyWithHeuristics(question)
	}

	response, err := s.llm.Generate(ctx, prompt, driven.GenerateOptions{
		MaxTokens:   classifyMaxTokens,
		Temperature: classifyTemperature,
	})
	if err != nil {
		logger.Warn("Classifier LLM call failed: %v", err)
		return s.classifyWithHeuristics(question)
	}

	verdict, ok := parseVerdict(response)
	if !ok {
		logger.Warn("Classifier returned unparseable output: %q", truncateForLog(response, 200))
		return s.classifyWithHeuristics(question)
	}

	label := domain.QueryLabel(strings.ToLower(strings.TrimSpace(verdict.Label)))
	if label != domain.LabelCompany && label != domain.LabelGeneral {
		logger.Warn("Classifier returned unknown label %q", verdict.Label)
		return s.classifyWithHeuristics(question)
	}

	confidence := verdict.Confidence
	if confidence <= 0 || confidence > 1 {
		confidence = 0.8
	}

	logger.Info("Classified as %s (confidence %.2f)", label, confidence)
	return domain.Classification{
		Label:      label,
		Confidence: confidence,
		Reason:     verdict.Reason,
	}
}

// buildPrompt fills the classify template with company details, the
// recent history window, and the question.
func (s *ClassifierService) buildPrompt(question string, history []domain.Turn) (string, error) {
	template, err := s.prompts.Load(driven.PromptClassify)
	if err != nil {
		return "", err
	}

	recent := (&domain.Session{Turns: history}).Recent(s.cfg.HistoryWindow)
	replacer := strings.NewReplacer(
		"{company}", s.cfg.CompanyName,
		"{company_description}", s.cfg.CompanyDescription,
		"{history}", formatHistory(recent),
		"{question}", question,
	)
	return replacer.Replace(template), nil
}

// classifyWithHeuristics is the fallback when the LLM path fails. It
// fails open: absent any signal the question is still treated as
// company-related so potentially relevant context is not dropped.
func (s *ClassifierService) classifyWithHeuristics(question string) domain.Classification {
	lower := strings.ToLower(question)

	if name := strings.ToLower(s.cfg.CompanyName); name != "" && strings.Contains(lower, name) {
		return domain.Classification{
			Label:      domain.LabelCompany,
			Confidence: explicitMentionConfidence,
			Reason:     "explicit mention of " + s.cfg.CompanyName,
			Degraded:   true,
		}
	}

	for _, keyword := range companyKeywords {
		if strings.Contains(lower, keyword) {
			return domain.Classification{
				Label:      domain.LabelCompany,
				Confidence: keywordConfidence,
				Reason:     "matched keyword: " + keyword,
				Degraded:   true,
			}
		}
	}

	return domain.Classification{
		Label:      domain.LabelCompany,
		Confidence: degradedConfidence,
		Reason:     "no classification signal, failing open to retrieval",
		Degraded:   true,
	}
}

// parseVerdict extracts and decodes the JSON object from model output.
func parseVerdict(response string) (classifierVerdict, bool) {
	match := jsonPattern.FindString(response)
	if match == "" {
		return classifierVerdict{}, false
	}

	var verdict classifierVerdict
	if err := json.Unmarshal([]byte(match), &verdict); err != nil {
		return classifierVerdict{}, false
	}
	if verdict.Label == "" {
		return classifierVerdict{}, false
	}
	return verdict, true
}

// formatHistory renders turns for prompt inclusion, oldest first.
func formatHistory(turns []domain.Turn) string {
	if len(turns) == 0 {
		return "(no previous conversation)"
	}

	var b strings.Builder
	b.WriteString("Previous conversation:\n")
	for _, turn := range turns {
		b.WriteString("User: ")
		b.WriteString(turn.Question)
		b.WriteString("\nAssistant: ")
		b.WriteString(turn.Answer)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// truncateForLog shortens text for log lines.
func truncateForLog(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	return text[:limit] + "..."
}
