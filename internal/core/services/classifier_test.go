package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lodestar-labs/ansa-cli/internal/core/domain"
)

func newTestClassifier(llm *mockLLMService) *ClassifierService {
	return NewClassifierService(llm, newMockPromptStore(), ClassifierConfig{
		CompanyName:        "Lodestar",
		CompanyDescription: "a data and MLOps consultancy",
	})
}

func TestClassify_ParsesLLMVerdict(t *testing.T) {
	llm := &mockLLMService{responses: []string{
		`{"label": "general", "confidence": 0.95, "reason": "small talk"}`,
	}}
	svc := newTestClassifier(llm)

	got := svc.Classify(context.Background(), "how is the weather today?", nil)
	assert.Equal(t, domain.LabelGeneral, got.Label)
	assert.InDelta(t, 0.95, got.Confidence, 1e-9)
	assert.Equal(t, "small talk", got.Reason)
	assert.False(t, got.Degraded)
}

func TestClassify_ExtractsJSONFromProse(t *testing.T) {
	llm := &mockLLMService{responses: []string{
		"Sure, here is my verdict:\n```json\n{\"label\": \"company\", \"confidence\": 0.9, \"reason\": \"asks about services\"}\n```\nHope that helps.",
	}}
	svc := newTestClassifier(llm)

	got := svc.Classify(context.Background(), "what services do you offer?", nil)
	assert.Equal(t, domain.LabelCompany, got.Label)
	assert.False(t, got.Degraded)
}

func TestClassify_LLMFailureFailsOpen(t *testing.T) {
	llm := &mockLLMService{err: errors.New("connection refused")}
	svc := newTestClassifier(llm)

	got := svc.Classify(context.Background(), "tell me a joke", nil)
	assert.Equal(t, domain.LabelCompany, got.Label)
	assert.True(t, got.Degraded)
}

func TestClassify_UnparseableOutputFailsOpen(t *testing.T) {
	llm := &mockLLMService{responses: []string{"I think this is about the company."}}
	svc := newTestClassifier(llm)

	got := svc.Classify(context.Background(), "anything", nil)
	assert.Equal(t, domain.LabelCompany, got.Label)
	assert.True(t, got.Degraded)
}

func TestClassify_UnknownLabelFallsBack(t *testing.T) {
	llm := &mockLLMService{responses: []string{
		`{"label": "maybe", "confidence": 0.7, "reason": "unsure"}`,
	}}
	svc := newTestClassifier(llm)

	got := svc.Classify(context.Background(), "what is your address?", nil)
	assert.Equal(t, domain.LabelCompany, got.Label)
	assert.True(t, got.Degraded)
}

func TestClassify_NoLLMUsesHeuristics(t *testing.T) {
	svc := NewClassifierService(nil, newMockPromptStore(), ClassifierConfig{CompanyName: "Lodestar"})

	tests := []struct {
		name       string
		question   string
		confidence float64
	}{
		{"explicit company mention", "what does Lodestar do?", explicitMentionConfidence},
		{"keyword match", "what are your pricing plans?", keywordConfidence},
		{"no signal", "hmm", degradedConfidence},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := svc.Classify(context.Background(), tt.question, nil)
			assert.Equal(t, domain.LabelCompany, got.Label)
			assert.InDelta(t, tt.confidence, got.Confidence, 1e-9)
			assert.True(t, got.Degraded)
		})
	}
}

func TestClassify_HistoryIncludedInPrompt(t *testing.T) {
	llm := &mockLLMService{responses: []string{
		`{"label": "company", "confidence": 0.85, "reason": "follow-up about offices"}`,
	}}
	svc := newTestClassifier(llm)

	history := []domain.Turn{
		{Question: "where are your offices?", Answer: "We have offices in Amsterdam.", Label: domain.LabelCompany},
	}
	got := svc.Classify(context.Background(), "and what about the second one?", history)

	assert.Equal(t, domain.LabelCompany, got.Label)
	require.Len(t, llm.prompts, 1)
	assert.Contains(t, llm.prompts[0], "where are your offices?")
	assert.Contains(t, llm.prompts[0], "and what about the second one?")
}

func TestClassify_HistoryWindowLimitsTurns(t *testing.T) {
	llm := &mockLLMService{responses: []string{
		`{"label": "general", "confidence": 0.9, "reason": "chat"}`,
	}}
	svc := NewClassifierService(llm, newMockPromptStore(), ClassifierConfig{
		CompanyName:   "Lodestar",
		HistoryWindow: 1,
	})

	history := []domain.Turn{
		{Question: "old question", Answer: "old answer"},
		{Question: "recent question", Answer: "recent answer"},
	}
	svc.Classify(context.Background(), "ok", history)

	require.Len(t, llm.prompts, 1)
	assert.Contains(t, llm.prompts[0], "recent question")
	assert.NotContains(t, llm.prompts[0], "old question")
}

func TestClassify_OutOfRangeConfidenceClamped(t *testing.T) {
	llm := &mockLLMService{responses: []string{
		`{"label": "company", "confidence": 7.5, "reason": "very sure"}`,
	}}
	svc := newTestClassifier(llm)

	got := svc.Classify(context.Background(), "what do you sell?", nil)
	assert.Equal(t, domain.LabelCompany, got.Label)
	assert.InDelta(t, 0.8, got.Confidence, 1e-9)
}

func TestFormatHistory(t *testing.T) {
	assert.Equal(t, "(no previous conversation)", formatHistory(nil))

	got := formatHistory([]domain.Turn{{Question: "q1", Answer: "a1"}})
	assert.Contains(t, got, "User: q1")
	assert.Contains(t, got, "Assistant: a1")
}

func TestParseVerdict(t *testing.T) {
	_, ok := parseVerdict("no json here")
	assert.False(t, ok)

	_, ok = parseVerdict(`{"confidence": 0.5}`)
	assert.False(t, ok)

	verdict, ok := parseVerdict(`prefix {"label": "general", "confidence": 0.6, "reason": "r"} suffix`)
	require.True(t, ok)
	assert.Equal(t, "general", verdict.Label)
}
