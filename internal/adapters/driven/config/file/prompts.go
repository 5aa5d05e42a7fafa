package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/lodestar-labs/ansa-cli/internal/core/ports/driven"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// PromptStore loads LLM prompts from user-editable files on disk.
// Prompts are loaded from a configurable directory with fallback to embedded defaults.
//
// The store uses lazy initialisation - files are only created when first accessed,
// not in the constructor. This makes testing easier and avoids unexpected I/O.
type PromptStore struct {
	mu        sync.RWMutex
	promptDir string
	cache     map[string]string
	initOnce  sync.Once
	initErr   error
}

// defaultPrompts contains embedded default prompts. Templates use
// {placeholder} markers that the QA service substitutes before sending.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
var defaultPrompts = map[string]string{
	driven.PromptClassify: `You are a question classifier for the {company} assistant.

Your task is to decide whether the user's question is about {company} or a general question.

ABOUT THE COMPANY: {company_description}

QUESTIONS ABOUT THE COMPANY INCLUDE:
- Questions about the company's solutions, services, or products
- Questions about clients, partners, or case studies
- Questions about offices, addresses, or contacts
- Questions about vacancies and careers at the company
- Questions about the company's expertise and technologies
- Questions that explicitly mention "{company}"
- Follow-up questions continuing a previous company topic

GENERAL QUESTIONS INCLUDE:
- Greetings and goodbyes
- Questions about weather, time, or other small talk
- Philosophical or abstract questions
- Questions about other companies or technologies
- General programming or data science questions with no link to {company}

CONVERSATION HISTORY:
{history}

CURRENT QUESTION: {question}

ANSWER IN JSON FORMAT:
{
  "label": "company" or "general",
  "confidence": number between 0 and 1,
  "reason": "short explanation"
}

Important: answer with ONLY the JSON, no other text.`,

	driven.PromptCompanyAnswer: `You are a professional assistant for {company}.
Your task is to answer user questions based on the provided context and conversation history.

CRITICAL RULES:
1. Answer ONLY from the information in the provided context.
2. Use the conversation history to understand follow-up questions.
3. If the context does NOT contain the answer, say: "Based on the available information I cannot answer this question".
4. Do not invent facts that are not in the context.
5. When the information is present, answer briefly and precisely.
6. Cite sources for important facts as [Document X].

{history}

Context (information from the {company} website):
{context}

Current question: {question}

Remember: if the answer is not in the context, say you cannot answer. Do not make things up!

Answer (reply naturally, as in a conversation):`,

	driven.PromptGeneralAnswer: `You are a helpful and friendly AI assistant.
You can hold a conversation on any topic, give advice, and answer general questions.
Be polite, helpful, and friendly.

{history}

Current question: {question}

Reply naturally and warmly, as in a conversation:`,
}

// NewPromptStore creates a new file-based prompt store.
// If promptDir is empty, defaults to ~/.ansa/prompts/.
//
// The constructor does not perform any I/O - directory creation and
// file writes happen lazily on first Load() call.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		promptDir = filepath.Join(home, ".ansa", "prompts")
	}

	return &PromptStore{
		promptDir: promptDir,
		cache:     make(map[string]string),
	}, nil
}

// Load returns the prompt template for the given name.
// On first call, initialises the prompt directory and creates default files.
// Returns cached value if available, otherwise loads from file.
// Falls back to embedded default if file doesn't exist.
func (s *PromptStore) Load(name string) (string, error) {
	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		// Fall back to embedded defaults if init failed
		if prompt, ok := defaultPrompts[name]; ok {
			return prompt, nil
		}
		return "", fmt.Errorf("prompt store init failed: %w", s.initErr)
	}

	s.mu.RLock()
	if prompt, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return prompt, nil
	}
	s.mu.RUnlock()

	// Load from file (no lock held during I/O)
	prompt, err := s.loadFromFile(name)
	if err != nil {
		if defaultPrompt, ok := defaultPrompts[name]; ok {
			return defaultPrompt, nil
		}
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}

	// Double-check pattern to avoid overwriting concurrent loads.
	s.mu.Lock()
	if _, ok := s.cache[name]; !ok {
		s.cache[name] = prompt
	} else {
		prompt = s.cache[name]
	}
	s.mu.Unlock()

	return prompt, nil
}

// Reload clears the prompt cache, forcing fresh loads from disk.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

// initialise creates the prompt directory and default files.
// Called once via sync.Once on first Load().
func (s *PromptStore) initialise() {
	if err := os.MkdirAll(s.promptDir, 0700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	// Create default prompt files (only if they don't exist)
	for name, content := range defaultPrompts {
		path := filepath.Join(s.promptDir, name+".txt")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, []byte(content), 0600); err != nil {
				s.initErr = fmt.Errorf("create default prompt %q: %w", name, err)
				return
			}
		}
	}

	if err := s.createReadme(); err != nil {
		s.initErr = err
	}
}

// loadFromFile reads a prompt from disk.
func (s *PromptStore) loadFromFile(name string) (string, error) {
	path := filepath.Join(s.promptDir, name+".txt")
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// createReadme writes a README file explaining the prompts directory.
func (s *PromptStore) createReadme() error {
	path := filepath.Join(s.promptDir, "README.md")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil // Already exists or stat error (ignore)
	}

	content := `# Ansa Prompts

This directory contains customisable prompts used by ansa's LLM features.

## Files

- ` + "`classify.txt`" + ` - Decides whether a question is about the company
- ` + "`company_answer.txt`" + ` - Answers company questions from retrieved context
- ` + "`general_answer.txt`" + ` - Handles general conversation

## Customisation

Edit any file to customise LLM behaviour. Changes take effect on the next
command or after restarting the server.

## Placeholders

Prompts use {placeholder} markers substituted at request time:
- ` + "`{company}`" + ` - Configured company name
- ` + "`{company_description}`" + ` - Configured company description
- ` + "`{history}`" + ` - Formatted conversation history
- ` + "`{context}`" + ` - Retrieved document context (company answers only)
- ` + "`{question}`" + ` - The current user question

Ensure customised prompts keep the placeholders they need.
`
	return os.WriteFile(path, []byte(content), 0600)
}
