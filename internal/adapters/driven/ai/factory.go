// Package ai builds embedding and LLM adapters from configuration.
package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	ollamaembed "github.com/lodestar-labs/ansa-cli/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/lodestar-labs/ansa-cli/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/lodestar-labs/ansa-cli/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/lodestar-labs/ansa-cli/internal/adapters/driven/llm/ollama"
	openaillm "github.com/lodestar-labs/ansa-cli/internal/adapters/driven/llm/openai"
	"github.com/lodestar-labs/ansa-cli/internal/core/domain"
	"github.com/lodestar-labs/ansa-cli/internal/core/ports/driven"
)

// pingTimeout bounds connectivity validation.
const pingTimeout = 5 * time.Second

// Supported provider names.
const (
	ProviderOllama    = "ollama"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// EmbeddingSettings selects and configures the embedding provider.
type EmbeddingSettings struct {
	Provider          string
	Model             string
	APIKey            string
	BaseURL           string
	Dimensions        int
	RequestsPerSecond float64
}

// IsConfigured reports whether a provider was selected.
func (s EmbeddingSettings) IsConfigured() bool { return s.Provider != "" }

// LLMSettings selects and configures the generation provider.
type LLMSettings struct {
	Provider          string
	Model             string
	APIKey            string
	BaseURL           string
	RequestsPerSecond float64
}

// IsConfigured reports whether a provider was selected.
func (s LLMSettings) IsConfigured() bool { return s.Provider != "" }

// EmbeddingSettingsFrom reads the embedding.* keys from configuration.
func EmbeddingSettingsFrom(cfg driven.ConfigStore) EmbeddingSettings {
	return EmbeddingSettings{
		Provider:          strings.ToLower(cfg.GetString("embedding.provider")),
		Model:             cfg.GetString("embedding.model"),
		APIKey:            cfg.GetString("embedding.api_key"),
		BaseURL:           cfg.GetString("embedding.base_url"),
		Dimensions:        cfg.GetInt("embedding.dimensions"),
		RequestsPerSecond: cfg.GetFloat("embedding.requests_per_second"),
	}
}

// LLMSettingsFrom reads the llm.* keys from configuration.
func LLMSettingsFrom(cfg driven.ConfigStore) LLMSettings {
	return LLMSettings{
		Provider:          strings.ToLower(cfg.GetString("llm.provider")),
		Model:             cfg.GetString("llm.model"),
		APIKey:            cfg.GetString("llm.api_key"),
		BaseURL:           cfg.GetString("llm.base_url"),
		RequestsPerSecond: cfg.GetFloat("llm.requests_per_second"),
	}
}

// CreateEmbeddingService builds the configured embedding provider.
// Returns nil without error when no provider is configured; vector
// retrieval is disabled in that case.
func CreateEmbeddingService(settings EmbeddingSettings) (driven.EmbeddingService, error) {
	switch settings.Provider {
	case "":
		return nil, nil

	case ProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: settings.Dimensions,
		}), nil

	case ProviderOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:            settings.APIKey,
			BaseURL:           settings.BaseURL,
			Model:             settings.Model,
			Dimensions:        settings.Dimensions,
			RequestsPerSecond: settings.RequestsPerSecond,
		})

	case ProviderAnthropic:
		return nil, fmt.Errorf("anthropic does not offer embeddings, use ollama or openai")

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
}

// CreateLLMService builds the configured generation provider. Returns
// nil without error when no provider is configured.
func CreateLLMService(settings LLMSettings) (driven.LLMService, error) {
	switch settings.Provider {
	case "":
		return nil, nil

	case ProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil

	case ProviderOpenAI:
		return openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:            settings.APIKey,
			BaseURL:           settings.BaseURL,
			Model:             settings.Model,
			RequestsPerSecond: settings.RequestsPerSecond,
		})

	case ProviderAnthropic:
		return anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
}

// CreateAndValidateEmbeddingService builds the embedding provider and
// verifies it is reachable before handing it out.
func CreateAndValidateEmbeddingService(settings EmbeddingSettings) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	if svc == nil {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w)", domain.ErrEmbeddingUnavailable, err)
	}
	return svc, nil
}

// CreateAndValidateLLMService builds the generation provider and
// verifies it is reachable before handing it out.
func CreateAndValidateLLMService(settings LLMSettings) (driven.LLMService, error) {
	svc, err := CreateLLMService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
	}
	if svc == nil {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w)", domain.ErrLLMUnavailable, err)
	}
	return svc, nil
}
