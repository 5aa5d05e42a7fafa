package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateEmbeddingService_UnconfiguredReturnsNil(t *testing.T) {
	svc, err := CreateEmbeddingService(EmbeddingSettings{})
	require.NoError(t, err)
	assert.Nil(t, svc)
}

func TestCreateEmbeddingService_Ollama(t *testing.T) {
	svc, err := CreateEmbeddingService(EmbeddingSettings{Provider: ProviderOllama})
	require.NoError(t, err)
	require.NotNil(t, svc)
	defer svc.Close()
	assert.Equal(t, "nomic-embed-text", svc.ModelName())
}

func TestCreateEmbeddingService_OpenAI(t *testing.T) {
	svc, err := CreateEmbeddingService(EmbeddingSettings{
		Provider: ProviderOpenAI,
		APIKey:   "test-key",
	})
	require.NoError(t, err)
	require.NotNil(t, svc)
	defer svc.Close()
	assert.Equal(t, "text-embedding-3-small", svc.ModelName())
}

func TestCreateEmbeddingService_AnthropicRejected(t *testing.T) {
	_, err := CreateEmbeddingService(EmbeddingSettings{Provider: ProviderAnthropic})
	assert.Error(t, err)
}

func TestCreateEmbeddingService_UnknownProvider(t *testing.T) {
	_, err := CreateEmbeddingService(EmbeddingSettings{Provider: "cohere"})
	assert.ErrorContains(t, err, "unsupported embedding provider")
}

func TestCreateLLMService_UnconfiguredReturnsNil(t *testing.T) {
	svc, err := CreateLLMService(LLMSettings{})
	require.NoError(t, err)
	assert.Nil(t, svc)
}

func TestCreateLLMService_EachProvider(t *testing.T) {
	tests := []struct {
		provider string
		apiKey   string
	}{
		{ProviderOllama, ""},
		{ProviderOpenAI, "test-key"},
		{ProviderAnthropic, "test-key"},
	}
	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			svc, err := CreateLLMService(LLMSettings{Provider: tt.provider, APIKey: tt.apiKey})
			require.NoError(t, err)
			require.NotNil(t, svc)
			svc.Close()
		})
	}
}

func TestCreateLLMService_UnknownProvider(t *testing.T) {
	_, err := CreateLLMService(LLMSettings{Provider: "bedrock"})
	assert.ErrorContains(t, err, "unsupported LLM provider")
}
