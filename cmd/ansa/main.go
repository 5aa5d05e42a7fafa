// Command ansa answers questions about an organisation from its
// crawled website corpus.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/lodestar-labs/ansa-cli/internal/adapters/driven/ai"
	"github.com/lodestar-labs/ansa-cli/internal/adapters/driven/config/file"
	"github.com/lodestar-labs/ansa-cli/internal/adapters/driven/corpus/jsonfile"
	"github.com/lodestar-labs/ansa-cli/internal/adapters/driven/index/bm25"
	"github.com/lodestar-labs/ansa-cli/internal/adapters/driven/index/knn"
	"github.com/lodestar-labs/ansa-cli/internal/adapters/driven/storage/sqlite"
	"github.com/lodestar-labs/ansa-cli/internal/adapters/driving/cli"
	"github.com/lodestar-labs/ansa-cli/internal/chunker"
	"github.com/lodestar-labs/ansa-cli/internal/core/domain"
	"github.com/lodestar-labs/ansa-cli/internal/core/ports/driven"
	"github.com/lodestar-labs/ansa-cli/internal/core/services"
	"github.com/lodestar-labs/ansa-cli/internal/logger"
)

// version is set via -ldflags at release time.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if os.Getenv("ANSA_VERBOSE") != "" {
		logger.SetVerbose(true)
	}

	configStore, err := file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	promptStore, err := file.NewPromptStore("")
	if err != nil {
		return fmt.Errorf("prompts: %w", err)
	}

	store, err := sqlite.NewStore("")
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	defer store.Close()

	embeddingService, err := ai.CreateAndValidateEmbeddingService(ai.EmbeddingSettingsFrom(configStore))
	if err != nil {
		// Vector search degrades to keyword-only; answering still works.
		logger.Warn("Embedding provider unavailable: %v", err)
		embeddingService = nil
	}
	if embeddingService != nil {
		defer embeddingService.Close()
	}

	llmService, err := ai.CreateAndValidateLLMService(ai.LLMSettingsFrom(configStore))
	if err != nil {
		logger.Warn("LLM provider unavailable: %v", err)
		llmService = nil
	}
	if llmService != nil {
		defer llmService.Close()
	}

	includeTitle := true
	if v, ok := configStore.Get("chunking.include_title"); ok {
		includeTitle, _ = v.(bool)
	}
	ch, err := chunker.New(chunker.Config{
		MaxSize:        chunkSize(configStore),
		Overlap:        chunkOverlap(configStore),
		IncludeTitle:   includeTitle,
		MaxTitleLength: configStore.GetInt("chunking.max_title_length"),
	})
	if err != nil {
		return fmt.Errorf("chunker: %w", err)
	}

	corpusPath := configStore.GetString("corpus.path")
	if corpusPath == "" {
		corpusPath = "corpus.json"
	}
	loader := jsonfile.New(corpusPath)

	searchEngine := bm25.New()
	defer searchEngine.Close()

	var vectorIndex driven.VectorIndex
	if embeddingService != nil {
		idx := knn.New()
		defer idx.Close()
		vectorIndex = idx
	}

	docStore := store.DocumentStore()
	indexer := services.NewIndexerService(loader, ch, docStore, searchEngine, vectorIndex, embeddingService)

	// Serve queries from the persisted index; `ansa index` rebuilds it.
	if _, err := indexer.LoadFromStore(context.Background()); err != nil {
		if !errors.Is(err, domain.ErrIndexNotBuilt) {
			return fmt.Errorf("index: %w", err)
		}
		logger.Debug("No persisted index yet, run 'ansa index'")
	}

	retriever := services.NewRetrievalService(docStore, searchEngine, vectorIndex, embeddingService)
	sessions := services.NewMemoryService(store.SessionStore(), services.MemoryConfig{
		MaxTurns: configStore.GetInt("session.max_turns"),
		TTL:      time.Duration(configStore.GetInt("session.ttl_hours")) * time.Hour,
	})

	companyName := configStore.GetString("company.name")
	companyDescription := configStore.GetString("company.description")
	classifier := services.NewClassifierService(llmService, promptStore, services.ClassifierConfig{
		CompanyName:        companyName,
		CompanyDescription: companyDescription,
		HistoryWindow:      configStore.GetInt("classifier.history_window"),
	})

	callTimeout := 2 * time.Minute
	if seconds := configStore.GetInt("qa.call_timeout_seconds"); seconds > 0 {
		callTimeout = time.Duration(seconds) * time.Second
	}
	qa := services.NewQAService(classifier, retriever, sessions, llmService, promptStore, docStore, services.QAConfig{
		CompanyName:        companyName,
		CompanyDescription: companyDescription,
		HistoryWindow:      configStore.GetInt("classifier.history_window"),
		Retrieval: domain.RetrievalOptions{
			TopK:      configStore.GetInt("retrieval.top_k"),
			OverFetch: configStore.GetInt("retrieval.over_fetch"),
			FusionK:   configStore.GetInt("retrieval.fusion_k"),
		},
		MinSourceScore: configStore.GetFloat("retrieval.min_source_score"),
		CallTimeout:    callTimeout,
	})

	cli.SetVersion(version)
	cli.SetServices(cli.Services{
		QA:        qa,
		Retriever: retriever,
		Indexer:   indexer,
		Sessions:  sessions,
		Config:    configStore,
	})
	return cli.Execute()
}

func chunkSize(cfg driven.ConfigStore) int {
	if size := cfg.GetInt("chunking.max_size"); size > 0 {
		return size
	}
	return chunker.DefaultMaxSize
}

func chunkOverlap(cfg driven.ConfigStore) int {
	if overlap := cfg.GetInt("chunking.overlap"); overlap > 0 {
		return overlap
	}
	return chunker.DefaultOverlap
}
