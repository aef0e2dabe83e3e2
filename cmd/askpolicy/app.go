package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/askpolicy-cli/internal/adapters/driven/ai"
	chunkfile "github.com/custodia-labs/askpolicy-cli/internal/adapters/driven/chunkstore/file"
	configfile "github.com/custodia-labs/askpolicy-cli/internal/adapters/driven/config/file"
	indexfile "github.com/custodia-labs/askpolicy-cli/internal/adapters/driven/index/file"
	"github.com/custodia-labs/askpolicy-cli/internal/adapters/driven/tabular/sheets"
	"github.com/custodia-labs/askpolicy-cli/internal/adapters/driven/tabular/sqlite"
	"github.com/custodia-labs/askpolicy-cli/internal/adapters/driving/cli"
	"github.com/custodia-labs/askpolicy-cli/internal/chunker"
	"github.com/custodia-labs/askpolicy-cli/internal/core/domain"
	"github.com/custodia-labs/askpolicy-cli/internal/core/ports/driven"
	"github.com/custodia-labs/askpolicy-cli/internal/core/services"
	"github.com/custodia-labs/askpolicy-cli/internal/logger"
)

// App holds everything the process needs to shut down cleanly.
type App struct {
	embedding driven.EmbeddingService
	llm       driven.LLMService
	tabular   driven.TabularStore
}

// Close releases held resources.
func (a *App) Close() {
	if a.embedding != nil {
		a.embedding.Close()
	}
	if a.llm != nil {
		a.llm.Close()
	}
	if a.tabular != nil {
		a.tabular.Close()
	}
}

// bootstrap is the composition root: it loads configuration, builds the
// adapters and core services, and injects them into the CLI. The config
// store and settings are always injected so settings commands work even
// when the pipeline cannot be assembled.
func bootstrap() (*App, error) {
	configStore, err := configfile.NewConfigStore("")
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}
	cli.SetConfigStore(configStore)

	settings := configfile.LoadAppSettings(configStore)
	cli.SetAppSettings(settings)

	if err := settings.Validate(); err != nil {
		return nil, err
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolving home directory: %w", err)
	}
	dataDir := settings.DataDir
	if dataDir == "" {
		dataDir = filepath.Join(home, ".askpolicy", "data")
	}
	knowledgeDir := settings.Knowledge.Dir
	if knowledgeDir == "" {
		knowledgeDir = filepath.Join(home, ".askpolicy", "knowledge")
	}

	embedding, err := ai.CreateEmbeddingService(&settings.Embedding)
	if err != nil {
		return nil, err
	}

	llm, err := ai.CreateLLMService(&settings.LLM)
	if err != nil {
		embedding.Close()
		return nil, err
	}

	app := &App{embedding: embedding, llm: llm}

	ch, err := chunker.New(
		chunker.WithMaxTokens(settings.Chunking.MaxTokens),
		chunker.WithOverlap(settings.Chunking.OverlapTokens),
	)
	if err != nil {
		app.Close()
		return nil, err
	}

	chunkStore := chunkfile.NewChunkStore(filepath.Join(dataDir, "chunks"), settings.Chunking.OverlapTokens)
	indexFiles := indexfile.NewIndexFileStore(filepath.Join(dataDir, "indexes"))

	indexStore := services.NewIndexStore(embedding, indexFiles, chunkStore, settings.Knowledge.Domains)
	retriever := services.NewRetriever(indexStore, settings.Retrieval.KPerDomain, settings.Retrieval.MinScore)
	router := services.NewRouter(settings.Router.TabularConfidenceThreshold)
	memory := services.NewMemory(settings.Memory.MaxTurns)

	// Tabular lookups are optional; without a working backend every
	// query takes the knowledge path.
	app.tabular = openTabularStore(settings)

	answerer := services.NewAnswerer(router, retriever, memory, llm, app.tabular, settings.Prompt.TokenBudget)
	answerer.SetRetryPolicy(settings.Collaborator.RetryAttempts, settings.Collaborator.RetryBaseDelay)
	if prompts, err := configfile.NewPromptStore(""); err == nil {
		answerer.SetPromptStore(prompts)
	} else {
		logger.Warn("Prompt store unavailable, using built-in prompts: %v", err)
	}

	indexer := services.NewIndexer(ch, indexStore, chunkStore, knowledgeDir)
	if err := indexer.Open(context.Background()); err != nil {
		logger.Warn("Opening indexes: %v", err)
	}

	cli.SetAnswerService(answerer)
	cli.SetIndexOrchestrator(indexer)
	cli.SetWatcher(services.NewWatcher(indexer, knowledgeDir, settings.Knowledge.Domains))

	return app, nil
}

// openTabularStore builds the configured record store backend. Returns
// nil when the backend cannot be opened; the pipeline degrades to
// knowledge-only answers.
func openTabularStore(settings *domain.AppSettings) driven.TabularStore {
	switch settings.Tabular.Backend {
	case domain.TabularBackendSheets:
		store, err := sheets.NewStore(context.Background(), sheets.Config{
			SpreadsheetID:   settings.Tabular.SpreadsheetID,
			CredentialsFile: settings.Tabular.CredentialsFile,
			RecordSheet:     settings.Tabular.Sheet,
			FeedbackSheet:   settings.Tabular.FeedbackSheet,
		})
		if err != nil {
			logger.Warn("Sheets backend unavailable: %v", err)
			return nil
		}
		return store

	case domain.TabularBackendSQLite:
		store, err := sqlite.NewStore("")
		if err != nil {
			logger.Warn("SQLite backend unavailable: %v", err)
			return nil
		}
		cli.SetTabularImporter(store)
		return store

	default:
		return nil
	}
}
