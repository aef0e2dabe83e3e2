package domain

import (
	"fmt"
	"time"
)

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOpenAI is the OpenAI cloud API, or any endpoint that
	// speaks its wire format (OpenRouter, Azure OpenAI, LM Studio).
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOpenAI, AIProviderOllama:
		return true
	default:
		return false
	}
}

// TabularBackend identifies the structured record store implementation.
type TabularBackend string

// Available tabular backends.
const (
	// TabularBackendSheets reads records from a Google Sheets
	// spreadsheet via a service account.
	TabularBackendSheets TabularBackend = "sheets"

	// TabularBackendSQLite reads records from a local SQLite mirror.
	TabularBackendSQLite TabularBackend = "sqlite"
)

// IsValid returns true if the tabular backend is recognised.
func (b TabularBackend) IsValid() bool {
	switch b {
	case TabularBackendSheets, TabularBackendSQLite:
		return true
	default:
		return false
	}
}

// ChunkingSettings control how knowledge files are split into passages.
type ChunkingSettings struct {
	// MaxTokens is the maximum number of tokens per chunk.
	MaxTokens int

	// OverlapTokens is the number of tokens consecutive chunks share.
	// Must be strictly smaller than MaxTokens.
	OverlapTokens int
}

// RetrievalSettings control similarity retrieval.
type RetrievalSettings struct {
	// KPerDomain is how many candidates each domain index returns.
	KPerDomain int

	// MinScore is the similarity floor; results below it are dropped
	// rather than cited.
	MinScore float64
}

// RouterSettings control query routing.
type RouterSettings struct {
	// TabularConfidenceThreshold is the confidence at or above which a
	// query is routed to the tabular store. Operator-tunable.
	TabularConfidenceThreshold float64
}

// MemorySettings control conversation memory.
type MemorySettings struct {
	// MaxTurns is the per-thread sliding window size.
	MaxTurns int
}

// PromptSettings control prompt assembly.
type PromptSettings struct {
	// TokenBudget is the total token budget for an assembled prompt.
	TokenBudget int
}

// EmbeddingSettings configure the embedding collaborator.
type EmbeddingSettings struct {
	Provider AIProvider
	Model    string
	BaseURL  string
	APIKey   string

	// BatchSize is how many chunks are embedded per request during
	// index builds.
	BatchSize int

	// Dimensions is the expected embedding vector size.
	Dimensions int
}

// LLMSettings configure the generation collaborator.
type LLMSettings struct {
	Provider AIProvider
	Model    string
	BaseURL  string
	APIKey   string
}

// TabularSettings configure the structured record store.
type TabularSettings struct {
	Backend TabularBackend

	// SpreadsheetID and CredentialsFile apply to the sheets backend.
	SpreadsheetID   string
	CredentialsFile string
	Sheet           string
	FeedbackSheet   string
}

// KnowledgeSettings name the knowledge domains and where their source
// files live.
type KnowledgeSettings struct {
	// Dir holds one <domain>.txt source file per domain.
	Dir string

	// Domains lists the configured knowledge domains.
	Domains []string
}

// CollaboratorSettings control retry behaviour for external calls.
type CollaboratorSettings struct {
	// RetryAttempts is the total number of attempts per call.
	RetryAttempts int

	// RetryBaseDelay is the first backoff delay; subsequent delays
	// double.
	RetryBaseDelay time.Duration

	// Timeout bounds a single collaborator request.
	Timeout time.Duration
}

// AppSettings is the full configuration surface of the pipeline.
type AppSettings struct {
	Chunking     ChunkingSettings
	Retrieval    RetrievalSettings
	Router       RouterSettings
	Memory       MemorySettings
	Prompt       PromptSettings
	Embedding    EmbeddingSettings
	LLM          LLMSettings
	Tabular      TabularSettings
	Knowledge    KnowledgeSettings
	Collaborator CollaboratorSettings

	// DataDir holds chunk files and persisted indexes.
	DataDir string
}

// DefaultAppSettings returns the shipped defaults. The routing
// threshold and memory window are operator-tunable starting points, not
// calibrated optima.
func DefaultAppSettings() *AppSettings {
	return &AppSettings{
		Chunking:  ChunkingSettings{MaxTokens: 1200, OverlapTokens: 150},
		Retrieval: RetrievalSettings{KPerDomain: 12, MinScore: 0.25},
		Router:    RouterSettings{TabularConfidenceThreshold: 0.7},
		Memory:    MemorySettings{MaxTurns: 6},
		Prompt:    PromptSettings{TokenBudget: 6000},
		Embedding: EmbeddingSettings{
			Provider:  AIProviderOpenAI,
			Model:     "text-embedding-3-small",
			BatchSize: 64,
		},
		LLM: LLMSettings{
			Provider: AIProviderOpenAI,
			Model:    "gpt-4o-mini",
		},
		Tabular: TabularSettings{
			Backend:       TabularBackendSQLite,
			Sheet:         "Vendors",
			FeedbackSheet: "Feedback",
		},
		Collaborator: CollaboratorSettings{
			RetryAttempts:  3,
			RetryBaseDelay: 500 * time.Millisecond,
			Timeout:        60 * time.Second,
		},
	}
}

// Validate checks the settings for values that cannot be silently
// corrected. All violations are reported as ErrInvalidConfig.
func (s *AppSettings) Validate() error {
	if s.Chunking.MaxTokens <= 0 {
		return fmt.Errorf("%w: chunking.max_tokens must be positive, got %d",
			ErrInvalidConfig, s.Chunking.MaxTokens)
	}
	if s.Chunking.OverlapTokens < 0 {
		return fmt.Errorf("%w: chunking.overlap_tokens must not be negative, got %d",
			ErrInvalidConfig, s.Chunking.OverlapTokens)
	}
	if s.Chunking.OverlapTokens >= s.Chunking.MaxTokens {
		return fmt.Errorf("%w: chunking.overlap_tokens (%d) must be smaller than chunking.max_tokens (%d)",
			ErrInvalidConfig, s.Chunking.OverlapTokens, s.Chunking.MaxTokens)
	}
	if s.Retrieval.KPerDomain <= 0 {
		return fmt.Errorf("%w: retrieval.k_per_domain must be positive, got %d",
			ErrInvalidConfig, s.Retrieval.KPerDomain)
	}
	if s.Router.TabularConfidenceThreshold < 0 || s.Router.TabularConfidenceThreshold > 1 {
		return fmt.Errorf("%w: router.tabular_confidence_threshold must be in [0,1], got %g",
			ErrInvalidConfig, s.Router.TabularConfidenceThreshold)
	}
	if s.Memory.MaxTurns <= 0 {
		return fmt.Errorf("%w: memory.max_turns must be positive, got %d",
			ErrInvalidConfig, s.Memory.MaxTurns)
	}
	if s.Prompt.TokenBudget <= 0 {
		return fmt.Errorf("%w: prompt.token_budget must be positive, got %d",
			ErrInvalidConfig, s.Prompt.TokenBudget)
	}
	if !s.Embedding.Provider.IsValid() {
		return fmt.Errorf("%w: unknown embedding provider %q",
			ErrInvalidConfig, s.Embedding.Provider)
	}
	if !s.LLM.Provider.IsValid() {
		return fmt.Errorf("%w: unknown llm provider %q",
			ErrInvalidConfig, s.LLM.Provider)
	}
	if !s.Tabular.Backend.IsValid() {
		return fmt.Errorf("%w: unknown tabular backend %q",
			ErrInvalidConfig, s.Tabular.Backend)
	}
	if s.Collaborator.RetryAttempts <= 0 {
		return fmt.Errorf("%w: collaborator.retry_attempts must be positive, got %d",
			ErrInvalidConfig, s.Collaborator.RetryAttempts)
	}
	return nil
}
