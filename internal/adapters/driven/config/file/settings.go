package file

import (
	"time"

	"github.com/custodia-labs/askpolicy-cli/internal/core/domain"
	"github.com/custodia-labs/askpolicy-cli/internal/core/ports/driven"
)

// LoadAppSettings resolves the application settings from a config
// store, starting from the shipped defaults. Only keys present in the
// store override a default, so a zero value like overlap_tokens = 0
// is honoured.
func LoadAppSettings(cs driven.ConfigStore) *domain.AppSettings {
	s := domain.DefaultAppSettings()

	s.Chunking.MaxTokens = intOr(cs, "chunking.max_tokens", s.Chunking.MaxTokens)
	s.Chunking.OverlapTokens = intOr(cs, "chunking.overlap_tokens", s.Chunking.OverlapTokens)

	s.Retrieval.KPerDomain = intOr(cs, "retrieval.k_per_domain", s.Retrieval.KPerDomain)
	s.Retrieval.MinScore = floatOr(cs, "retrieval.min_score", s.Retrieval.MinScore)

	s.Router.TabularConfidenceThreshold = floatOr(cs,
		"router.tabular_confidence_threshold", s.Router.TabularConfidenceThreshold)

	s.Memory.MaxTurns = intOr(cs, "memory.max_turns", s.Memory.MaxTurns)
	s.Prompt.TokenBudget = intOr(cs, "prompt.token_budget", s.Prompt.TokenBudget)

	s.Embedding.Provider = domain.AIProvider(stringOr(cs, "embedding.provider", string(s.Embedding.Provider)))
	s.Embedding.Model = stringOr(cs, "embedding.model", s.Embedding.Model)
	s.Embedding.BaseURL = stringOr(cs, "embedding.base_url", s.Embedding.BaseURL)
	s.Embedding.APIKey = stringOr(cs, "embedding.api_key", s.Embedding.APIKey)
	s.Embedding.BatchSize = intOr(cs, "embedding.batch_size", s.Embedding.BatchSize)
	s.Embedding.Dimensions = intOr(cs, "embedding.dimensions", s.Embedding.Dimensions)

	s.LLM.Provider = domain.AIProvider(stringOr(cs, "llm.provider", string(s.LLM.Provider)))
	s.LLM.Model = stringOr(cs, "llm.model", s.LLM.Model)
	s.LLM.BaseURL = stringOr(cs, "llm.base_url", s.LLM.BaseURL)
	s.LLM.APIKey = stringOr(cs, "llm.api_key", s.LLM.APIKey)

	s.Tabular.Backend = domain.TabularBackend(stringOr(cs, "tabular.backend", string(s.Tabular.Backend)))
	s.Tabular.SpreadsheetID = stringOr(cs, "tabular.spreadsheet_id", s.Tabular.SpreadsheetID)
	s.Tabular.CredentialsFile = stringOr(cs, "tabular.credentials_file", s.Tabular.CredentialsFile)
	s.Tabular.Sheet = stringOr(cs, "tabular.sheet", s.Tabular.Sheet)
	s.Tabular.FeedbackSheet = stringOr(cs, "tabular.feedback_sheet", s.Tabular.FeedbackSheet)

	s.Knowledge.Dir = stringOr(cs, "knowledge.dir", s.Knowledge.Dir)
	if domains := cs.GetStringSlice("knowledge.domains"); len(domains) > 0 {
		s.Knowledge.Domains = domains
	}

	s.Collaborator.RetryAttempts = intOr(cs, "collaborator.retry_attempts", s.Collaborator.RetryAttempts)
	if _, ok := cs.Get("collaborator.retry_base_delay_ms"); ok {
		s.Collaborator.RetryBaseDelay = time.Duration(cs.GetInt("collaborator.retry_base_delay_ms")) * time.Millisecond
	}
	if _, ok := cs.Get("collaborator.timeout_seconds"); ok {
		s.Collaborator.Timeout = time.Duration(cs.GetInt("collaborator.timeout_seconds")) * time.Second
	}

	s.DataDir = stringOr(cs, "data.dir", s.DataDir)

	return s
}

func intOr(cs driven.ConfigStore, key string, def int) int {
	if _, ok := cs.Get(key); !ok {
		return def
	}
	return cs.GetInt(key)
}

func floatOr(cs driven.ConfigStore, key string, def float64) float64 {
	if _, ok := cs.Get(key); !ok {
		return def
	}
	return cs.GetFloat(key)
}

func stringOr(cs driven.ConfigStore, key string, def string) string {
	if val := cs.GetString(key); val != "" {
		return val
	}
	return def
}
