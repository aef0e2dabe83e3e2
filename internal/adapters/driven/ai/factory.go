// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	ollamaembed "github.com/custodia-labs/askpolicy-cli/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/askpolicy-cli/internal/adapters/driven/embedding/openai"
	ollamallm "github.com/custodia-labs/askpolicy-cli/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/askpolicy-cli/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/askpolicy-cli/internal/core/domain"
	"github.com/custodia-labs/askpolicy-cli/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// CreateEmbeddingService creates the embedding service named by the settings.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: settings.Dimensions,
		}), nil

	case domain.AIProviderOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: settings.Dimensions,
		})

	default:
		return nil, fmt.Errorf("%w: unsupported embedding provider %q",
			domain.ErrInvalidConfig, settings.Provider)
	}
}

// CreateLLMService creates the LLM service named by the settings.
func CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil

	case domain.AIProviderOpenAI:
		return openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	default:
		return nil, fmt.Errorf("%w: unsupported llm provider %q",
			domain.ErrInvalidConfig, settings.Provider)
	}
}

// CreateAndValidateEmbeddingService creates an embedding service and validates
// connectivity with a short ping.
func CreateAndValidateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'askpolicy settings' to fix",
			domain.ErrCollaboratorUnavailable, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: embedding service unreachable (%w). Run 'askpolicy settings' to fix",
			domain.ErrCollaboratorUnavailable, err)
	}

	return svc, nil
}

// CreateAndValidateLLMService creates an LLM service and validates
// connectivity with a short ping.
func CreateAndValidateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	svc, err := CreateLLMService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'askpolicy settings' to fix",
			domain.ErrCollaboratorUnavailable, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: llm service unreachable (%w). Run 'askpolicy settings' to fix",
			domain.ErrCollaboratorUnavailable, err)
	}

	return svc, nil
}
