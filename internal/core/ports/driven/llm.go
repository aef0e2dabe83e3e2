package driven

import "context"

// LLMService provides text generation for answer assembly.
//
// Implementations may include:
//   - OpenAI (gpt-4o, gpt-4o-mini)
//   - OpenRouter or any OpenAI-compatible endpoint
//   - Ollama (local models)
type LLMService interface {
	// Generate produces a text completion from a single prompt.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// Chat conducts a multi-turn conversation.
	Chat(ctx context.Context, messages []ChatMessage, opts ChatOptions) (string, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight
	// test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic).
	Temperature float64
}

// ChatMessage represents a single message in a conversation.
type ChatMessage struct {
	// Role is one of "system", "user", or "assistant".
	Role string

	// Content is the message text.
	Content string
}

// ChatOptions configures chat behaviour.
type ChatOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic).
	Temperature float64
}
