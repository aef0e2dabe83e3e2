package driven

// Prompt names used by the answer pipeline.
const (
	// PromptAnswerSystem is the system instruction for answer generation.
	PromptAnswerSystem = "answer_system"

	// PromptNoInfo is the reply used when retrieval finds nothing relevant.
	PromptNoInfo = "no_info"

	// PromptDegraded is the reply used when the LLM is unreachable.
	PromptDegraded = "degraded"
)

// PromptStore loads the pipeline's user-facing prompt texts, allowing
// operators to tune wording without a rebuild.
type PromptStore interface {
	// Get returns the prompt text for the given name.
	Get(name string) (string, error)
}
