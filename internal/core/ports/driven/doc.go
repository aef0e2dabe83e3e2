// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports).
//
// The core services depend only on these interfaces, never on concrete
// adapters, so the retrieval and assembly logic is fully testable with
// deterministic fakes:
//
//   - EmbeddingService: turns text into vectors (OpenAI, Ollama).
//   - LLMService: generates answers (OpenAI-compatible endpoints).
//   - TabularStore: structured record lookup (Google Sheets, SQLite).
//   - ChunkStore: per-domain chunk files on disk.
//   - IndexFileStore: per-domain persisted vector indexes on disk.
//   - ConfigStore: key-value configuration persistence.
//
// Collaborator services (embedding, LLM, tabular) are blocking I/O with
// bounded timeouts; callers retry transient failures with backoff and
// never invoke them while holding index or memory locks.
package driven
