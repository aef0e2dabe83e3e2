// Package chunker splits knowledge source text into overlapping,
// bounded-length passages with stable provenance.
package chunker

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/askpolicy-cli/internal/core/domain"
)

// DefaultMaxTokens is the default maximum number of tokens per chunk.
const DefaultMaxTokens = 1200

// DefaultOverlapTokens is the default number of tokens consecutive
// chunks share.
const DefaultOverlapTokens = 150

// Chunker splits text into token-bounded chunks with overlap. A token
// is a whitespace-delimited unit, consistent with the embedding
// collaborator's tokenisation assumptions.
type Chunker struct {
	maxTokens int
	overlap   int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithMaxTokens sets the maximum chunk size in tokens.
func WithMaxTokens(n int) Option {
	return func(c *Chunker) {
		if n > 0 {
			c.maxTokens = n
		}
	}
}

// WithOverlap sets the overlap between consecutive chunks in tokens.
func WithOverlap(n int) Option {
	return func(c *Chunker) {
		if n >= 0 {
			c.overlap = n
		}
	}
}

// New creates a chunker with the given options. An overlap that is not
// strictly smaller than the maximum chunk size is a configuration
// error, never silently clamped.
func New(opts ...Option) (*Chunker, error) {
	c := &Chunker{
		maxTokens: DefaultMaxTokens,
		overlap:   DefaultOverlapTokens,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.overlap >= c.maxTokens {
		return nil, fmt.Errorf("%w: overlap (%d tokens) must be smaller than max chunk size (%d tokens)",
			domain.ErrInvalidConfig, c.overlap, c.maxTokens)
	}

	return c, nil
}

// MaxTokens returns the configured maximum chunk size.
func (c *Chunker) MaxTokens() int {
	return c.maxTokens
}

// Overlap returns the configured overlap.
func (c *Chunker) Overlap() int {
	return c.overlap
}

// Chunk splits text into chunks for the given knowledge domain. The
// result is fully determined by the input and the configured sizes:
// every chunk holds at most maxTokens tokens, each chunk after the
// first begins overlap tokens before the end of the previous one, and
// Seq is a dense zero-based ordering. Empty text yields no chunks.
func (c *Chunker) Chunk(dom, text string) []domain.Chunk {
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return nil
	}

	step := c.maxTokens - c.overlap
	estimated := len(tokens)/step + 1
	chunks := make([]domain.Chunk, 0, estimated)

	seq := 0
	for start := 0; start < len(tokens); start += step {
		end := start + c.maxTokens
		if end > len(tokens) {
			end = len(tokens)
		}

		chunks = append(chunks, domain.Chunk{
			Domain:       dom,
			Seq:          seq,
			Text:         strings.Join(tokens[start:end], " "),
			TokenCount:   end - start,
			SourceOffset: start,
		})
		seq++

		if end == len(tokens) {
			break
		}
	}

	return chunks
}

// CountTokens returns the number of whitespace-delimited tokens in
// text, using the same tokenisation as Chunk. Prompt budgeting uses it
// to size history turns and queries.
func CountTokens(text string) int {
	return len(strings.Fields(text))
}
