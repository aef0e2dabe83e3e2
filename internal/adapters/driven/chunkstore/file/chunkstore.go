// Package file persists per-domain chunk sequences as flat text files.
package file

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/custodia-labs/askpolicy-cli/internal/chunker"
	"github.com/custodia-labs/askpolicy-cli/internal/core/domain"
	"github.com/custodia-labs/askpolicy-cli/internal/core/ports/driven"
)

// Ensure ChunkStore implements the interface.
var _ driven.ChunkStore = (*ChunkStore)(nil)

// separator joins chunk texts in the file. Chunk texts are whitespace
// normalised and cannot contain a blank line, so the separator is
// unambiguous.
const separator = "\n\n"

// ChunkStore reads and writes chunk files under a data directory, one
// file per domain.
type ChunkStore struct {
	dir     string
	overlap int
}

// NewChunkStore creates a store rooted at dir. overlap is the chunking
// overlap the files were produced with; Read uses it to reconstruct
// source offsets.
func NewChunkStore(dir string, overlap int) *ChunkStore {
	return &ChunkStore{dir: dir, overlap: overlap}
}

// Path returns the chunk file path for a domain.
func (s *ChunkStore) Path(dom string) string {
	return filepath.Join(s.dir, dom+".chunks")
}

// Write persists the chunk sequence for a domain, replacing any
// previous file. The output is deterministic: the same chunks always
// produce the same bytes.
func (s *ChunkStore) Write(dom string, chunks []domain.Chunk) error {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("create chunk dir: %w", err)
	}

	ordered := append([]domain.Chunk(nil), chunks...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Seq < ordered[j].Seq })

	texts := make([]string, len(ordered))
	for i, ch := range ordered {
		if strings.Contains(ch.Text, separator) {
			return fmt.Errorf("chunk %s#%d contains the separator", dom, ch.Seq)
		}
		texts[i] = ch.Text
	}

	tmp, err := os.CreateTemp(s.dir, dom+".chunks.tmp*")
	if err != nil {
		return fmt.Errorf("create temp chunk file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(strings.Join(texts, separator)); err != nil {
		tmp.Close()
		return fmt.Errorf("write chunk file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp chunk file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.Path(dom)); err != nil {
		return fmt.Errorf("replace chunk file: %w", err)
	}
	return nil
}

// Read restores a domain's chunks in Seq order. Token counts are
// recomputed from the stored text; source offsets are reconstructed
// cumulatively from the chunk sizes and the configured overlap.
func (s *ChunkStore) Read(dom string) ([]domain.Chunk, error) {
	data, err := os.ReadFile(s.Path(dom))
	if err != nil {
		return nil, fmt.Errorf("read chunk file: %w", err)
	}

	texts := strings.Split(string(data), separator)
	chunks := make([]domain.Chunk, 0, len(texts))

	offset := 0
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			continue
		}
		tokens := chunker.CountTokens(text)
		chunks = append(chunks, domain.Chunk{
			Domain:       dom,
			Seq:          i,
			Text:         text,
			TokenCount:   tokens,
			SourceOffset: offset,
		})
		offset += tokens - s.overlap
	}

	if len(chunks) == 0 {
		return nil, fmt.Errorf("chunk file for domain %s is empty", dom)
	}
	return chunks, nil
}

// Count returns the number of chunks stored for a domain.
func (s *ChunkStore) Count(dom string) (int, error) {
	chunks, err := s.Read(dom)
	if err != nil {
		return 0, err
	}
	return len(chunks), nil
}
