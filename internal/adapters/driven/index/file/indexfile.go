// Package file persists per-domain vector indexes as flat binary files.
package file

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/custodia-labs/askpolicy-cli/internal/core/domain"
	"github.com/custodia-labs/askpolicy-cli/internal/core/ports/driven"
)

// Ensure IndexFileStore implements the interface.
var _ driven.IndexFileStore = (*IndexFileStore)(nil)

// File format, little-endian throughout:
//
//	magic   [4]byte "APIX"
//	version uint16
//	dim     uint32
//	count   uint32
//	count times:
//	  seq    uint32
//	  vector [dim]float32
var magic = [4]byte{'A', 'P', 'I', 'X'}

// formatVersion is bumped on incompatible layout changes.
const formatVersion uint16 = 1

// IndexFileStore reads and writes index files under a data directory.
type IndexFileStore struct {
	dir string
}

// NewIndexFileStore creates a store rooted at dir. The directory is
// created on first save.
func NewIndexFileStore(dir string) *IndexFileStore {
	return &IndexFileStore{dir: dir}
}

// Path returns the index file path for a domain.
func (s *IndexFileStore) Path(dom string) string {
	return filepath.Join(s.dir, dom+".apix")
}

// Save persists an index, replacing any previous file atomically. The
// index is written to a temp file in the same directory and renamed
// over the target, so a concurrent reader sees either the old file or
// the new one, never a torn write.
func (s *IndexFileStore) Save(ix *domain.DomainIndex) error {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, ix.Domain+".apix.tmp*")
	if err != nil {
		return fmt.Errorf("create temp index file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	if err := writeIndex(w, ix); err != nil {
		tmp.Close()
		return fmt.Errorf("encode index: %w", err)
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush index: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp index file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.Path(ix.Domain)); err != nil {
		return fmt.Errorf("replace index file: %w", err)
	}
	return nil
}

// Load reads a persisted index. The returned index carries vectors and
// chunk refs (domain + seq) only; the caller attaches chunk texts from
// the chunk store. Any decode failure or a dimension that disagrees
// with expectedDim is reported as domain.ErrIndexCorrupt.
func (s *IndexFileStore) Load(dom string, expectedDim int) (*domain.DomainIndex, error) {
	f, err := os.Open(s.Path(dom))
	if err != nil {
		return nil, fmt.Errorf("%w: open index file: %v", domain.ErrIndexCorrupt, err)
	}
	defer f.Close()

	ix, err := readIndex(bufio.NewReader(f), dom)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrIndexCorrupt, err)
	}
	if ix.Dimension != expectedDim {
		return nil, fmt.Errorf("%w: stored dimension %d, embedder produces %d",
			domain.ErrIndexCorrupt, ix.Dimension, expectedDim)
	}
	return ix, nil
}

// Exists reports whether a persisted index is present for a domain.
func (s *IndexFileStore) Exists(dom string) bool {
	_, err := os.Stat(s.Path(dom))
	return err == nil
}

func writeIndex(w io.Writer, ix *domain.DomainIndex) error {
	if len(ix.Vectors) != len(ix.Chunks) {
		return fmt.Errorf("index has %d vectors for %d chunks", len(ix.Vectors), len(ix.Chunks))
	}

	if _, err := w.Write(magic[:]); err != nil {
		return err
	}

	header := []any{
		formatVersion,
		uint32(ix.Dimension),
		uint32(len(ix.Vectors)),
	}
	for _, v := range header {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return err
		}
	}

	for i, vec := range ix.Vectors {
		if len(vec) != ix.Dimension {
			return fmt.Errorf("vector %d has %d components, index dimension is %d", i, len(vec), ix.Dimension)
		}
		if err := binary.Write(w, binary.LittleEndian, uint32(ix.Chunks[i].Seq)); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, vec); err != nil {
			return err
		}
	}

	return nil
}

func readIndex(r io.Reader, dom string) (*domain.DomainIndex, error) {
	var gotMagic [4]byte
	if _, err := io.ReadFull(r, gotMagic[:]); err != nil {
		return nil, fmt.Errorf("read magic: %v", err)
	}
	if !bytes.Equal(gotMagic[:], magic[:]) {
		return nil, fmt.Errorf("bad magic %q", gotMagic)
	}

	var version uint16
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, fmt.Errorf("read version: %v", err)
	}
	if version != formatVersion {
		return nil, fmt.Errorf("unsupported format version %d", version)
	}

	var dim, count uint32
	if err := binary.Read(r, binary.LittleEndian, &dim); err != nil {
		return nil, fmt.Errorf("read dimension: %v", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("read count: %v", err)
	}
	if dim == 0 || count == 0 {
		return nil, fmt.Errorf("empty index (dim=%d, count=%d)", dim, count)
	}

	ix := &domain.DomainIndex{
		Domain:    dom,
		Dimension: int(dim),
		Vectors:   make([][]float32, count),
		Chunks:    make([]domain.Chunk, count),
	}

	for i := uint32(0); i < count; i++ {
		var seq uint32
		if err := binary.Read(r, binary.LittleEndian, &seq); err != nil {
			return nil, fmt.Errorf("read seq of vector %d: %v", i, err)
		}
		vec := make([]float32, dim)
		if err := binary.Read(r, binary.LittleEndian, vec); err != nil {
			return nil, fmt.Errorf("read vector %d: %v", i, err)
		}
		ix.Vectors[i] = vec
		ix.Chunks[i] = domain.Chunk{Domain: dom, Seq: int(seq)}
	}

	// Trailing bytes mean the writer and reader disagree on layout.
	var extra [1]byte
	if n, _ := r.Read(extra[:]); n != 0 {
		return nil, fmt.Errorf("trailing bytes after %d vectors", count)
	}

	return ix, nil
}
