// Package index holds the immutable in-memory vector index and the handle readers load it from.
package index

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/docrag/internal/domain/chunk"
	"github.com/kailas-cloud/docrag/internal/domain/document"
)

// Snapshot maps chunks to unit-length embedding vectors. It is never mutated after NewSnapshot returns.
type Snapshot struct {
	id        string
	builtAt   time.Time
	model     string
	dims      int
	documents []document.Document
	byID      map[string]int
	chunks    []chunk.Chunk
	vectors   [][]float32
	files     []string
}

// NewSnapshot validates the parts and builds a snapshot. vectors[i] belongs to chunks[i];
// vectors are copied and normalized to unit length.
func NewSnapshot(
	docs []document.Document, chunks []chunk.Chunk, vectors [][]float32, model string,
) (*Snapshot, error) {
	if len(chunks) == 0 {
		return nil, errors.New("snapshot has no chunks")
	}
	if len(chunks) != len(vectors) {
		return nil, fmt.Errorf("chunk/vector count mismatch: %d chunks, %d vectors", len(chunks), len(vectors))
	}

	byID := make(map[string]int, len(docs))
	fileSet := make(map[string]struct{})
	for i := range docs {
		byID[docs[i].ID()] = i
		fileSet[docs[i].FileName()] = struct{}{}
	}

	dims := len(vectors[0])
	normalized := make([][]float32, len(vectors))
	for i, v := range vectors {
		if len(v) == 0 || len(v) != dims {
			return nil, fmt.Errorf("vector %d: expected %d dimensions, got %d", i, dims, len(v))
		}
		if _, ok := byID[chunks[i].DocID()]; !ok {
			return nil, fmt.Errorf("chunk %d references unknown document %q", i, chunks[i].DocID())
		}
		normalized[i] = normalize(v)
	}

	files := make([]string, 0, len(fileSet))
	for f := range fileSet {
		files = append(files, f)
	}
	sort.Strings(files)

	return &Snapshot{
		id:        uuid.NewString(),
		builtAt:   time.Now(),
		model:     model,
		dims:      dims,
		documents: append([]document.Document(nil), docs...),
		byID:      byID,
		chunks:    append([]chunk.Chunk(nil), chunks...),
		vectors:   normalized,
		files:     files,
	}, nil
}

// ID uniquely identifies this build.
func (s *Snapshot) ID() string { return s.id }

// BuiltAt returns the build completion time.
func (s *Snapshot) BuiltAt() time.Time { return s.builtAt }

// Model returns the embedding model the vectors came from.
func (s *Snapshot) Model() string { return s.model }

// Dimensions returns the vector size.
func (s *Snapshot) Dimensions() int { return s.dims }

// Len returns the number of chunks.
func (s *Snapshot) Len() int { return len(s.chunks) }

// Chunk returns the i-th chunk.
func (s *Snapshot) Chunk(i int) chunk.Chunk { return s.chunks[i] }

// Vector returns the unit-length vector of the i-th chunk.
func (s *Snapshot) Vector(i int) []float32 { return s.vectors[i] }

// Document looks up a document by ID.
func (s *Snapshot) Document(id string) (document.Document, bool) {
	i, ok := s.byID[id]
	if !ok {
		return document.Document{}, false
	}
	return s.documents[i], true
}

// DocumentCount returns the number of indexed documents (pages count separately).
func (s *Snapshot) DocumentCount() int { return len(s.documents) }

// Files returns the sorted names of the indexed files.
func (s *Snapshot) Files() []string {
	out := make([]string, len(s.files))
	copy(out, s.files)
	return out
}

// HasFile reports whether a file was part of this build.
func (s *Snapshot) HasFile(name string) bool {
	i := sort.SearchStrings(s.files, name)
	return i < len(s.files) && s.files[i] == name
}

func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	out := make([]float32, len(v))
	if sum == 0 {
		return out
	}
	inv := 1 / math.Sqrt(sum)
	for i, x := range v {
		out[i] = float32(float64(x) * inv)
	}
	return out
}

// Handle publishes the current snapshot. Loads are lock-free; a swap is observed atomically.
type Handle struct {
	current atomic.Pointer[Snapshot]
}

// Load returns the installed snapshot or nil.
func (h *Handle) Load() *Snapshot { return h.current.Load() }

// Swap installs s and returns the previous snapshot.
func (h *Handle) Swap(s *Snapshot) *Snapshot { return h.current.Swap(s) }
