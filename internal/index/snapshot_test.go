package index

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/kailas-cloud/docrag/internal/domain/chunk"
	"github.com/kailas-cloud/docrag/internal/domain/document"
)

func testDoc(t *testing.T, name string) document.Document {
	t.Helper()
	d, err := document.New(name, "/docs/"+name, "Some text.", 10, time.Now(), "")
	if err != nil {
		t.Fatalf("document.New: %v", err)
	}
	return d
}

func testChunk(t *testing.T, docID string, order int) chunk.Chunk {
	t.Helper()
	c, err := chunk.New(docID, "Some text.", "Some text.", order)
	if err != nil {
		t.Fatalf("chunk.New: %v", err)
	}
	return c
}

func TestNewSnapshot_NormalizesVectors(t *testing.T) {
	d := testDoc(t, "a.txt")
	s, err := NewSnapshot(
		[]document.Document{d},
		[]chunk.Chunk{testChunk(t, "a.txt", 0)},
		[][]float32{{3, 4}},
		"emb",
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v := s.Vector(0)
	if math.Abs(float64(v[0])-0.6) > 1e-6 || math.Abs(float64(v[1])-0.8) > 1e-6 {
		t.Errorf("expected unit vector, got %v", v)
	}
	if s.ID() == "" {
		t.Error("expected snapshot ID")
	}
	if s.Dimensions() != 2 || s.Len() != 1 || s.Model() != "emb" {
		t.Errorf("unexpected snapshot metadata: dims=%d len=%d model=%s", s.Dimensions(), s.Len(), s.Model())
	}
}

func TestNewSnapshot_Validation(t *testing.T) {
	d := testDoc(t, "a.txt")
	docs := []document.Document{d}

	if _, err := NewSnapshot(docs, nil, nil, "m"); err == nil {
		t.Error("expected error for zero chunks")
	}
	if _, err := NewSnapshot(docs, []chunk.Chunk{testChunk(t, "a.txt", 0)}, nil, "m"); err == nil {
		t.Error("expected error for count mismatch")
	}
	two := []chunk.Chunk{testChunk(t, "a.txt", 0), testChunk(t, "a.txt", 1)}
	if _, err := NewSnapshot(docs, two, [][]float32{{1, 0}, {1}}, "m"); err == nil {
		t.Error("expected error for dimension mismatch")
	}
	if _, err := NewSnapshot(docs, []chunk.Chunk{testChunk(t, "b.txt", 0)}, [][]float32{{1}}, "m"); err == nil {
		t.Error("expected error for unknown document")
	}
}

func TestSnapshot_FilesAndLookup(t *testing.T) {
	docs := []document.Document{testDoc(t, "b.txt"), testDoc(t, "a.txt")}
	chunks := []chunk.Chunk{testChunk(t, "b.txt", 0), testChunk(t, "a.txt", 0)}
	s, err := NewSnapshot(docs, chunks, [][]float32{{1}, {1}}, "m")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	files := s.Files()
	if len(files) != 2 || files[0] != "a.txt" || files[1] != "b.txt" {
		t.Errorf("Files() = %v", files)
	}
	if !s.HasFile("a.txt") || s.HasFile("c.txt") {
		t.Error("HasFile mismatch")
	}
	if _, ok := s.Document("b.txt"); !ok {
		t.Error("expected document lookup to succeed")
	}
}

func TestHandle_SwapIsAtomic(t *testing.T) {
	var h Handle
	if h.Load() != nil {
		t.Fatal("expected empty handle")
	}

	build := func(n int) *Snapshot {
		docs := []document.Document{testDoc(t, "a.txt")}
		chunks := make([]chunk.Chunk, n)
		vecs := make([][]float32, n)
		for i := range chunks {
			chunks[i] = testChunk(t, "a.txt", i)
			vecs[i] = []float32{1, 0}
		}
		s, err := NewSnapshot(docs, chunks, vecs, "m")
		if err != nil {
			t.Fatalf("NewSnapshot: %v", err)
		}
		return s
	}

	old, next := build(3), build(7)
	h.Swap(old)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				s := h.Load()
				if s.Len() != 3 && s.Len() != 7 {
					t.Errorf("observed partial snapshot with %d chunks", s.Len())
					return
				}
			}
		}()
	}
	if prev := h.Swap(next); prev != old {
		t.Error("Swap must return the previous snapshot")
	}
	wg.Wait()
}
