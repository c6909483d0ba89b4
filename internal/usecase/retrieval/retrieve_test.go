package retrieval

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/kailas-cloud/docrag/internal/domain"
	"github.com/kailas-cloud/docrag/internal/domain/chunk"
	"github.com/kailas-cloud/docrag/internal/domain/document"
	"github.com/kailas-cloud/docrag/internal/index"
)

// unitAt returns a 2-d unit vector whose cosine with (1, 0) equals score.
func unitAt(score float64) []float32 {
	return []float32{float32(score), float32(math.Sqrt(1 - score*score))}
}

func buildSnapshot(t *testing.T, scores ...float64) *index.Snapshot {
	t.Helper()
	doc, err := document.New("a.txt", "/docs/a.txt", "text", 4, time.Now(), "")
	if err != nil {
		t.Fatalf("document.New: %v", err)
	}
	chunks := make([]chunk.Chunk, len(scores))
	vecs := make([][]float32, len(scores))
	for i, s := range scores {
		c, err := chunk.New("a.txt", string(rune('A'+i))+".", string(rune('A'+i))+".", i)
		if err != nil {
			t.Fatalf("chunk.New: %v", err)
		}
		chunks[i] = c
		vecs[i] = unitAt(s)
	}
	snap, err := index.NewSnapshot([]document.Document{doc}, chunks, vecs, "test")
	if err != nil {
		t.Fatalf("NewSnapshot: %v", err)
	}
	return snap
}

func TestRetrieve_CutoffEnforcement(t *testing.T) {
	snap := buildSnapshot(t, 0.9, 0.7, 0.5, 0.3)

	got, err := Retrieve(snap, []float32{1, 0}, DefaultTopK, DefaultCutoff)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(got))
	}
	if got[0].Chunk.Text() != "A." || got[1].Chunk.Text() != "B." {
		t.Errorf("unexpected order: %q, %q", got[0].Chunk.Text(), got[1].Chunk.Text())
	}
	if math.Abs(got[0].Score-0.9) > 1e-5 || math.Abs(got[1].Score-0.7) > 1e-5 {
		t.Errorf("unexpected scores: %f, %f", got[0].Score, got[1].Score)
	}
}

func TestRetrieve_SortsDescending(t *testing.T) {
	snap := buildSnapshot(t, 0.65, 0.95, 0.8)

	got, err := Retrieve(snap, []float32{1, 0}, 5, 0.6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"B.", "C.", "A."}
	for i, w := range want {
		if got[i].Chunk.Text() != w {
			t.Errorf("position %d: got %q, want %q", i, got[i].Chunk.Text(), w)
		}
	}
}

func TestRetrieve_TieKeepsChunkOrder(t *testing.T) {
	snap := buildSnapshot(t, 0.8, 0.8, 0.8)

	for run := 0; run < 3; run++ {
		got, err := Retrieve(snap, []float32{1, 0}, 5, 0.6)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for i, c := range got {
			if c.Position != i {
				t.Fatalf("run %d: tie broken out of order, position %d at index %d", run, c.Position, i)
			}
		}
	}
}

func TestRetrieve_TopKAppliedBeforeCutoff(t *testing.T) {
	snap := buildSnapshot(t, 0.99, 0.98, 0.97, 0.96, 0.95, 0.94, 0.93)

	got, err := Retrieve(snap, []float32{1, 0}, 5, 0.6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("expected 5 candidates, got %d", len(got))
	}
}

func TestRetrieve_EmptyWhenNothingClears(t *testing.T) {
	snap := buildSnapshot(t, 0.2, 0.1)

	got, err := Retrieve(snap, []float32{1, 0}, 5, 0.6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no candidates, got %d", len(got))
	}
}

func TestRetrieve_DimensionMismatch(t *testing.T) {
	snap := buildSnapshot(t, 0.9)

	_, err := Retrieve(snap, []float32{1, 0, 0}, 5, 0.6)
	if !errors.Is(err, domain.ErrRetrievalFailure) {
		t.Fatalf("expected ErrRetrievalFailure, got %v", err)
	}
}

func TestRetrieve_QueryNotNormalized(t *testing.T) {
	snap := buildSnapshot(t, 0.9)

	got, err := Retrieve(snap, []float32{10, 0}, 5, 0.6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || math.Abs(got[0].Score-0.9) > 1e-5 {
		t.Fatalf("expected cosine independent of query length, got %+v", got)
	}
}

type stubEmbedder struct {
	vec []float32
	err error
}

func (s *stubEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{Embedding: s.vec}, s.err
}

func TestService_ExplicitCutoffKept(t *testing.T) {
	for _, cutoff := range []float64{-0.5, 0.25, 1} {
		if got := New(&stubEmbedder{}, Options{Cutoff: cutoff}).Options().Cutoff; got != cutoff {
			t.Errorf("cutoff %g replaced by %g", cutoff, got)
		}
	}
}

func TestService_SearchDefaults(t *testing.T) {
	svc := New(&stubEmbedder{vec: []float32{1, 0}}, Options{})
	if svc.Options().TopK != 5 || svc.Options().Cutoff != 0.6 {
		t.Fatalf("unexpected defaults: %+v", svc.Options())
	}

	got, err := svc.Search(context.Background(), buildSnapshot(t, 0.9, 0.7, 0.5, 0.3), "q")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 candidates, got %d", len(got))
	}
}

func TestService_SearchEmbedError(t *testing.T) {
	svc := New(&stubEmbedder{err: errors.New("down")}, Options{})

	_, err := svc.Search(context.Background(), buildSnapshot(t, 0.9), "q")
	if !errors.Is(err, domain.ErrRetrievalFailure) {
		t.Fatalf("expected ErrRetrievalFailure, got %v", err)
	}
}

func TestService_SearchNilSnapshot(t *testing.T) {
	svc := New(&stubEmbedder{vec: []float32{1, 0}}, Options{})

	got, err := svc.Search(context.Background(), nil, "q")
	if err != nil || got != nil {
		t.Fatalf("expected empty result, got %v, %v", got, err)
	}
}
