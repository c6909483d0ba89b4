package retrieval

import (
	"fmt"
	"math"
	"slices"

	"github.com/kailas-cloud/docrag/internal/domain"
	"github.com/kailas-cloud/docrag/internal/domain/chunk"
	"github.com/kailas-cloud/docrag/internal/domain/document"
	"github.com/kailas-cloud/docrag/internal/index"
)

const (
	// DefaultTopK is the number of candidates kept before the cutoff.
	DefaultTopK = 5
	// DefaultCutoff is the minimum cosine similarity of a kept candidate.
	DefaultCutoff = 0.6
)

// Candidate is a retrieved chunk with its owning document and similarity score.
type Candidate struct {
	Chunk    chunk.Chunk
	Document document.Document
	Score    float64
	Position int // chunk position in the snapshot, used as tie-breaker
}

// Retrieve scores every chunk of snap against query by cosine similarity, keeps the k best
// (ties keep snapshot order) and then drops candidates scoring below cutoff.
// An empty result is not an error.
func Retrieve(snap *index.Snapshot, query []float32, k int, cutoff float64) ([]Candidate, error) {
	if snap == nil || k <= 0 {
		return nil, nil
	}
	if len(query) != snap.Dimensions() {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d",
			domain.ErrRetrievalFailure, len(query), snap.Dimensions())
	}

	qnorm := norm(query)
	if qnorm == 0 {
		return nil, nil
	}

	type scored struct {
		pos   int
		score float64
	}
	all := make([]scored, snap.Len())
	for i := range all {
		all[i] = scored{pos: i, score: dot(query, snap.Vector(i)) / qnorm}
	}

	slices.SortStableFunc(all, func(a, b scored) int {
		switch {
		case a.score > b.score:
			return -1
		case a.score < b.score:
			return 1
		default:
			return 0
		}
	})

	if len(all) > k {
		all = all[:k]
	}

	out := make([]Candidate, 0, len(all))
	for _, s := range all {
		if s.score < cutoff {
			continue
		}
		ch := snap.Chunk(s.pos)
		doc, _ := snap.Document(ch.DocID())
		out = append(out, Candidate{Chunk: ch, Document: doc, Score: s.score, Position: s.pos})
	}
	return out, nil
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func norm(v []float32) float64 {
	return math.Sqrt(dot(v, v))
}
