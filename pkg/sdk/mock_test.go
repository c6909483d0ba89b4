package docrag

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"sync"
	"unicode"
)

// --- Embedder mock ---

const bagDims = 256

// bagEmbedder hashes lower-cased words into a fixed-size count vector, so texts
// sharing words score higher under cosine similarity.
type bagEmbedder struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (b *bagEmbedder) Embed(_ context.Context, text string) (EmbeddingResult, error) {
	b.mu.Lock()
	b.calls++
	b.mu.Unlock()
	if b.err != nil {
		return EmbeddingResult{}, b.err
	}
	return EmbeddingResult{Embedding: bagOfWords(text), TotalTokens: len(strings.Fields(text))}, nil
}

func bagOfWords(text string) []float32 {
	v := make([]float32, bagDims)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		v[h.Sum32()%bagDims]++
	}
	// keep empty texts embeddable
	if len(words) == 0 {
		v[0] = float32(math.SmallestNonzeroFloat32)
	}
	return v
}

// --- Completer mock ---

type mockCompleter struct {
	mu      sync.Mutex
	text    string
	err     error
	prompts []string
}

func (m *mockCompleter) Model() string { return "mock-model" }

func (m *mockCompleter) Complete(_ context.Context, req CompletionRequest) (CompletionResult, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, req.Prompt)
	m.mu.Unlock()
	if m.err != nil {
		return CompletionResult{}, m.err
	}
	return CompletionResult{Text: m.text, Model: "mock-model"}, nil
}
