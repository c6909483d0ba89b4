package embedding

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kailas-cloud/docrag/internal/domain"
)

// mockEmbedder embeds each text as a one-component vector holding its length.
type mockEmbedder struct {
	embedFn    func(text string) (domain.EmbeddingResult, error)
	batchFn    func(texts []string) (domain.BatchEmbeddingResult, error)
	batchSizes []int
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	if m.embedFn != nil {
		return m.embedFn(text)
	}
	return domain.EmbeddingResult{Embedding: []float32{float32(len(text))}, PromptTokens: 1, TotalTokens: 1}, nil
}

func (m *mockEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	m.batchSizes = append(m.batchSizes, len(texts))
	if m.batchFn != nil {
		return m.batchFn(texts)
	}
	out := domain.BatchEmbeddingResult{PromptTokens: len(texts), TotalTokens: len(texts)}
	for _, text := range texts {
		out.Embeddings = append(out.Embeddings, []float32{float32(len(text))})
	}
	return out, nil
}

// singleOnly hides BatchEmbed so the fallback path is taken.
type singleOnly struct {
	inner *mockEmbedder
	calls int
}

func (s *singleOnly) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	s.calls++
	return s.inner.Embed(ctx, text)
}

func observed(level zapcore.Level) (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return zap.New(core), logs
}

func TestInstrumentedEmbedder_Embed(t *testing.T) {
	logger, logs := observed(zapcore.DebugLevel)
	p := NewInstrumentedEmbedder(&mockEmbedder{}, "openai", "text-embedding-3-small", logger)

	res, err := p.Embed(context.Background(), "march")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Embedding) != 1 || res.Embedding[0] != 5 || res.TotalTokens != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}

	entries := logs.FilterMessage("Embedding request completed").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 completion log, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["provider"] != "openai" || fields["model"] != "text-embedding-3-small" {
		t.Errorf("log misses provider/model: %v", fields)
	}
}

func TestInstrumentedEmbedder_Embed_Error(t *testing.T) {
	logger, logs := observed(zapcore.ErrorLevel)
	innerErr := errors.New("api error")
	p := NewInstrumentedEmbedder(&mockEmbedder{
		embedFn: func(string) (domain.EmbeddingResult, error) { return domain.EmbeddingResult{}, innerErr },
	}, "openai", "m", logger)

	_, err := p.Embed(context.Background(), "q")
	if !errors.Is(err, innerErr) {
		t.Fatalf("expected wrapped inner error, got %v", err)
	}
	if logs.FilterMessage("Embedding request failed").Len() != 1 {
		t.Errorf("expected one error log, got %v", logs.All())
	}
}

func TestInstrumentedEmbedder_NilLogger(t *testing.T) {
	p := NewInstrumentedEmbedder(&mockEmbedder{}, "openai", "m", nil)
	if _, err := p.Embed(context.Background(), "q"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestInstrumentedEmbedder_BatchEmbed(t *testing.T) {
	tests := []struct {
		name      string
		batchSize int
		texts     []string
		wantSizes []int
	}{
		{name: "single request", batchSize: 0, texts: []string{"a", "bb", "ccc"}, wantSizes: []int{3}},
		{name: "exact split", batchSize: 2, texts: []string{"a", "bb", "ccc", "dddd"}, wantSizes: []int{2, 2}},
		{name: "remainder", batchSize: 2, texts: []string{"a", "bb", "ccc", "dddd", "eeeee"}, wantSizes: []int{2, 2, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inner := &mockEmbedder{}
			p := NewInstrumentedEmbedder(inner, "openai", "m", zap.NewNop(), WithMaxBatchSize(tt.batchSize))

			res, err := p.BatchEmbed(context.Background(), tt.texts)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(inner.batchSizes) != len(tt.wantSizes) {
				t.Fatalf("expected requests %v, got %v", tt.wantSizes, inner.batchSizes)
			}
			for i, n := range tt.wantSizes {
				if inner.batchSizes[i] != n {
					t.Errorf("request %d size = %d, expected %d", i, inner.batchSizes[i], n)
				}
			}
			for i, text := range tt.texts {
				if res.Embeddings[i][0] != float32(len(text)) {
					t.Errorf("embedding %d out of order: %v", i, res.Embeddings[i])
				}
			}
			if res.TotalTokens != len(tt.texts) {
				t.Errorf("expected TotalTokens=%d, got %d", len(tt.texts), res.TotalTokens)
			}
		})
	}
}

func TestInstrumentedEmbedder_BatchEmbed_Empty(t *testing.T) {
	inner := &mockEmbedder{}
	p := NewInstrumentedEmbedder(inner, "openai", "m", zap.NewNop())

	res, err := p.BatchEmbed(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Embeddings != nil || len(inner.batchSizes) != 0 {
		t.Errorf("expected no provider call, got %v", inner.batchSizes)
	}
}

func TestInstrumentedEmbedder_BatchEmbed_StopsAtFirstFailure(t *testing.T) {
	logger, logs := observed(zapcore.ErrorLevel)
	innerErr := errors.New("api error")
	calls := 0
	inner := &mockEmbedder{batchFn: func(texts []string) (domain.BatchEmbeddingResult, error) {
		calls++
		if calls == 2 {
			return domain.BatchEmbeddingResult{}, innerErr
		}
		return domain.BatchEmbeddingResult{Embeddings: make([][]float32, len(texts))}, nil
	}}
	p := NewInstrumentedEmbedder(inner, "openai", "m", logger, WithMaxBatchSize(1))

	_, err := p.BatchEmbed(context.Background(), []string{"a", "b", "c"})
	if !errors.Is(err, innerErr) {
		t.Fatalf("expected wrapped inner error, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected to stop after the failing request, got %d calls", calls)
	}

	entries := logs.FilterMessage("Batch embedding request failed").All()
	if len(entries) != 1 || entries[0].ContextMap()["offset"] != int64(1) {
		t.Errorf("expected failure log at offset 1, got %v", logs.All())
	}
}

func TestInstrumentedEmbedder_BatchEmbed_CountMismatch(t *testing.T) {
	inner := &mockEmbedder{batchFn: func([]string) (domain.BatchEmbeddingResult, error) {
		return domain.BatchEmbeddingResult{Embeddings: [][]float32{{0.1}}}, nil
	}}
	p := NewInstrumentedEmbedder(inner, "openai", "m", zap.NewNop())

	_, err := p.BatchEmbed(context.Background(), []string{"a", "b"})
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected ErrEmbeddingProviderError, got %v", err)
	}
}

func TestInstrumentedEmbedder_BatchEmbed_FallsBackToSingle(t *testing.T) {
	inner := &singleOnly{inner: &mockEmbedder{}}
	p := NewInstrumentedEmbedder(inner, "openai", "m", zap.NewNop())

	res, err := p.BatchEmbed(context.Background(), []string{"a", "bb"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 2 {
		t.Errorf("expected 2 single Embed calls, got %d", inner.calls)
	}
	if len(res.Embeddings) != 2 || res.Embeddings[1][0] != 2 {
		t.Errorf("unexpected embeddings: %v", res.Embeddings)
	}
}

func TestInstrumentedEmbedder_HealthCheck(t *testing.T) {
	p := NewInstrumentedEmbedder(&mockEmbedder{}, "openai", "m", zap.NewNop())
	if err := p.HealthCheck(context.Background()); err != nil {
		t.Errorf("embedder without HealthCheck must report healthy, got %v", err)
	}
}
