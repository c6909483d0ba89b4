package query

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/kailas-cloud/docrag/internal/domain"
	"github.com/kailas-cloud/docrag/internal/domain/answer"
	"github.com/kailas-cloud/docrag/internal/domain/chunk"
	"github.com/kailas-cloud/docrag/internal/domain/document"
	"github.com/kailas-cloud/docrag/internal/domain/intent"
	"github.com/kailas-cloud/docrag/internal/index"
	"github.com/kailas-cloud/docrag/internal/metrics"
	"github.com/kailas-cloud/docrag/internal/usecase/classify"
	"github.com/kailas-cloud/docrag/internal/usecase/retrieval"
	"github.com/kailas-cloud/docrag/internal/usecase/synthesis"
)

func TestMain(m *testing.M) {
	metrics.RegisterQueryMetrics()
	os.Exit(m.Run())
}

// --- Mocks ---

type mockCorpus struct {
	ensureFn func(ctx context.Context) (*index.Snapshot, error)
	calls    int
}

func (m *mockCorpus) Ensure(ctx context.Context) (*index.Snapshot, error) {
	m.calls++
	return m.ensureFn(ctx)
}

type mockRetriever struct {
	searchFn func(ctx context.Context, snap *index.Snapshot, query string) ([]retrieval.Candidate, error)
	calls    int
}

func (m *mockRetriever) Search(ctx context.Context, snap *index.Snapshot, query string) ([]retrieval.Candidate, error) {
	m.calls++
	return m.searchFn(ctx, snap, query)
}

type mockSynthesizer struct {
	directCalls  int
	lastIntent   intent.Intent
	lastPassages []synthesis.Passage
	fromCtxErr   error
}

func (m *mockSynthesizer) Direct(_ context.Context, in intent.Intent, _ string) synthesis.Result {
	m.directCalls++
	m.lastIntent = in
	return synthesis.Result{Text: "direct answer", Model: "llama"}
}

func (m *mockSynthesizer) FromContext(
	_ context.Context, _ string, passages []synthesis.Passage,
) (synthesis.Result, error) {
	m.lastPassages = passages
	if m.fromCtxErr != nil {
		return synthesis.Result{}, m.fromCtxErr
	}
	return synthesis.Result{Text: "grounded answer", Model: "llama"}, nil
}

// --- Helpers ---

func testSnapshot(t *testing.T) *index.Snapshot {
	t.Helper()
	d := testDocument(t, "1699999999-ab12cd34-report.pdf", "2")
	c, err := chunk.New(d.ID(), "Revenue grew.", "Costs fell. Revenue grew. Margins rose.", 0)
	if err != nil {
		t.Fatalf("chunk.New: %v", err)
	}
	snap, err := index.NewSnapshot([]document.Document{d}, []chunk.Chunk{c}, [][]float32{{1, 0}}, "emb")
	if err != nil {
		t.Fatalf("NewSnapshot: %v", err)
	}
	return snap
}

func testDocument(t *testing.T, name, page string) document.Document {
	t.Helper()
	d, err := document.New(name, "/docs/"+name, "Costs fell. Revenue grew. Margins rose.", 2048, time.Now(), page)
	if err != nil {
		t.Fatalf("document.New: %v", err)
	}
	return d
}

func candidatesFrom(snap *index.Snapshot) []retrieval.Candidate {
	c := snap.Chunk(0)
	d, _ := snap.Document(c.DocID())
	return []retrieval.Candidate{{Chunk: c, Document: d, Score: 0.91}}
}

func newService(corpus Corpus, ret Retriever, syn Synthesizer) *Service {
	return New(classify.New(), corpus, ret, syn, Options{MaxAttempts: 2, RetryDelay: time.Millisecond})
}

func failingCorpus(err error) *mockCorpus {
	return &mockCorpus{ensureFn: func(context.Context) (*index.Snapshot, error) { return nil, err }}
}

// --- Tests ---

func TestQuery_EmptyIsInvalid(t *testing.T) {
	svc := newService(failingCorpus(nil), &mockRetriever{}, &mockSynthesizer{})
	_, err := svc.Query(context.Background(), Request{Query: "   "})
	if !errors.Is(err, domain.ErrInvalidQuery) {
		t.Fatalf("expected ErrInvalidQuery, got %v", err)
	}
}

func TestQuery_DirectIntentSkipsIndex(t *testing.T) {
	corpus := failingCorpus(errors.New("must not be called"))
	syn := &mockSynthesizer{}
	svc := newService(corpus, &mockRetriever{}, syn)

	resp, err := svc.Query(context.Background(), Request{Query: "hello there", UserID: "u1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if corpus.calls != 0 {
		t.Error("expected no index access for direct intents")
	}
	if resp.Intent() != intent.Greeting || syn.lastIntent != intent.Greeting {
		t.Errorf("expected greeting, got %s", resp.Intent())
	}
	if resp.Text() != "direct answer" || len(resp.Sources()) != 0 {
		t.Errorf("unexpected response %q with %d sources", resp.Text(), len(resp.Sources()))
	}
}

func TestQuery_GeneralFallsBackOnEmptyCorpus(t *testing.T) {
	syn := &mockSynthesizer{}
	svc := newService(failingCorpus(domain.ErrEmptyCorpus), &mockRetriever{}, syn)

	resp, err := svc.Query(context.Background(), Request{Query: "what is the capital of france"})
	if err != nil {
		t.Fatalf("expected direct fallback, got %v", err)
	}
	if resp.Intent() != intent.General {
		t.Errorf("expected general, got %s", resp.Intent())
	}
	if syn.directCalls != 1 {
		t.Errorf("expected 1 direct call, got %d", syn.directCalls)
	}
}

func TestQuery_HybridFallsBackOnBuildFailure(t *testing.T) {
	syn := &mockSynthesizer{}
	svc := newService(failingCorpus(domain.ErrIndexBuildFailure), &mockRetriever{}, syn)

	resp, err := svc.Query(context.Background(), Request{Query: "What is in this document?"})
	if err != nil {
		t.Fatalf("expected direct fallback, got %v", err)
	}
	if resp.Intent() != intent.Hybrid || syn.directCalls != 1 {
		t.Errorf("expected hybrid answered directly, got %s (%d direct calls)", resp.Intent(), syn.directCalls)
	}
}

func TestQuery_DocumentSpecificNoDocuments(t *testing.T) {
	for _, cause := range []error{domain.ErrEmptyCorpus, domain.ErrDirectoryUnavailable} {
		svc := newService(failingCorpus(cause), &mockRetriever{}, &mockSynthesizer{})
		_, err := svc.Query(context.Background(), Request{Query: "read chapter three aloud"})
		if !errors.Is(err, domain.ErrNoDocumentsAvailable) {
			t.Errorf("%v: expected ErrNoDocumentsAvailable, got %v", cause, err)
		}
	}
}

func TestQuery_RetrievalPath(t *testing.T) {
	snap := testSnapshot(t)
	corpus := &mockCorpus{ensureFn: func(context.Context) (*index.Snapshot, error) { return snap, nil }}
	ret := &mockRetriever{searchFn: func(_ context.Context, s *index.Snapshot, _ string) ([]retrieval.Candidate, error) {
		return candidatesFrom(s), nil
	}}
	syn := &mockSynthesizer{}
	svc := newService(corpus, ret, syn)

	resp, err := svc.Query(context.Background(), Request{Query: "read chapter three aloud"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text() != "grounded answer" {
		t.Errorf("expected grounded answer, got %q", resp.Text())
	}
	if len(resp.Sources()) != 1 {
		t.Fatalf("expected 1 source, got %d", len(resp.Sources()))
	}
	src := resp.Sources()[0]
	if src.DisplayName != "report.pdf" || src.Page != "2" || src.Score != 0.91 {
		t.Errorf("unexpected attribution %+v", src)
	}
	if len(syn.lastPassages) != 1 || syn.lastPassages[0].Source != "report.pdf, page 2" {
		t.Errorf("unexpected passages %+v", syn.lastPassages)
	}
	if !strings.Contains(syn.lastPassages[0].Text, "Margins rose.") {
		t.Error("expected passage to carry the window text")
	}
	if resp.Elapsed() <= 0 {
		t.Error("expected elapsed time to be recorded")
	}
}

func TestQuery_NoCandidatesAnswersDirectly(t *testing.T) {
	snap := testSnapshot(t)
	corpus := &mockCorpus{ensureFn: func(context.Context) (*index.Snapshot, error) { return snap, nil }}
	ret := &mockRetriever{searchFn: func(context.Context, *index.Snapshot, string) ([]retrieval.Candidate, error) {
		return nil, nil
	}}
	syn := &mockSynthesizer{}
	svc := newService(corpus, ret, syn)

	resp, err := svc.Query(context.Background(), Request{Query: "read chapter three aloud"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if syn.directCalls != 1 || len(resp.Sources()) != 0 {
		t.Errorf("expected direct answer without sources, got %d calls, %d sources",
			syn.directCalls, len(resp.Sources()))
	}
}

func TestQuery_RetryCap(t *testing.T) {
	snap := testSnapshot(t)
	corpus := &mockCorpus{ensureFn: func(context.Context) (*index.Snapshot, error) { return snap, nil }}
	ret := &mockRetriever{}
	ret.searchFn = func(_ context.Context, s *index.Snapshot, _ string) ([]retrieval.Candidate, error) {
		if ret.calls <= 2 {
			return nil, domain.ErrRetrievalFailure
		}
		return candidatesFrom(s), nil
	}
	svc := newService(corpus, ret, &mockSynthesizer{})

	_, err := svc.Query(context.Background(), Request{Query: "read chapter three aloud"})
	if !errors.Is(err, domain.ErrRetrievalFailure) {
		t.Fatalf("expected ErrRetrievalFailure, got %v", err)
	}
	if ret.calls != 2 {
		t.Errorf("expected exactly 2 attempts, got %d", ret.calls)
	}
}

func TestQuery_SynthesisFailureIsRetried(t *testing.T) {
	snap := testSnapshot(t)
	corpus := &mockCorpus{ensureFn: func(context.Context) (*index.Snapshot, error) { return snap, nil }}
	ret := &mockRetriever{searchFn: func(_ context.Context, s *index.Snapshot, _ string) ([]retrieval.Candidate, error) {
		return candidatesFrom(s), nil
	}}
	syn := &mockSynthesizer{fromCtxErr: domain.ErrSynthesisFailure}
	svc := newService(corpus, ret, syn)

	_, err := svc.Query(context.Background(), Request{Query: "read chapter three aloud"})
	if !errors.Is(err, domain.ErrSynthesisFailure) {
		t.Fatalf("expected ErrSynthesisFailure, got %v", err)
	}
	if ret.calls != 2 {
		t.Errorf("expected 2 attempts, got %d", ret.calls)
	}
}

func TestAttribute_MissingDocumentIsPlaceholder(t *testing.T) {
	snap := testSnapshot(t)
	corpus := &mockCorpus{ensureFn: func(context.Context) (*index.Snapshot, error) { return snap, nil }}
	ret := &mockRetriever{searchFn: func(_ context.Context, s *index.Snapshot, _ string) ([]retrieval.Candidate, error) {
		good := candidatesFrom(s)[0]
		return []retrieval.Candidate{good, {Chunk: good.Chunk, Score: 0.7}}, nil
	}}
	svc := newService(corpus, ret, &mockSynthesizer{})

	resp, err := svc.Query(context.Background(), Request{Query: "read chapter three aloud"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sources := resp.Sources()
	if len(sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(sources))
	}
	if sources[0].DisplayName != "report.pdf" {
		t.Errorf("expected first source intact, got %+v", sources[0])
	}
	if sources[1] != answer.Placeholder() {
		t.Errorf("expected placeholder, got %+v", sources[1])
	}
}

func TestAttribute_TruncatesPreview(t *testing.T) {
	long := strings.Repeat("a", 250) + "."
	d := testDocument(t, "notes.txt", "")
	c, err := chunk.New(d.ID(), long, long, 0)
	if err != nil {
		t.Fatalf("chunk.New: %v", err)
	}

	a, err := attribute(retrieval.Candidate{Chunk: c, Document: d, Score: 0.8})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Preview != strings.Repeat("a", answer.PreviewLimit)+"..." {
		t.Errorf("unexpected preview length %d", len(a.Preview))
	}
}

func TestWithRetry_StopsOnContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := withRetry(ctx, 5, time.Hour, func(context.Context) (int, error) {
		calls++
		cancel()
		return 0, errors.New("boom")
	})
	if err == nil || calls != 1 {
		t.Errorf("expected one failed attempt, got calls=%d err=%v", calls, err)
	}
}
