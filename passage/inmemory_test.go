package passage

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/clauselens/clauselens/document"
	cerrors "github.com/clauselens/clauselens/errors"
)

// keywordEmbedder produces a fixed-dimension vector from keyword hits, so
// similarity is predictable in tests.
type keywordEmbedder struct {
	keywords []string
}

func newKeywordEmbedder() *keywordEmbedder {
	return &keywordEmbedder{keywords: []string{"terminate", "payment", "liability", "notice"}}
}

func (e *keywordEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	lower := strings.ToLower(text)
	vec := make([]float32, len(e.keywords))
	for i, kw := range e.keywords {
		vec[i] = float32(strings.Count(lower, kw))
	}
	return vec, nil
}

func (e *keywordEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (e *keywordEmbedder) Dimension() int { return len(e.keywords) }

// fittingEmbedder wraps keywordEmbedder and records Fit calls.
type fittingEmbedder struct {
	keywordEmbedder
	fitCalls int
	lastFit  []string
}

func (e *fittingEmbedder) Fit(texts []string) {
	e.fitCalls++
	e.lastFit = texts
}

func passages() []document.Passage {
	return []document.Passage{
		{ID: "doc_x_p1", DocumentID: "doc_x", Ordinal: 1, Text: "Payment is due in thirty days."},
		{ID: "doc_x_p2", DocumentID: "doc_x", Ordinal: 2, Text: "Either party may terminate with notice."},
		{ID: "doc_x_p3", DocumentID: "doc_x", Ordinal: 3, Text: "Liability is capped at fees paid."},
	}
}

func TestSearchEmptyIndex(t *testing.T) {
	s := NewInMemoryStore(newKeywordEmbedder())

	_, err := s.Search(context.Background(), "terminate", 4)
	if !errors.Is(err, cerrors.ErrEmptyIndex) {
		t.Fatalf("expected ErrEmptyIndex, got %v", err)
	}
	if !cerrors.IsRetrieval(err) {
		t.Errorf("expected a RetrievalError wrapper, got %T", err)
	}
}

func TestSearchRanksByScore(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore(newKeywordEmbedder())
	if err := s.Index(ctx, passages()); err != nil {
		t.Fatalf("index failed: %v", err)
	}

	results, err := s.Search(ctx, "terminate terminate", 2)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) == 0 || results[0].Passage.ID != "doc_x_p2" {
		t.Fatalf("expected termination passage first, got %+v", results)
	}
}

func TestSearchTieBreaksByOrdinal(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore(newKeywordEmbedder())
	// Two passages with identical keyword profiles score identically.
	tied := []document.Passage{
		{ID: "doc_x_p5", DocumentID: "doc_x", Ordinal: 5, Text: "notice of termination: terminate per notice terms"},
		{ID: "doc_x_p2", DocumentID: "doc_x", Ordinal: 2, Text: "terminate per notice terms: notice of termination"},
	}
	if err := s.Index(ctx, tied); err != nil {
		t.Fatalf("index failed: %v", err)
	}

	for i := 0; i < 5; i++ {
		results, err := s.Search(ctx, "terminate notice", 2)
		if err != nil {
			t.Fatalf("search failed: %v", err)
		}
		if results[0].Passage.Ordinal != 2 {
			t.Fatalf("tie must break toward earlier ordinal, got %d first", results[0].Passage.Ordinal)
		}
	}
}

func TestSearchRejectsBadK(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore(newKeywordEmbedder())
	if err := s.Index(ctx, passages()); err != nil {
		t.Fatalf("index failed: %v", err)
	}
	if _, err := s.Search(ctx, "terminate", 0); !errors.Is(err, cerrors.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for k=0, got %v", err)
	}
}

func TestIndexIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore(newKeywordEmbedder())

	if err := s.Index(ctx, passages()); err != nil {
		t.Fatalf("first index failed: %v", err)
	}
	if err := s.Index(ctx, passages()); err != nil {
		t.Fatalf("second index failed: %v", err)
	}

	count, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 3 {
		t.Errorf("re-indexing should not duplicate passages, got %d", count)
	}
}

func TestIndexRefitsCorpusEmbedder(t *testing.T) {
	ctx := context.Background()
	emb := &fittingEmbedder{}
	s := NewInMemoryStore(emb)

	if err := s.Index(ctx, passages()); err != nil {
		t.Fatalf("index failed: %v", err)
	}
	if emb.fitCalls != 1 {
		t.Fatalf("expected one Fit call, got %d", emb.fitCalls)
	}
	if len(emb.lastFit) != 3 {
		t.Errorf("expected full corpus passed to Fit, got %d texts", len(emb.lastFit))
	}

	// Adding a document refits with the grown corpus.
	extra := []document.Passage{{ID: "doc_y_p1", DocumentID: "doc_y", Ordinal: 1, Text: "Notice addresses."}}
	if err := s.Index(ctx, extra); err != nil {
		t.Fatalf("second index failed: %v", err)
	}
	if emb.fitCalls != 2 {
		t.Errorf("expected refit on second index, got %d calls", emb.fitCalls)
	}
	if len(emb.lastFit) != 4 {
		t.Errorf("expected 4 texts on refit, got %d", len(emb.lastFit))
	}
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore(newKeywordEmbedder())
	if err := s.Index(ctx, passages()); err != nil {
		t.Fatalf("index failed: %v", err)
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if _, err := s.Search(ctx, "terminate", 2); !errors.Is(err, cerrors.ErrEmptyIndex) {
		t.Errorf("expected ErrEmptyIndex after clear, got %v", err)
	}
}
