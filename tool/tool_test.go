package tool

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/clauselens/clauselens/document"
	cerrors "github.com/clauselens/clauselens/errors"
)

// fakeStore returns canned passages without embedding anything.
type fakeStore struct {
	results []document.Scored
	err     error
	lastK   int
}

func (f *fakeStore) Index(_ context.Context, _ []document.Passage) error { return nil }

func (f *fakeStore) Search(_ context.Context, _ string, k int) ([]document.Scored, error) {
	f.lastK = k
	if f.err != nil {
		return nil, f.err
	}
	if len(f.results) > k {
		return f.results[:k], nil
	}
	return f.results, nil
}

func (f *fakeStore) Count(_ context.Context) (int, error) { return len(f.results), nil }
func (f *fakeStore) Clear(_ context.Context) error        { return nil }

// fakeGenerator records the prompt it saw and replies with a fixed string.
type fakeGenerator struct {
	reply      string
	err        error
	lastPrompt string
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.lastPrompt = prompt
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeGenerator) SetTemperature(_ float64) {}
func (f *fakeGenerator) SetModel(_ string)        {}

func scored(id string, ordinal int, score float32) document.Scored {
	return document.Scored{
		Passage: document.Passage{ID: id, Ordinal: ordinal, Text: "text of " + id},
		Score:   score,
	}
}

func TestRetrieveUsesConfiguredTopK(t *testing.T) {
	store := &fakeStore{results: []document.Scored{
		scored("doc_a_p1", 1, 0.9),
		scored("doc_a_p2", 2, 0.8),
		scored("doc_a_p3", 3, 0.7),
	}}
	ts := New(store, &fakeGenerator{reply: "ok"}, WithTopK(2))

	results, err := ts.Retrieve(context.Background(), "termination clause")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.lastK != 2 {
		t.Errorf("expected k=2 passed to store, got %d", store.lastK)
	}
	if len(results) != 2 {
		t.Errorf("expected 2 results, got %d", len(results))
	}
}

func TestRetrieveRejectsEmptyQuery(t *testing.T) {
	ts := New(&fakeStore{}, &fakeGenerator{})
	if _, err := ts.Retrieve(context.Background(), "   "); !errors.Is(err, cerrors.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestRetrievePropagatesEmptyIndex(t *testing.T) {
	store := &fakeStore{err: cerrors.NewRetrievalError("q", cerrors.ErrEmptyIndex)}
	ts := New(store, &fakeGenerator{})

	_, err := ts.Retrieve(context.Background(), "payment")
	if !errors.Is(err, cerrors.ErrEmptyIndex) {
		t.Errorf("expected ErrEmptyIndex in chain, got %v", err)
	}
}

func TestTransformRendersModeAndFocus(t *testing.T) {
	gen := &fakeGenerator{reply: "simplified"}
	ts := New(&fakeStore{}, gen)

	out, err := ts.Transform(context.Background(), "The party shall indemnify...", "risk-analysis", "liability", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "simplified" {
		t.Errorf("expected generator reply, got %q", out)
	}
	if !strings.Contains(gen.lastPrompt, "The party shall indemnify...") {
		t.Errorf("prompt missing source text: %q", gen.lastPrompt)
	}
	if !strings.Contains(gen.lastPrompt, `"liability"`) {
		t.Errorf("prompt missing focus: %q", gen.lastPrompt)
	}
	if !strings.Contains(gen.lastPrompt, "risks") {
		t.Errorf("prompt missing risk instructions: %q", gen.lastPrompt)
	}
}

func TestTransformFallsBackToPlainEnglishForUnknownMode(t *testing.T) {
	gen := &fakeGenerator{reply: "ok"}
	ts := New(&fakeStore{}, gen)

	if _, err := ts.Transform(context.Background(), "some clause", "no-such-mode", "", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(gen.lastPrompt, "everyday language") {
		t.Errorf("expected plain-english instructions, got %q", gen.lastPrompt)
	}
}

func TestTransformWrapsGenerationFailure(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("rate limited")}
	ts := New(&fakeStore{}, gen)

	_, err := ts.Transform(context.Background(), "some clause", "executive", "", "")
	if !cerrors.IsGeneration(err) {
		t.Errorf("expected GenerationError, got %v", err)
	}
}

func TestCompareRequiresBothTexts(t *testing.T) {
	ts := New(&fakeStore{}, &fakeGenerator{reply: "ok"})
	if _, err := ts.Compare(context.Background(), "clause a", "", "payment"); !errors.Is(err, cerrors.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestCompareRendersBothTexts(t *testing.T) {
	gen := &fakeGenerator{reply: "comparison"}
	ts := New(&fakeStore{}, gen)

	if _, err := ts.Compare(context.Background(), "net 30 payment", "net 60 payment", "payment terms"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(gen.lastPrompt, "net 30 payment") || !strings.Contains(gen.lastPrompt, "net 60 payment") {
		t.Errorf("prompt missing compared texts: %q", gen.lastPrompt)
	}
	if !strings.Contains(gen.lastPrompt, "payment terms") {
		t.Errorf("prompt missing aspect: %q", gen.lastPrompt)
	}
}

func TestClassifyNormalizesReply(t *testing.T) {
	gen := &fakeGenerator{reply: "  Restyle\n"}
	ts := New(&fakeStore{}, gen)

	intent, err := ts.Classify(context.Background(), "make it shorter", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if intent != "restyle" {
		t.Errorf("expected restyle, got %q", intent)
	}
}
