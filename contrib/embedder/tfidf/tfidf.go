// Package tfidf provides a deterministic, dependency-free embedder fit on
// the indexed corpus. It is the offline fallback when no embedding API is
// configured, and the embedder of choice in tests.
package tfidf

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/clauselens/clauselens/vector"
)

// Embedder computes TF-IDF vectors over a vocabulary derived from the
// corpus it was fitted on. Implements vector.Embedder and the corpus
// refit hook used by the passage store.
type Embedder struct {
	mu    sync.RWMutex
	vocab map[string]int
	idf   []float32
}

// New creates an unfitted embedder. Fit must run before Embed.
func New() *Embedder {
	return &Embedder{vocab: make(map[string]int)}
}

// Fit rebuilds the vocabulary and document frequencies from the corpus.
// Vocabulary order is sorted, so vectors are reproducible across runs.
func (e *Embedder) Fit(texts []string) {
	df := make(map[string]int)
	for _, text := range texts {
		seen := make(map[string]bool)
		for _, term := range tokenize(text) {
			if !seen[term] {
				seen[term] = true
				df[term]++
			}
		}
	}

	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	vocab := make(map[string]int, len(terms))
	idf := make([]float32, len(terms))
	n := float64(len(texts))
	for i, term := range terms {
		vocab[term] = i
		idf[i] = float32(math.Log((1+n)/(1+float64(df[term]))) + 1)
	}

	e.mu.Lock()
	e.vocab = vocab
	e.idf = idf
	e.mu.Unlock()
}

// Embed converts text to a TF-IDF vector over the fitted vocabulary.
func (e *Embedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if len(e.vocab) == 0 {
		return nil, fmt.Errorf("tfidf embedder is not fitted")
	}

	vec := make([]float32, len(e.vocab))
	for _, term := range tokenize(text) {
		if idx, ok := e.vocab[term]; ok {
			vec[idx] += e.idf[idx]
		}
	}
	return vector.Normalize(vec), nil
}

// EmbedBatch embeds multiple texts.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

// Dimension returns the fitted vocabulary size.
func (e *Embedder) Dimension() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.vocab)
}

func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) > 1 {
			terms = append(terms, f)
		}
	}
	return terms
}
