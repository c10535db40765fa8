package passage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/clauselens/clauselens/document"
	cerrors "github.com/clauselens/clauselens/errors"
	"github.com/clauselens/clauselens/vector"
)

// InMemoryStore implements Store using in-process storage. It embeds
// passages at index time and scores queries by cosine similarity.
type InMemoryStore struct {
	embedder vector.Embedder

	mu       sync.RWMutex
	passages map[string]document.Passage
	vectors  map[string][]float32
}

// NewInMemoryStore creates an in-memory passage store backed by the
// given embedder.
func NewInMemoryStore(embedder vector.Embedder) *InMemoryStore {
	return &InMemoryStore{
		embedder: embedder,
		passages: make(map[string]document.Passage),
		vectors:  make(map[string][]float32),
	}
}

// Index embeds and stores the passages. Existing entries with the same ID
// are replaced, which makes re-indexing the same document a no-op.
func (s *InMemoryStore) Index(ctx context.Context, passages []document.Passage) error {
	if s.embedder == nil {
		return fmt.Errorf("passage store has no embedder")
	}
	if len(passages) == 0 {
		return nil
	}

	texts := make([]string, len(passages))
	for i, p := range passages {
		texts[i] = p.Text
	}

	// Corpus-derived embedders (TF-IDF) must see the full corpus before
	// any passage is embedded.
	if fitter, ok := s.embedder.(CorpusFitter); ok {
		s.mu.RLock()
		for _, p := range s.passages {
			texts = append(texts, p.Text)
		}
		s.mu.RUnlock()
		fitter.Fit(texts)

		// Vocabulary changed, previously stored vectors are stale.
		if err := s.reembedAll(ctx); err != nil {
			return err
		}
	}

	vecs, err := s.embedder.EmbedBatch(ctx, texts[:len(passages)])
	if err != nil {
		return fmt.Errorf("embed passages: %w", err)
	}
	if len(vecs) != len(passages) {
		return fmt.Errorf("expected %d embeddings, got %d", len(passages), len(vecs))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range passages {
		if p.ID == "" {
			return fmt.Errorf("passage at ordinal %d has empty ID", p.Ordinal)
		}
		s.passages[p.ID] = p.Clone()
		s.vectors[p.ID] = vecs[i]
	}
	return nil
}

func (s *InMemoryStore) reembedAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, p := range s.passages {
		vec, err := s.embedder.Embed(ctx, p.Text)
		if err != nil {
			return fmt.Errorf("re-embed passage %s: %w", id, err)
		}
		s.vectors[id] = vec
	}
	return nil
}

// Search embeds the query and returns the top-k passages by cosine
// similarity, ordinal ascending on equal scores.
func (s *InMemoryStore) Search(ctx context.Context, query string, k int) ([]document.Scored, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive", cerrors.ErrInvalidInput)
	}

	s.mu.RLock()
	empty := len(s.passages) == 0
	s.mu.RUnlock()
	if empty {
		return nil, cerrors.NewRetrievalError(query, cerrors.ErrEmptyIndex)
	}

	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, cerrors.NewRetrievalError(query, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]document.Scored, 0, len(s.passages))
	for id, p := range s.passages {
		vec := s.vectors[id]
		results = append(results, document.Scored{
			Passage: p.Clone(),
			Score:   vector.CosineSimilarity(queryVec, vec),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Passage.Ordinal < results[j].Passage.Ordinal
	})

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Count returns the number of indexed passages.
func (s *InMemoryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.passages), nil
}

// Clear drops all indexed state.
func (s *InMemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.passages = make(map[string]document.Passage)
	s.vectors = make(map[string][]float32)
	return nil
}
