// Package passage implements the searchable passage index. A Store owns
// the passages of the current document session and answers similarity
// queries with deterministic ordering.
package passage

import (
	"context"

	"github.com/clauselens/clauselens/document"
)

// Store indexes passages and answers similarity queries. Implementations
// must be safe for concurrent readers; Search is read-only.
type Store interface {
	// Index rebuilds or extends the searchable index. Indexing the same
	// document twice is idempotent: passage IDs are content-derived.
	Index(ctx context.Context, passages []document.Passage) error

	// Search returns up to k passages ordered by descending similarity.
	// Ties are broken by the passage ordinal, earlier wins. Returns a
	// RetrievalError wrapping ErrEmptyIndex when nothing is indexed.
	Search(ctx context.Context, query string, k int) ([]document.Scored, error)

	// Count returns the number of indexed passages.
	Count(ctx context.Context) (int, error)

	// Clear drops all indexed state.
	Clear(ctx context.Context) error
}

// CorpusFitter is implemented by embedders that derive their vocabulary
// from the indexed corpus and must be refit when it changes.
type CorpusFitter interface {
	Fit(texts []string)
}
