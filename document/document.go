package document

import "fmt"

// Passage represents an indexed, retrievable unit of document text.
// Passages are created at ingestion time and immutable thereafter.
type Passage struct {
	ID          string         `json:"id"`
	DocumentID  string         `json:"document_id"`
	Ordinal     int            `json:"ordinal"`
	Text        string         `json:"text"`
	ClauseLabel string         `json:"clause_label,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// PassageID derives the stable identifier for a passage. Re-ingesting the
// same document yields the same IDs because the document ID is derived from
// content and ordinals follow chunk order.
func PassageID(docID string, ordinal int) string {
	return fmt.Sprintf("%s_p%d", docID, ordinal)
}

// Clone returns a deep copy of the passage.
func (p Passage) Clone() Passage {
	out := p
	if p.Metadata != nil {
		out.Metadata = make(map[string]any, len(p.Metadata))
		for k, v := range p.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}

// Scored pairs a passage with its similarity score for a query.
type Scored struct {
	Passage Passage `json:"passage"`
	Score   float32 `json:"score"`
}
