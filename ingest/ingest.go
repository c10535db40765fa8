// Package ingest turns uploaded legal documents into indexed passages.
// It extracts plain text from the source bytes, splits the text into
// bounded passages, and tags each passage with a heuristic clause label.
package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/clauselens/clauselens/document"
	cerrors "github.com/clauselens/clauselens/errors"
)

// Options controls passage splitting behaviour.
type Options struct {
	ChunkSize int
	Overlap   int
	Separator string
}

// Option customizes the processor.
type Option func(*Options)

// WithChunkSize overrides the default passage size (characters).
func WithChunkSize(size int) Option {
	return func(o *Options) {
		if size > 0 {
			o.ChunkSize = size
		}
	}
}

// WithOverlap configures overlap (characters) between consecutive passages.
func WithOverlap(overlap int) Option {
	return func(o *Options) {
		if overlap >= 0 {
			o.Overlap = overlap
		}
	}
}

// WithSeparator sets the logical separator used before windowing.
func WithSeparator(sep string) Option {
	return func(o *Options) {
		if sep != "" {
			o.Separator = sep
		}
	}
}

// Processor splits documents into passages ready for indexing.
type Processor struct {
	size    int
	overlap int
	sep     string
}

// NewProcessor constructs a processor with defaults suited to contract text.
func NewProcessor(opts ...Option) *Processor {
	cfg := &Options{
		ChunkSize: 1000,
		Overlap:   200,
		Separator: "\n\n",
	}
	for _, opt := range opts {
		opt(cfg)
	}
	// Windowing advances by size-overlap per step; an overlap at or above
	// the chunk size would never make progress.
	if cfg.Overlap >= cfg.ChunkSize {
		cfg.Overlap = cfg.ChunkSize - 1
	}
	return &Processor{
		size:    cfg.ChunkSize,
		overlap: cfg.Overlap,
		sep:     cfg.Separator,
	}
}

// ProcessDocument extracts text from the raw upload and returns the
// resulting passages. The document ID is a digest of the extracted text,
// so re-uploading the same document yields the same passage IDs.
func (p *Processor) ProcessDocument(raw []byte, source string) ([]document.Passage, error) {
	if len(raw) == 0 {
		return nil, cerrors.NewDocumentError(source, cerrors.ErrNoExtractableText)
	}

	text, err := ExtractText(raw)
	if err != nil {
		return nil, cerrors.NewDocumentError(source, err)
	}
	text = normalize(text)
	if text == "" {
		return nil, cerrors.NewDocumentError(source, cerrors.ErrNoExtractableText)
	}

	docID := documentID(text)
	passages := p.split(docID, source, text)
	if len(passages) == 0 {
		return nil, cerrors.NewDocumentError(source, cerrors.ErrNoExtractableText)
	}
	return passages, nil
}

// split cuts the text into bounded windows along the separator, carrying
// the overlap forward when a part exceeds the window size.
func (p *Processor) split(docID, source, text string) []document.Passage {
	parts := strings.Split(text, p.sep)
	passages := make([]document.Passage, 0, len(parts))
	ordinal := 0

	appendPassage := func(content string) {
		content = strings.TrimSpace(content)
		if content == "" {
			return
		}
		ordinal++
		passages = append(passages, document.Passage{
			ID:          document.PassageID(docID, ordinal),
			DocumentID:  docID,
			Ordinal:     ordinal,
			Text:        content,
			ClauseLabel: document.DetectClause(content),
			Metadata:    map[string]any{"source": source},
		})
	}

	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		for len(part) > p.size {
			appendPassage(part[:p.size])
			part = part[p.size-p.overlap:]
		}
		appendPassage(part)
	}
	return passages
}

// normalize strips control garbage left over by extraction while keeping
// paragraph boundaries intact.
func normalize(text string) string {
	text = strings.ReplaceAll(text, "\x00", "")
	text = strings.ReplaceAll(text, "�", "")
	text = strings.ReplaceAll(text, "\r\n", "\n")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	text = strings.Join(lines, "\n")
	for strings.Contains(text, "\n\n\n") {
		text = strings.ReplaceAll(text, "\n\n\n", "\n\n")
	}
	return strings.TrimSpace(text)
}

func documentID(text string) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("doc_%s", hex.EncodeToString(sum[:8]))
}
