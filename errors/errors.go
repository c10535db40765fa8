package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure conditions
var (
	// ErrEmptyIndex indicates that no document has been indexed yet
	ErrEmptyIndex = errors.New("no document indexed")

	// ErrNoExtractableText indicates that ingestion found no usable text
	ErrNoExtractableText = errors.New("no extractable text in document")

	// ErrSessionNotFound indicates that a session ID is unknown
	ErrSessionNotFound = errors.New("session not found")

	// ErrInvalidInput indicates that input validation failed
	ErrInvalidInput = errors.New("invalid input")
)

// DocumentError wraps ingestion and extraction failures. It is the only
// error surfaced directly to the caller: a conversation cannot proceed
// without an indexed document.
type DocumentError struct {
	Source string
	Err    error
}

func (e *DocumentError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("document error: %v", e.Err)
	}
	return fmt.Sprintf("document %q: %v", e.Source, e.Err)
}

func (e *DocumentError) Unwrap() error { return e.Err }

// NewDocumentError wraps err as a DocumentError for the named source.
func NewDocumentError(source string, err error) *DocumentError {
	return &DocumentError{Source: source, Err: err}
}

// RetrievalError wraps passage search failures, most commonly an empty index.
type RetrievalError struct {
	Query string
	Err   error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieve %q: %v", e.Query, e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }

// NewRetrievalError wraps err as a RetrievalError for the given query.
func NewRetrievalError(query string, err error) *RetrievalError {
	return &RetrievalError{Query: query, Err: err}
}

// GenerationError wraps failures of the text-generation capability
// (quota, timeout, network). The reasoning loop retries once, then
// degrades to verbatim passage text.
type GenerationError struct {
	Provider string
	Err      error
}

func (e *GenerationError) Error() string {
	if e.Provider == "" {
		return fmt.Sprintf("generation failed: %v", e.Err)
	}
	return fmt.Sprintf("generation via %s failed: %v", e.Provider, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// NewGenerationError wraps err as a GenerationError.
func NewGenerationError(provider string, err error) *GenerationError {
	return &GenerationError{Provider: provider, Err: err}
}

// IsGeneration reports whether err is (or wraps) a GenerationError.
func IsGeneration(err error) bool {
	var ge *GenerationError
	return errors.As(err, &ge)
}

// IsRetrieval reports whether err is (or wraps) a RetrievalError.
func IsRetrieval(err error) bool {
	var re *RetrievalError
	return errors.As(err, &re)
}

// IsDocument reports whether err is (or wraps) a DocumentError.
func IsDocument(err error) bool {
	var de *DocumentError
	return errors.As(err, &de)
}
