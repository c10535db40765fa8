package tokenizer

import (
	"strings"
	"unicode"
)

// Tokenizer counts tokens for budget enforcement. Memory uses it to decide
// when raw turns must be folded into the rolling summary.
type Tokenizer interface {
	CountTokens(text string) int
}

var _ Tokenizer = (*SimpleTokenizer)(nil)

// SimpleTokenizer approximates token counts with a rule-based splitter.
// It needs no model files, which keeps tests and offline use deterministic.
type SimpleTokenizer struct{}

// NewSimpleTokenizer creates the rule-based tokenizer.
func NewSimpleTokenizer() *SimpleTokenizer {
	return &SimpleTokenizer{}
}

// ------------------------------------------------------------------
// Tokenization rules:
// - Letters and digits → continuous word
// - CJK characters → single rune
// - Punctuation → standalone token
// ------------------------------------------------------------------

func (t *SimpleTokenizer) splitTokens(s string) []string {
	var toks []string
	var buf strings.Builder

	flush := func() {
		if buf.Len() > 0 {
			toks = append(toks, buf.String())
			buf.Reset()
		}
	}

	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			flush()

		case unicode.Is(unicode.Han, r):
			flush()
			toks = append(toks, string(r))

		case unicode.IsLetter(r) || unicode.IsDigit(r):
			buf.WriteRune(r)

		default:
			flush()
			toks = append(toks, string(r))
		}
	}

	flush()
	return toks
}

// CountTokens returns the number of tokens in the text.
func (t *SimpleTokenizer) CountTokens(text string) int {
	return len(t.splitTokens(text))
}
