package ingest

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ledongthuc/pdf"
)

// Format identifies the source encoding of an uploaded document.
type Format string

const (
	FormatPDF   Format = "pdf"
	FormatHTML  Format = "html"
	FormatPlain Format = "plain"
)

// DetectFormat sniffs the document format from its leading bytes.
func DetectFormat(content []byte) Format {
	if bytes.HasPrefix(content, []byte("%PDF")) {
		return FormatPDF
	}
	head := strings.ToLower(string(content[:min(len(content), 512)]))
	if strings.Contains(head, "<!doctype html") || strings.Contains(head, "<html") {
		return FormatHTML
	}
	return FormatPlain
}

// ExtractText pulls plain text out of the raw document bytes.
func ExtractText(content []byte) (string, error) {
	switch DetectFormat(content) {
	case FormatPDF:
		return extractPDF(content)
	case FormatHTML:
		return extractHTML(content)
	default:
		return string(content), nil
	}
}

func extractPDF(content []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open PDF: %w", err)
	}
	var buf bytes.Buffer
	numPages := r.NumPage()
	for i := 0; i < numPages; i++ {
		page := r.Page(i + 1)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("extract page %d: %w", i+1, err)
		}
		buf.WriteString(text)
		if i < numPages-1 {
			buf.WriteByte('\n')
		}
	}
	return buf.String(), nil
}

func extractHTML(content []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("parse HTML: %w", err)
	}
	doc.Find("script, style, noscript").Remove()

	var parts []string
	doc.Find("h1, h2, h3, h4, p, li, td, th").Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if text != "" {
			parts = append(parts, text)
		}
	})
	if len(parts) == 0 {
		return strings.TrimSpace(doc.Text()), nil
	}
	return strings.Join(parts, "\n\n"), nil
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
