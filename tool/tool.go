// Package tool exposes the agent's capabilities as stateless operations over
// the passage store and the generation backend. Every call carries its own
// timeout; tools hold no conversation state.
package tool

import (
	"context"
	"strings"
	"time"

	"github.com/clauselens/clauselens/document"
	cerrors "github.com/clauselens/clauselens/errors"
	"github.com/clauselens/clauselens/llm"
	"github.com/clauselens/clauselens/passage"
	"github.com/clauselens/clauselens/pkg/telemetry"
	"github.com/clauselens/clauselens/prompt"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("github.com/clauselens/clauselens/tool")

const (
	defaultTopK    = 4
	defaultTimeout = 60 * time.Second
)

// Toolset bundles the retrieval and transformation capabilities. Safe for
// concurrent use.
type Toolset struct {
	store   passage.Store
	gen     llm.Generator
	prompts *prompt.Manager
	topK    int
	timeout time.Duration
}

// Option configures a Toolset.
type Option func(*Toolset)

// WithTopK sets how many passages Retrieve returns.
func WithTopK(k int) Option {
	return func(t *Toolset) {
		if k > 0 {
			t.topK = k
		}
	}
}

// WithTimeout sets the per-call deadline applied to every tool invocation.
func WithTimeout(d time.Duration) Option {
	return func(t *Toolset) {
		if d > 0 {
			t.timeout = d
		}
	}
}

// WithPromptManager overrides the default prompt templates.
func WithPromptManager(m *prompt.Manager) Option {
	return func(t *Toolset) {
		if m != nil {
			t.prompts = m
		}
	}
}

// New creates a Toolset over a passage store and a generator.
func New(store passage.Store, gen llm.Generator, opts ...Option) *Toolset {
	t := &Toolset{
		store:   store,
		gen:     gen,
		prompts: prompt.DefaultManager(),
		topK:    defaultTopK,
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// TopK returns the configured retrieval depth.
func (t *Toolset) TopK() int { return t.topK }

func (t *Toolset) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, t.timeout)
}

// Retrieve searches the passage store for the query and returns the top
// scored passages.
func (t *Toolset) Retrieve(ctx context.Context, query string) (results []document.Scored, err error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, cerrors.ErrInvalidInput
	}

	ctx, span := tracer.Start(ctx, "tool.Retrieve")
	defer func() { telemetry.End(span, err) }()

	ctx, cancel := t.withDeadline(ctx)
	defer cancel()

	return t.store.Search(ctx, query, t.topK)
}

// Transform rewrites legal text in the requested style. The optional focus
// narrows attention to one aspect (e.g. a clause topic); conversationCtx
// gives the generator the recent exchange for continuity.
func (t *Toolset) Transform(ctx context.Context, text string, mode prompt.Mode, focus, conversationCtx string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", cerrors.ErrInvalidInput
	}
	if !mode.Valid() || mode == prompt.ModeComparison {
		mode = prompt.ModePlainEnglish
	}

	rendered, err := t.prompts.Render(string(mode), map[string]any{
		"Text":    text,
		"Focus":   focus,
		"Context": conversationCtx,
	})
	if err != nil {
		return "", err
	}
	return t.generate(ctx, "tool.Transform", rendered)
}

// Compare explains the differences between two texts, optionally focused on
// one aspect.
func (t *Toolset) Compare(ctx context.Context, textA, textB, aspect string) (string, error) {
	if strings.TrimSpace(textA) == "" || strings.TrimSpace(textB) == "" {
		return "", cerrors.ErrInvalidInput
	}

	rendered, err := t.prompts.Render(string(prompt.ModeComparison), map[string]any{
		"TextA":  textA,
		"TextB":  textB,
		"Aspect": aspect,
	})
	if err != nil {
		return "", err
	}
	return t.generate(ctx, "tool.Compare", rendered)
}

// Answer synthesizes a direct answer to the query from the given excerpts.
func (t *Toolset) Answer(ctx context.Context, query, excerpts, conversationCtx string) (string, error) {
	rendered, err := t.prompts.Render(prompt.TemplateAnswer, map[string]any{
		"Query":   query,
		"Text":    excerpts,
		"Context": conversationCtx,
	})
	if err != nil {
		return "", err
	}
	return t.generate(ctx, "tool.Answer", rendered)
}

// FoldSummary condenses a conversation excerpt into an updated rolling
// summary. It satisfies memory.SummarizeFunc.
func (t *Toolset) FoldSummary(ctx context.Context, existing, turns string) (string, error) {
	rendered, err := t.prompts.Render(prompt.TemplateFoldSummary, map[string]any{
		"Existing": existing,
		"Turns":    turns,
	})
	if err != nil {
		return "", err
	}
	return t.generate(ctx, "tool.FoldSummary", rendered)
}

// Classify asks the generator to route a user message to one intent word.
func (t *Toolset) Classify(ctx context.Context, query, conversationCtx string) (string, error) {
	rendered, err := t.prompts.Render(prompt.TemplateRouter, map[string]any{
		"Query":   query,
		"Context": conversationCtx,
	})
	if err != nil {
		return "", err
	}
	out, err := t.generate(ctx, "tool.Classify", rendered)
	if err != nil {
		return "", err
	}
	return strings.ToLower(strings.TrimSpace(out)), nil
}

func (t *Toolset) generate(ctx context.Context, op, promptText string) (out string, err error) {
	ctx, span := tracer.Start(ctx, op)
	defer func() { telemetry.End(span, err) }()

	ctx, cancel := t.withDeadline(ctx)
	defer cancel()

	out, err = t.gen.Generate(ctx, promptText)
	if err != nil {
		if cerrors.IsGeneration(err) {
			return "", err
		}
		return "", cerrors.NewGenerationError("generator", err)
	}
	return out, nil
}
