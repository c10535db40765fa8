// Package agent implements the bounded reasoning loop that turns a user
// message into an answer grounded in the indexed document. Each turn is
// routed to a short plan of actions, executed step by step under a hard
// step limit, and committed to conversation memory only once the answer
// is final.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/clauselens/clauselens/document"
	cerrors "github.com/clauselens/clauselens/errors"
	"github.com/clauselens/clauselens/memory"
	"github.com/clauselens/clauselens/prompt"
	"github.com/clauselens/clauselens/tool"
)

const (
	defaultMaxSteps      = 6
	defaultContextBudget = 1500
)

const noDocumentGuidance = "I don't have a document loaded yet. Upload a contract or agreement first, then ask me about its clauses -- for example \"what does the termination clause say?\""

// Agent runs the reasoning loop for one session. It is not safe for
// concurrent Run calls; the session serialises turns.
type Agent struct {
	tools         *tool.Toolset
	state         *memory.State
	logger        *slog.Logger
	maxSteps      int
	contextBudget int
}

// Option configures an Agent.
type Option func(*Agent)

// WithMaxSteps caps the number of actions executed per turn.
func WithMaxSteps(n int) Option {
	return func(a *Agent) {
		if n > 0 {
			a.maxSteps = n
		}
	}
}

// WithContextBudget sets the token budget for conversation context passed
// to the generator.
func WithContextBudget(tokens int) Option {
	return func(a *Agent) {
		if tokens > 0 {
			a.contextBudget = tokens
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Agent) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// New creates an agent over a toolset and a conversation state.
func New(tools *tool.Toolset, state *memory.State, opts ...Option) *Agent {
	a := &Agent{
		tools:         tools,
		state:         state,
		logger:        slog.Default(),
		maxSteps:      defaultMaxSteps,
		contextBudget: defaultContextBudget,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Result is the outcome of one turn.
type Result struct {
	Answer          string   `json:"answer"`
	CitedPassageIDs []string `json:"cited_passage_ids,omitempty"`
	StyleUsed       string   `json:"style_used,omitempty"`
	Partial         bool     `json:"partial,omitempty"`
	Steps           int      `json:"steps"`
	Suggestions     []string `json:"suggestions,omitempty"`
}

// scratch accumulates observations across the steps of one turn.
type scratch struct {
	passages map[string]document.Passage
	order    []string
	slots    map[string][]document.Scored
	draft    string
	style    string
	// reused is set when citations come from the previous answer instead
	// of fresh retrieval.
	reused map[string]bool
}

func newScratch() *scratch {
	return &scratch{
		passages: make(map[string]document.Passage),
		slots:    make(map[string][]document.Scored),
	}
}

func (s *scratch) addResults(slot string, results []document.Scored) {
	for _, r := range results {
		if _, seen := s.passages[r.Passage.ID]; !seen {
			s.passages[r.Passage.ID] = r.Passage
			s.order = append(s.order, r.Passage.ID)
		}
	}
	if slot != "" {
		s.slots[slot] = results
	}
}

func (s *scratch) excerpts() string {
	var b strings.Builder
	for i, id := range s.order {
		if i > 0 {
			b.WriteString("\n\n")
		}
		p := s.passages[id]
		fmt.Fprintf(&b, "[%s] %s", p.ID, p.Text)
	}
	return b.String()
}

func slotText(results []document.Scored) string {
	parts := make([]string, len(results))
	for i, r := range results {
		parts[i] = r.Passage.Text
	}
	return strings.Join(parts, "\n\n")
}

// Run executes one conversational turn. It never surfaces a generation
// failure as an error: degraded answers carry verbatim excerpts instead.
func (a *Agent) Run(ctx context.Context, userMsg string) (*Result, error) {
	if strings.TrimSpace(userMsg) == "" {
		return nil, cerrors.ErrInvalidInput
	}

	p := a.decide(ctx, userMsg)
	a.logger.Debug("turn routed", "intent", p.intent, "planned_actions", len(p.actions))

	sc := newScratch()
	steps := 0
	partial := false

	for _, action := range p.actions {
		if steps >= a.maxSteps {
			partial = true
			a.logger.Warn("step limit reached, answering with what was gathered",
				"max_steps", a.maxSteps, "intent", p.intent)
			break
		}
		steps++
		a.logger.Debug("executing action", "step", steps, "action", describe(action))

		done, err := a.execute(ctx, userMsg, action, sc)
		if err != nil {
			if errors.Is(err, cerrors.ErrEmptyIndex) {
				return a.finish(ctx, userMsg, &Result{
					Answer: noDocumentGuidance,
					Steps:  steps,
				}, nil)
			}
			return nil, err
		}
		if done {
			break
		}
	}

	// No draft means the plan ended on raw retrieval (or the step limit
	// cut it short): synthesize directly from the excerpts.
	if sc.draft == "" {
		if len(sc.passages) == 0 {
			sc.draft = "I couldn't find anything in the document relevant to that. Try asking about a specific clause, like payment or termination."
		} else {
			answer, err := a.generateWithRetry(ctx, func() (string, error) {
				return a.tools.Answer(ctx, userMsg, sc.excerpts(), a.state.RecentContext(a.contextBudget))
			})
			if err != nil {
				a.logger.Warn("answer synthesis failed, returning excerpts verbatim", "error", err)
				sc.draft = verbatimFallback(sc.excerpts())
			} else {
				sc.draft = answer
			}
		}
	}

	result := &Result{
		Answer:    sc.draft,
		StyleUsed: sc.style,
		Partial:   partial,
		Steps:     steps,
	}
	result.CitedPassageIDs = sc.citations()
	result.Suggestions = a.suggest(userMsg)

	return a.finish(ctx, userMsg, result, nil)
}

func (s *scratch) citations() []string {
	set := s.reused
	if set == nil {
		set = make(map[string]bool, len(s.passages))
		for id := range s.passages {
			set[id] = true
		}
	}
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// execute runs one action against the toolset. It returns done=true when
// the action produced a final draft that ends the plan early.
func (a *Agent) execute(ctx context.Context, userMsg string, action Action, sc *scratch) (bool, error) {
	switch act := action.(type) {
	case RetrieveAction:
		results, err := a.tools.Retrieve(ctx, act.Query)
		if err != nil {
			if errors.Is(err, cerrors.ErrEmptyIndex) {
				return false, err
			}
			a.logger.Warn("retrieval failed", "query", act.Query, "error", err)
			return false, err
		}
		sc.addResults(act.Slot, results)
		return false, nil

	case TransformAction:
		source := sc.excerpts()
		if act.ReuseCited || source == "" {
			source = a.state.LastAssistantText()
			sc.reused = a.state.LastCitedPassages()
		}
		if strings.TrimSpace(source) == "" {
			// Nothing to restyle; fall through to synthesis.
			return false, nil
		}
		out, err := a.generateWithRetry(ctx, func() (string, error) {
			return a.tools.Transform(ctx, source, act.Mode, act.Focus, a.state.RecentContext(a.contextBudget))
		})
		if err != nil {
			a.logger.Warn("transform failed twice, returning source verbatim",
				"mode", act.Mode, "error", err)
			sc.draft = verbatimFallback(source)
			return true, nil
		}
		sc.draft = out
		sc.style = string(act.Mode)
		return false, nil

	case CompareAction:
		textA := slotText(sc.slots["a"])
		textB := slotText(sc.slots["b"])
		if textA == "" || textB == "" {
			a.logger.Debug("comparison missing material, falling back to synthesis",
				"concept_a", act.ConceptA, "concept_b", act.ConceptB)
			return false, nil
		}
		out, err := a.generateWithRetry(ctx, func() (string, error) {
			return a.tools.Compare(ctx, textA, textB, act.Aspect)
		})
		if err != nil {
			a.logger.Warn("comparison failed twice, returning excerpts verbatim", "error", err)
			sc.draft = verbatimFallback(sc.excerpts())
			return true, nil
		}
		sc.draft = out
		sc.style = string(prompt.ModeComparison)
		return false, nil

	case RespondAction:
		return true, nil

	default:
		return false, fmt.Errorf("unknown action type %T", action)
	}
}

// generateWithRetry applies the uniform degradation policy: retry a
// generation failure exactly once, then give up.
func (a *Agent) generateWithRetry(ctx context.Context, fn func() (string, error)) (string, error) {
	out, err := fn()
	if err == nil {
		return out, nil
	}
	if !cerrors.IsGeneration(err) {
		return "", err
	}
	a.logger.Debug("generation failed, retrying once", "error", err)
	return fn()
}

func verbatimFallback(excerpts string) string {
	return "I couldn't rephrase this right now, so here is the relevant text from the document:\n\n" + excerpts
}

// finish appends both turns of the exchange to memory and returns the
// result. The exchange is committed as a unit; a failed turn leaves memory
// untouched.
func (a *Agent) finish(ctx context.Context, userMsg string, result *Result, err error) (*Result, error) {
	if err != nil {
		return nil, err
	}

	topics := document.DetectClauses(strings.ToLower(userMsg))
	a.state.Append(ctx, memory.Turn{
		Role:   memory.RoleUser,
		Text:   userMsg,
		Topics: topics,
	})
	a.state.Append(ctx, memory.Turn{
		Role:            memory.RoleAssistant,
		Text:            result.Answer,
		CitedPassageIDs: result.CitedPassageIDs,
		StyleUsed:       result.StyleUsed,
	})
	return result, nil
}
