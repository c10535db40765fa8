// Package memory holds per-session conversation state: an ordered turn
// history bounded by a token budget, with older turns folded into a rolling
// summary rather than dropped silently.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/clauselens/clauselens/tokenizer"
)

// Role identifies the author of a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one utterance in the conversation. Immutable once appended.
type Turn struct {
	ID              int64     `json:"id"`
	Role            Role      `json:"role"`
	Text            string    `json:"text"`
	CitedPassageIDs []string  `json:"cited_passage_ids,omitempty"`
	StyleUsed       string    `json:"style_used,omitempty"`
	Topics          []string  `json:"topics,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// presentationStyles are the styles that express how the user wants answers
// presented. Analytical styles (risk-analysis, comparison) are per-question
// and never become the standing preference.
var presentationStyles = map[string]bool{
	"plain-english": true,
	"executive":     true,
	"bullet-points": true,
	"technical":     true,
}

// SummarizeFunc folds conversation text into a rolling summary. It is
// typically backed by the generation capability; failures degrade the fold
// to plain truncation.
type SummarizeFunc func(ctx context.Context, existing, turns string) (string, error)

// State is the conversation memory of one session. All methods are safe
// for concurrent use; a session serialises its turns anyway.
type State struct {
	mu             sync.Mutex
	turns          []Turn
	summary        string
	nextID         int64
	budget         int
	tok            tokenizer.Tokenizer
	summarize      SummarizeFunc
	preferredStyle string
	topics         map[string]bool
}

// Option configures a State.
type Option func(*State)

// WithBudget sets the token budget for retained raw turns.
func WithBudget(tokens int) Option {
	return func(s *State) {
		if tokens > 0 {
			s.budget = tokens
		}
	}
}

// WithTokenizer sets the tokenizer used for budget accounting.
func WithTokenizer(tok tokenizer.Tokenizer) Option {
	return func(s *State) {
		if tok != nil {
			s.tok = tok
		}
	}
}

// WithSummarizer sets the fold function. Without one, folds degrade to
// truncation.
func WithSummarizer(fn SummarizeFunc) Option {
	return func(s *State) {
		s.summarize = fn
	}
}

// NewState creates an empty conversation memory.
func NewState(opts ...Option) *State {
	s := &State{
		budget: 4000,
		tok:    tokenizer.NewSimpleTokenizer(),
		topics: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Append records a turn, assigning it the next monotonic ID, and folds
// the oldest turns into the rolling summary if the budget is exceeded.
// Append never fails: a failed summarization falls back to truncation.
func (s *State) Append(ctx context.Context, turn Turn) Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	turn.ID = s.nextID
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now()
	}
	turn.CitedPassageIDs = normalizeSet(turn.CitedPassageIDs)
	s.turns = append(s.turns, turn)

	for _, topic := range turn.Topics {
		s.topics[topic] = true
	}
	if turn.Role == RoleAssistant && presentationStyles[turn.StyleUsed] {
		s.preferredStyle = turn.StyleUsed
	}

	s.foldLocked(ctx)
	return turn
}

// foldLocked enforces the budget invariant: while the raw turns exceed the
// budget, the oldest half is folded into the summary (or truncated when
// summarization is unavailable). At least one raw turn is always retained.
func (s *State) foldLocked(ctx context.Context) {
	for s.rawTokensLocked() > s.budget && len(s.turns) > 1 {
		cut := len(s.turns) / 2
		if cut == 0 {
			cut = 1
		}
		oldest := s.turns[:cut]
		s.turns = append([]Turn(nil), s.turns[cut:]...)

		if s.summarize == nil {
			continue // truncate
		}
		folded, err := s.summarize(ctx, s.summary, renderTurns(oldest))
		if err != nil || strings.TrimSpace(folded) == "" {
			continue // degrade to truncation, never block
		}
		s.summary = strings.TrimSpace(folded)
	}
}

func (s *State) rawTokensLocked() int {
	total := 0
	for _, t := range s.turns {
		total += s.tok.CountTokens(t.Text)
	}
	return total
}

// RecentContext returns the rolling summary followed by the most recent
// turns that fit within maxTokens, most recent last. Deterministic for a
// given state.
func (s *State) RecentContext(maxTokens int) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var parts []string
	remaining := maxTokens

	if s.summary != "" {
		line := "Earlier in this conversation: " + s.summary
		cost := s.tok.CountTokens(line)
		if cost <= remaining {
			parts = append(parts, line)
			remaining -= cost
		}
	}

	// Walk newest → oldest, keep what fits, then restore order.
	var kept []string
	for i := len(s.turns) - 1; i >= 0; i-- {
		line := renderTurn(s.turns[i])
		cost := s.tok.CountTokens(line)
		if cost > remaining {
			break
		}
		kept = append(kept, line)
		remaining -= cost
	}
	for i := len(kept) - 1; i >= 0; i-- {
		parts = append(parts, kept[i])
	}
	return strings.Join(parts, "\n")
}

// LastCitedPassages returns the citations of the most recent assistant
// turn, or an empty set. Folded turns no longer count: their passages are
// not available for style-only reuse.
func (s *State) LastCitedPassages() map[string]bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := len(s.turns) - 1; i >= 0; i-- {
		if s.turns[i].Role != RoleAssistant {
			continue
		}
		set := make(map[string]bool, len(s.turns[i].CitedPassageIDs))
		for _, id := range s.turns[i].CitedPassageIDs {
			set[id] = true
		}
		return set
	}
	return map[string]bool{}
}

// LastAssistantText returns the text of the most recent assistant turn.
func (s *State) LastAssistantText() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := len(s.turns) - 1; i >= 0; i-- {
		if s.turns[i].Role == RoleAssistant {
			return s.turns[i].Text
		}
	}
	return ""
}

// PreferredStyle returns the style most recently used for the user, or ""
// when none has been established.
func (s *State) PreferredStyle() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.preferredStyle
}

// TopicsSeen returns the set of clause topics touched this session.
func (s *State) TopicsSeen() map[string]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]bool, len(s.topics))
	for k, v := range s.topics {
		out[k] = v
	}
	return out
}

// Turns returns a copy of the retained raw turns in conversational order.
func (s *State) Turns() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Len returns the number of retained raw turns.
func (s *State) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.turns)
}

func renderTurns(turns []Turn) string {
	lines := make([]string, len(turns))
	for i, t := range turns {
		lines[i] = renderTurn(t)
	}
	return strings.Join(lines, "\n")
}

func renderTurn(t Turn) string {
	switch t.Role {
	case RoleUser:
		return fmt.Sprintf("User: %s", t.Text)
	default:
		return fmt.Sprintf("Assistant: %s", t.Text)
	}
}

func normalizeSet(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
