package agent

import (
	"fmt"
	"strings"

	"github.com/clauselens/clauselens/document"
)

const maxSuggestions = 3

// suggest proposes follow-up questions about clause topics the session has
// not explored yet. Deterministic for a given conversation state.
func (a *Agent) suggest(userMsg string) []string {
	seen := a.state.TopicsSeen()
	for _, topic := range document.DetectClauses(strings.ToLower(userMsg)) {
		seen[topic] = true
	}

	var out []string
	for _, concept := range document.SiblingConcepts(seen) {
		out = append(out, fmt.Sprintf("What does the document say about %s?", concept))
		if len(out) == maxSuggestions {
			break
		}
	}
	return out
}
