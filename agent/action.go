package agent

import (
	"fmt"

	"github.com/clauselens/clauselens/prompt"
)

// Action is one step the agent has decided to take. The set of actions is
// closed: the executor switches over these types exhaustively and treats
// anything else as a programming error.
type Action interface {
	actionName() string
}

// RetrieveAction searches the passage store for a query.
type RetrieveAction struct {
	Query string
	// Slot tags the result set so later actions can refer to it
	// (comparisons fill slots "a" and "b").
	Slot string
}

// TransformAction restyles the accumulated passages.
type TransformAction struct {
	Mode  prompt.Mode
	Focus string
	// ReuseCited transforms the previously cited passages instead of the
	// current scratch, for style-only follow-ups.
	ReuseCited bool
}

// CompareAction contrasts the passages gathered in slots "a" and "b".
type CompareAction struct {
	ConceptA string
	ConceptB string
	Aspect   string
}

// RespondAction ends the loop and synthesizes the final answer.
type RespondAction struct{}

func (RetrieveAction) actionName() string  { return "retrieve" }
func (TransformAction) actionName() string { return "transform" }
func (CompareAction) actionName() string   { return "compare" }
func (RespondAction) actionName() string   { return "respond" }

func describe(a Action) string {
	switch act := a.(type) {
	case RetrieveAction:
		return fmt.Sprintf("retrieve(%q)", act.Query)
	case TransformAction:
		return fmt.Sprintf("transform(%s)", act.Mode)
	case CompareAction:
		return fmt.Sprintf("compare(%q, %q)", act.ConceptA, act.ConceptB)
	case RespondAction:
		return "respond"
	default:
		return "unknown"
	}
}
