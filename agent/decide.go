package agent

import (
	"context"
	"sort"
	"strings"

	"github.com/clauselens/clauselens/document"
	"github.com/clauselens/clauselens/prompt"
)

// The router is rule-first: deterministic trigger matching decides the plan
// for the common phrasings, and only messages no rule claims are sent to the
// classifier. When several triggers match, the longest match wins.

// styleTriggers maps restyle phrasings to the mode they request.
var styleTriggers = map[string]prompt.Mode{
	"simpler":                prompt.ModePlainEnglish,
	"simplify":               prompt.ModePlainEnglish,
	"plain english":          prompt.ModePlainEnglish,
	"in plain english":       prompt.ModePlainEnglish,
	"explain it simply":      prompt.ModePlainEnglish,
	"less technical":         prompt.ModePlainEnglish,
	"bullet points":          prompt.ModeBulletPoints,
	"as bullets":             prompt.ModeBulletPoints,
	"bullet form":            prompt.ModeBulletPoints,
	"as a list":              prompt.ModeBulletPoints,
	"shorter":                prompt.ModeExecutive,
	"summarize that":         prompt.ModeExecutive,
	"executive summary":      prompt.ModeExecutive,
	"for an executive":       prompt.ModeExecutive,
	"for management":         prompt.ModeExecutive,
	"more technical":         prompt.ModeTechnical,
	"more detail":            prompt.ModeTechnical,
	"the legal details":      prompt.ModeTechnical,
	"say that differently":   prompt.ModePlainEnglish,
	"rephrase":               prompt.ModePlainEnglish,
	"explain that again":     prompt.ModePlainEnglish,
}

// compareTriggers signal that the user wants two concepts contrasted.
var compareTriggers = []string{
	"compare",
	"difference between",
	"differences between",
	"how does it differ",
	"versus",
	" vs ",
	" vs. ",
	"which is better",
	"side by side",
}

// analyticalTriggers signal risk, obligation, or liability questions.
var analyticalTriggers = []string{
	"risk",
	"risks",
	"risky",
	"what could go wrong",
	"obligation",
	"obligations",
	"what do i have to do",
	"what am i required to",
	"liabilit",
	"liable",
	"exposure",
	"penalt",
	"worst case",
	"dangerous",
	"concerns",
}

// plan is the ordered set of actions decided for one user turn.
type plan struct {
	actions []Action
	// intent records which route produced the plan, for logging.
	intent string
}

// decide routes the user message to a plan. It consumes the conversation
// state read-only; all matching is case-insensitive.
func (a *Agent) decide(ctx context.Context, userMsg string) plan {
	msg := strings.ToLower(strings.TrimSpace(userMsg))

	// Rule 1: style-only follow-up. Applies only when a previous answer
	// left passages to restyle; otherwise the trigger word is treated as
	// part of a fresh question.
	if mode, matched := matchStyleTrigger(msg); matched {
		if len(a.state.LastCitedPassages()) > 0 {
			return plan{
				intent:  "restyle",
				actions: []Action{TransformAction{Mode: mode, ReuseCited: true}},
			}
		}
	}

	// Rule 2: comparison of exactly two recognizable concepts.
	if matchAny(msg, compareTriggers) {
		if concepts := document.DetectClauses(msg); len(concepts) >= 2 {
			return comparePlan(concepts[0], concepts[1])
		}
	}

	// Rule 3: analytical question about risks or obligations.
	if matchAny(msg, analyticalTriggers) {
		return a.analyzePlan(userMsg)
	}

	// No rule claimed the message: let the classifier pick a route, then
	// fall back to plain lookup if it cannot.
	return a.classify(ctx, userMsg, msg)
}

// classify asks the generator for a one-word route for messages no rule
// matched. Classifier failure degrades to lookup, never to an error.
func (a *Agent) classify(ctx context.Context, userMsg, lowered string) plan {
	intent, err := a.tools.Classify(ctx, userMsg, a.state.RecentContext(a.contextBudget))
	if err != nil {
		a.logger.Debug("intent classifier unavailable, defaulting to lookup", "error", err)
		return a.lookupPlan(userMsg)
	}

	switch {
	case strings.Contains(intent, "restyle"):
		if len(a.state.LastCitedPassages()) > 0 {
			mode := prompt.ModePlainEnglish
			if preferred := a.state.PreferredStyle(); prompt.Mode(preferred).Valid() {
				mode = prompt.Mode(preferred)
			}
			return plan{
				intent:  "restyle",
				actions: []Action{TransformAction{Mode: mode, ReuseCited: true}},
			}
		}
		return a.lookupPlan(userMsg)
	case strings.Contains(intent, "compare"):
		if concepts := document.DetectClauses(lowered); len(concepts) >= 2 {
			return comparePlan(concepts[0], concepts[1])
		}
		return a.lookupPlan(userMsg)
	case strings.Contains(intent, "analyze"):
		return a.analyzePlan(userMsg)
	default:
		return a.lookupPlan(userMsg)
	}
}

func comparePlan(conceptA, conceptB string) plan {
	return plan{
		intent: "compare",
		actions: []Action{
			RetrieveAction{Query: conceptA, Slot: "a"},
			RetrieveAction{Query: conceptB, Slot: "b"},
			CompareAction{ConceptA: conceptA, ConceptB: conceptB, Aspect: conceptA + " vs " + conceptB},
		},
	}
}

func (a *Agent) analyzePlan(userMsg string) plan {
	query := userMsg
	focus := ""
	if concepts := document.DetectClauses(strings.ToLower(userMsg)); len(concepts) > 0 {
		focus = concepts[0]
		query = strings.Join(document.ExpandConcept(concepts[0]), " ")
	}
	return plan{
		intent: "analyze",
		actions: []Action{
			RetrieveAction{Query: query},
			TransformAction{Mode: prompt.ModeRiskAnalysis, Focus: focus},
		},
	}
}

func (a *Agent) lookupPlan(userMsg string) plan {
	mode := prompt.ModePlainEnglish
	if preferred := a.state.PreferredStyle(); prompt.Mode(preferred).Valid() {
		mode = prompt.Mode(preferred)
	}
	focus := ""
	if concepts := document.DetectClauses(strings.ToLower(userMsg)); len(concepts) > 0 {
		focus = concepts[0]
	}
	return plan{
		intent: "lookup",
		actions: []Action{
			RetrieveAction{Query: userMsg},
			TransformAction{Mode: mode, Focus: focus},
		},
	}
}

// matchStyleTrigger returns the mode of the longest style trigger contained
// in the message. Longest match wins so "more technical" beats "more".
func matchStyleTrigger(msg string) (prompt.Mode, bool) {
	triggers := make([]string, 0, len(styleTriggers))
	for trigger := range styleTriggers {
		triggers = append(triggers, trigger)
	}
	sort.Slice(triggers, func(i, j int) bool {
		if len(triggers[i]) != len(triggers[j]) {
			return len(triggers[i]) > len(triggers[j])
		}
		return triggers[i] < triggers[j]
	})

	for _, trigger := range triggers {
		if strings.Contains(msg, trigger) {
			return styleTriggers[trigger], true
		}
	}
	return "", false
}

func matchAny(msg string, triggers []string) bool {
	for _, trigger := range triggers {
		if strings.Contains(msg, trigger) {
			return true
		}
	}
	return false
}
