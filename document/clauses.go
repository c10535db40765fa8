package document

import (
	"sort"
	"strings"
)

// Clause labels recognised by the heuristic tagger.
const (
	ClauseTermination     = "termination"
	ClausePayment         = "payment"
	ClauseLiability       = "liability"
	ClauseConfidentiality = "confidentiality"
	ClauseNotice          = "notice"
	ClauseIndemnification = "indemnification"
	ClauseIP              = "intellectual property"
	ClauseForceMajeure    = "force majeure"
	ClauseGoverningLaw    = "governing law"
)

// clauseVocabulary maps each clause label to the phrases that signal it.
// Order matters for deterministic tagging, so labels are iterated via
// ClauseLabels below.
var clauseVocabulary = map[string][]string{
	ClauseTermination:     {"termination", "terminate", "end contract", "end this agreement"},
	ClausePayment:         {"payment", "fees", "invoice", "pay "},
	ClauseLiability:       {"liability", "liable", "damages"},
	ClauseConfidentiality: {"confidential", "non-disclosure", "nda"},
	ClauseNotice:          {"notice", "notification", "written notice"},
	ClauseIndemnification: {"indemnify", "indemnification"},
	ClauseIP:              {"intellectual property", "copyright", "work product"},
	ClauseForceMajeure:    {"force majeure", "act of god", "beyond their reasonable control"},
	ClauseGoverningLaw:    {"governing law", "governed by", "jurisdiction", "arbitration"},
}

// ClauseLabels returns all recognised labels in a fixed, deterministic order.
func ClauseLabels() []string {
	labels := make([]string, 0, len(clauseVocabulary))
	for label := range clauseVocabulary {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// DetectClause returns the first clause label whose vocabulary matches the
// text, or "" when none matches. Matching is case-insensitive.
func DetectClause(text string) string {
	lower := strings.ToLower(text)
	for _, label := range ClauseLabels() {
		for _, phrase := range clauseVocabulary[label] {
			if strings.Contains(lower, phrase) {
				return label
			}
		}
	}
	return ""
}

// DetectClauses returns every clause label matched in the text, in the
// deterministic label order.
func DetectClauses(text string) []string {
	lower := strings.ToLower(text)
	var found []string
	for _, label := range ClauseLabels() {
		for _, phrase := range clauseVocabulary[label] {
			if strings.Contains(lower, phrase) {
				found = append(found, label)
				break
			}
		}
	}
	return found
}

// ExpandConcept builds query variants for a clause concept. Searching each
// variant widens recall for analytical queries over a single concept.
func ExpandConcept(concept string) []string {
	concept = strings.TrimSpace(strings.ToLower(concept))
	if concept == "" {
		return nil
	}
	return []string{
		concept,
		concept + " clause",
		concept + " provision",
		concept + " terms",
	}
}

// SiblingConcepts returns clause labels not yet present in seen, in
// deterministic order. Used to derive follow-up suggestions.
func SiblingConcepts(seen map[string]bool) []string {
	var out []string
	for _, label := range ClauseLabels() {
		if !seen[label] {
			out = append(out, label)
		}
	}
	return out
}
