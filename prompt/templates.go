package prompt

// Mode identifies a transformation style applied to retrieved legal text.
type Mode string

const (
	ModePlainEnglish Mode = "plain-english"
	ModeExecutive    Mode = "executive"
	ModeBulletPoints Mode = "bullet-points"
	ModeTechnical    Mode = "technical"
	ModeRiskAnalysis Mode = "risk-analysis"
	ModeComparison   Mode = "comparison"
)

// Modes returns every supported transformation mode.
func Modes() []Mode {
	return []Mode{
		ModePlainEnglish,
		ModeExecutive,
		ModeBulletPoints,
		ModeTechnical,
		ModeRiskAnalysis,
		ModeComparison,
	}
}

// Valid reports whether m names a registered mode.
func (m Mode) Valid() bool {
	for _, known := range Modes() {
		if m == known {
			return true
		}
	}
	return false
}

// Template names beyond the per-mode instructions.
const (
	TemplateFoldSummary = "fold-summary"
	TemplateRouter      = "router"
	TemplateAnswer      = "answer"
)

const basePrompt = `You are a legal expert helping non-lawyers understand legal documents.
Stay strictly faithful to the text provided; do not invent terms that are not present.

Legal text to analyze:
{{.Text}}
{{if .Context}}
Conversation context:
{{.Context}}
{{end}}`

var modeInstructions = map[Mode]string{
	ModePlainEnglish: `
Explain this text in simple, everyday language:
1. Avoid legal jargon, or explain it when unavoidable
2. Highlight the points that matter to someone without legal training
3. Explain the practical implications
4. Finish with a short list of key points to remember
{{if .Focus}}Pay particular attention to aspects related to "{{.Focus}}".{{end}}`,

	ModeExecutive: `
Provide an executive summary:
1. Focus on business implications and financial impact
2. Identify the key decision points
3. Close with action items or considerations
{{if .Focus}}Pay particular attention to aspects related to "{{.Focus}}".{{end}}`,

	ModeBulletPoints: `
Produce a bullet-point summary:
1. Break the text into short, digestible points
2. Group points under clear categories
3. Lead with the most important elements
{{if .Focus}}Pay particular attention to aspects related to "{{.Focus}}".{{end}}`,

	ModeTechnical: `
Provide a technical legal analysis:
1. Keep legal precision while improving clarity
2. Explain the legal mechanics at work
3. Flag ambiguities or potential issues
{{if .Focus}}Pay particular attention to aspects related to "{{.Focus}}".{{end}}`,

	ModeRiskAnalysis: `
Identify the risks, liabilities, and obligations in this text:
1. List potential risks for the reader in plain language
2. Call out financial exposure and penalties
3. List the reader's obligations and the other party's obligations
4. Note deadlines and consequences of non-compliance
5. Suggest how the risks might be mitigated
{{if .Focus}}Pay particular attention to aspects related to "{{.Focus}}".{{end}}`,
}

const comparisonTemplate = `You are a legal expert comparing two sets of clauses for a non-lawyer.
{{if .Aspect}}Comparison focus: {{.Aspect}}{{end}}

FIRST TEXT:
{{.TextA}}

SECOND TEXT:
{{.TextB}}

Provide a plain-language comparison:
1. Summarize what each text means
2. Highlight the key differences
3. Explain which terms might be more favorable and why
4. Note the practical impact of the differences`

const foldSummaryTemplate = `Condense the following conversation excerpt into a short factual summary.
Keep question topics, clause names, and any conclusions that were reached.
Do not add commentary.

{{if .Existing}}Summary so far:
{{.Existing}}

{{end}}Conversation excerpt:
{{.Turns}}

Updated summary:`

const routerTemplate = `You route questions about a legal document to one action.
Conversation context:
{{.Context}}

User message: "{{.Query}}"

Reply with exactly one word:
- "restyle" if the user only wants the previous answer presented differently
- "compare" if the user wants two clauses or concepts compared
- "analyze" if the user asks about risks, obligations, or liability
- "lookup" for any other question about the document`

const answerTemplate = `You are a legal document assistant. Using only the excerpts below, answer the user's question in plain language. Cite nothing that is not in the excerpts; if they do not contain the answer, say so.

Document excerpts:
{{.Text}}
{{if .Context}}
Conversation context:
{{.Context}}
{{end}}
User question: "{{.Query}}"`

// RegisterDefaults installs every built-in template into the manager.
func RegisterDefaults(m *Manager) error {
	for mode, instr := range modeInstructions {
		if err := m.RegisterString(string(mode), basePrompt+instr); err != nil {
			return err
		}
	}
	if err := m.RegisterString(string(ModeComparison), comparisonTemplate); err != nil {
		return err
	}
	if err := m.RegisterString(TemplateFoldSummary, foldSummaryTemplate); err != nil {
		return err
	}
	if err := m.RegisterString(TemplateRouter, routerTemplate); err != nil {
		return err
	}
	return m.RegisterString(TemplateAnswer, answerTemplate)
}

// DefaultManager returns a manager preloaded with the built-in templates.
func DefaultManager() *Manager {
	m := NewManager()
	if err := RegisterDefaults(m); err != nil {
		// Built-in templates are compile-time constants; a parse failure
		// is a programming error.
		panic(err)
	}
	return m
}
