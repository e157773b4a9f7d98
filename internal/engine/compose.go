package engine

import (
	"fmt"
	"strings"

	"github.com/ssism/dhammi/internal/cttm"
	"github.com/ssism/dhammi/internal/store"
)

const (
	contextHeader  = "### RAG Context (CTTM Ledger):"
	questionHeader = "### User Question:"
	groundingNote  = "**Note:** Please use the RAG Context to ground your answer and cite the V-Score if relevant. Be a compassionate, truthful advisor."
)

// FactLine renders one fact as a context bullet.
func FactLine(f cttm.FactRecord) string {
	line := fmt.Sprintf("- Fact (V-Score %.2f): %s.", f.Confidence, f.Text)
	if f.Source != "" {
		line += " [Source: " + f.Source + "]"
	}
	return line
}

// Prompt returns query augmented with the selected facts, or query itself
// when nothing was selected.
func Prompt(query string, selected []cttm.FactRecord) string {
	if len(selected) == 0 {
		return query
	}

	var b strings.Builder
	b.WriteString(contextHeader)
	b.WriteString("\n")
	for i, f := range selected {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(FactLine(f))
	}
	b.WriteString("\n\n\n")
	b.WriteString(questionHeader)
	b.WriteString("\n")
	b.WriteString(query)
	b.WriteString("\n\n")
	b.WriteString(groundingNote)
	return b.String()
}

// Compose builds the augmented prompt and the message list for the
// generator. prior is copied, never modified. When its last turn is the
// user's raw query, that turn carries the augmented prompt instead;
// otherwise the prompt is appended as a new user turn.
func Compose(query string, selected []cttm.FactRecord, prior []store.Turn) (string, []store.Turn) {
	prompt := Prompt(query, selected)

	messages := make([]store.Turn, len(prior), len(prior)+1)
	copy(messages, prior)
	if n := len(messages); n > 0 && messages[n-1].Role == store.RoleUser && messages[n-1].Content == query {
		messages[n-1].Content = prompt
	} else {
		messages = append(messages, store.UserTurn(prompt))
	}
	return prompt, messages
}
