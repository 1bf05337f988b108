package pipeline

import (
	"fmt"
	"strings"

	"github.com/poiesic/answerit/core"
)

// contextText returns the text a hit contributes to the prompt. Hybrid hits
// contribute their enriched block, plain hits the raw chunk text.
func contextText(result *core.ChunkResult) string {
	if result.EnrichedText != "" {
		return result.EnrichedText
	}
	return result.Text
}

// buildPrompt assembles the generation prompt: an instruction line, the
// numbered context blocks separated by blank lines, then the question.
func buildPrompt(question string, context []*core.ChunkResult) string {
	var b strings.Builder

	b.WriteString("Answer the question based on the context. Be brief and accurate.\n\n")
	b.WriteString("Context:\n")
	for i, result := range context {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "Source %d:\n%s", i+1, contextText(result))
	}
	b.WriteString("\n\nQuestion: ")
	b.WriteString(question)
	b.WriteString("\n\nAnswer:")

	return b.String()
}
