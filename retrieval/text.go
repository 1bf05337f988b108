package retrieval

import (
	"strings"

	"github.com/poiesic/answerit/core"
)

// buildEnrichedText combines a chunk with its surrounding passages into a
// single block of prompt text. Blocks are separated by blank lines; a
// missing neighbor omits its block.
func buildEnrichedText(text string, neighbors *core.Neighbors) string {
	var b strings.Builder

	if neighbors.Previous != nil {
		b.WriteString("[Previous]: ")
		b.WriteString(neighbors.Previous.Text)
		b.WriteString("\n\n")
	}
	b.WriteString("[Main]: ")
	b.WriteString(text)
	if neighbors.Next != nil {
		b.WriteString("\n\n[Next]: ")
		b.WriteString(neighbors.Next.Text)
	}

	return b.String()
}
