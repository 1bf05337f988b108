package openai

import (
	"strings"

	"github.com/poiesic/answerit/ai"
)

// normalizeEntityType canonicalizes a type label returned by the model:
// lowercased, spaces collapsed to underscores, then checked against the
// known entity types. Unrecognized labels fall back to "concept".
func normalizeEntityType(t string) string {
	t = strings.ToLower(strings.TrimSpace(t))
	t = strings.ReplaceAll(t, " ", "_")
	if !ai.ValidEntityType(t) {
		return "concept"
	}
	return t
}
