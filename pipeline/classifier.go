package pipeline

import (
	"strings"

	"github.com/poiesic/answerit/core"
)

// Classifier decides which retrieval route a question takes.
type Classifier interface {
	Classify(question string) core.SearchType
}

// DefaultDefinitionalPhrases is the phrase list the default classifier
// matches against. A question containing any of them is treated as
// definitional and routed to plain vector search; everything else takes
// the hybrid route. Deployments in other languages supply their own list.
var DefaultDefinitionalPhrases = []string{
	"what is",
	"what are",
	"define",
	"explain",
	"tell me about",
}

// PhraseClassifier routes questions by case-insensitive substring match
// against a fixed phrase list. It is configuration data, not a model.
type PhraseClassifier struct {
	phrases []string
}

var _ Classifier = (*PhraseClassifier)(nil)

// NewPhraseClassifier creates a classifier for the given phrases.
// With no phrases it uses DefaultDefinitionalPhrases.
func NewPhraseClassifier(phrases ...string) *PhraseClassifier {
	if len(phrases) == 0 {
		phrases = DefaultDefinitionalPhrases
	}
	return &PhraseClassifier{phrases: phrases}
}

// Classify returns the search type for the question.
func (c *PhraseClassifier) Classify(question string) core.SearchType {
	lowered := strings.ToLower(question)
	for _, phrase := range c.phrases {
		if strings.Contains(lowered, phrase) {
			return core.SearchTypeVector
		}
	}
	return core.SearchTypeHybrid
}
