package extract

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/poiesic/answerit/core"
)

const phrasePunctuation = ".,!?;:'\"-()[]{}"

// Stop words excluded from capitalized-phrase scanning. Sentence-initial
// words like "The" would otherwise show up as entities.
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true,
}

// HeuristicStage extracts entities by scanning for runs of capitalized
// words. It knows nothing about entity categories, so everything it finds
// is typed "concept". Fast and dependency-free, it handles the common case
// of proper nouns in English text.
type HeuristicStage struct{}

var _ Stage = (*HeuristicStage)(nil)

// NewHeuristicStage creates the capitalized-phrase stage.
func NewHeuristicStage() *HeuristicStage {
	return &HeuristicStage{}
}

// Name identifies the stage in logs.
func (s *HeuristicStage) Name() string {
	return "heuristic"
}

// Run scans the text for capitalized phrases. Consecutive capitalized words
// form one entity; punctuation and lowercase words close the current
// phrase. Names shorter than two characters and duplicates are dropped.
func (s *HeuristicStage) Run(_ context.Context, text string) ([]core.Entity, error) {
	entities := make([]core.Entity, 0)
	seen := make(map[string]bool)
	var phrase []string

	flush := func() {
		if len(phrase) == 0 {
			return
		}
		name := strings.Join(phrase, " ")
		phrase = phrase[:0]

		if utf8.RuneCountInString(name) < 2 || seen[name] {
			return
		}
		seen[name] = true
		entities = append(entities, core.Entity{Name: name, Type: "concept"})
	}

	for _, word := range strings.Fields(text) {
		cleaned := strings.Trim(word, phrasePunctuation)
		if cleaned == "" || !startsUpper(cleaned) || stopWords[strings.ToLower(cleaned)] {
			flush()
			continue
		}

		phrase = append(phrase, cleaned)

		// Trailing punctuation ends the phrase even when the next word
		// is capitalized.
		if strings.TrimRight(word, phrasePunctuation) != word {
			flush()
		}
	}
	flush()

	return entities, nil
}

// startsUpper reports whether the first rune of s is an uppercase letter.
func startsUpper(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsUpper(r)
}
