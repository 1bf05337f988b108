package mock

import (
	"context"
	"strings"
	"unicode"

	"github.com/poiesic/answerit/core"
)

// MockEntityExtractor is a test double for ai.EntityExtractor.
// It allows custom behavior injection via function fields.
type MockEntityExtractor struct {
	// ExtractEntitiesFunc is called by ExtractEntities if set.
	// If nil, uses default capitalized-word extraction.
	ExtractEntitiesFunc func(ctx context.Context, text string) ([]core.Entity, error)

	callCount int
}

// NewMockEntityExtractor creates a mock entity extractor with default behavior.
// Note: Returns concrete type to allow test assertions via GetMockExtractor().
func NewMockEntityExtractor() *MockEntityExtractor {
	return &MockEntityExtractor{}
}

// ExtractEntities extracts simple mock entities from text.
// Default behavior: every capitalized word becomes a "concept" entity,
// capped at 5 and deduplicated.
func (m *MockEntityExtractor) ExtractEntities(ctx context.Context, text string) ([]core.Entity, error) {
	m.callCount++

	if m.ExtractEntitiesFunc != nil {
		return m.ExtractEntitiesFunc(ctx, text)
	}

	seen := make(map[string]bool)
	entities := make([]core.Entity, 0, 5)
	for _, word := range strings.Fields(text) {
		word = strings.Trim(word, ".,!?;:\"'()[]{}")
		runes := []rune(word)
		if len(runes) < 2 || !unicode.IsUpper(runes[0]) {
			continue
		}

		key := strings.ToLower(word)
		if seen[key] {
			continue
		}
		seen[key] = true

		entities = append(entities, core.Entity{Name: word, Type: "concept"})
		if len(entities) == 5 {
			break
		}
	}

	return entities, nil
}

// CallCount returns the number of times ExtractEntities was called.
func (m *MockEntityExtractor) CallCount() int {
	return m.callCount
}

// Reset clears the call count and custom functions.
func (m *MockEntityExtractor) Reset() {
	m.callCount = 0
	m.ExtractEntitiesFunc = nil
}
