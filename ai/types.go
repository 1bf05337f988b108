package ai

// EntityTypes defines the valid categories for extracted entities.
// These types are used by entity extractors to classify what a name refers to.
var EntityTypes = []string{
	"concept",
	"date",
	"event",
	"location",
	"organization",
	"person",
	"product",
	"technology",
}

// ValidEntityType reports whether t is one of the recognized entity types.
func ValidEntityType(t string) bool {
	for _, known := range EntityTypes {
		if t == known {
			return true
		}
	}
	return false
}
