package extract

import (
	"context"

	"github.com/poiesic/answerit/ai"
	"github.com/poiesic/answerit/core"
)

// LLMStage extracts entities with a language model. Slower and costlier
// than the heuristic, it is meant to run as the fallback stage.
type LLMStage struct {
	extractor ai.EntityExtractor
}

var _ Stage = (*LLMStage)(nil)

// NewLLMStage creates an extraction stage over the given extractor.
func NewLLMStage(extractor ai.EntityExtractor) *LLMStage {
	return &LLMStage{extractor: extractor}
}

// Name identifies the stage in logs.
func (s *LLMStage) Name() string {
	return "llm"
}

// Run delegates to the underlying extractor.
func (s *LLMStage) Run(ctx context.Context, text string) ([]core.Entity, error) {
	return s.extractor.ExtractEntities(ctx, text)
}
