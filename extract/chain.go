package extract

import (
	"context"
	"log/slog"

	"github.com/poiesic/answerit/ai"
	"github.com/poiesic/answerit/core"
)

// Stage is one extraction strategy in a fallback chain.
type Stage interface {
	// Name identifies the stage in logs.
	Name() string

	// Run extracts entities from the text. An empty result is not an
	// error; it hands the text to the next stage.
	Run(ctx context.Context, text string) ([]core.Entity, error)
}

// Chain runs extraction stages in order until one yields entities.
type Chain struct {
	stages []Stage
	logger *slog.Logger
}

// Option configures a Chain.
type Option func(*Chain)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Chain) {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
	}
}

// NewChain creates a chain over the given stages.
func NewChain(stages []Stage, opts ...Option) *Chain {
	c := &Chain{
		stages: stages,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewDefaultChain builds the standard two-stage chain: the capitalized-
// phrase heuristic first, the LLM extractor as fallback.
func NewDefaultChain(extractor ai.EntityExtractor, opts ...Option) *Chain {
	return NewChain([]Stage{NewHeuristicStage(), NewLLMStage(extractor)}, opts...)
}

// Extract returns the first non-empty stage result. A failed stage is
// logged and skipped; an empty result falls through to the next stage.
// Returns an empty slice when no stage produced entities.
func (c *Chain) Extract(ctx context.Context, text string) []core.Entity {
	for _, stage := range c.stages {
		entities, err := stage.Run(ctx, text)
		if err != nil {
			c.logger.Warn("extraction stage failed", "stage", stage.Name(), "err", err)
			continue
		}
		if len(entities) == 0 {
			c.logger.Debug("extraction stage found nothing", "stage", stage.Name())
			continue
		}
		return entities
	}

	return []core.Entity{}
}
