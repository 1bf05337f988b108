package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/answerit/ai"
	"github.com/poiesic/answerit/cache"
	"github.com/poiesic/answerit/core"
	"github.com/poiesic/answerit/retrieval"
)

// DefaultTopK is the number of passages retrieved per question when the
// caller does not ask for a specific count.
const DefaultTopK = 3

// Engine answers questions by running them through the retrieval pipeline,
// with a semantic answer cache consulted first.
type Engine struct {
	retriever  *retrieval.Retriever
	embedder   ai.Embedder
	generator  ai.Generator
	cache      cache.Cache
	classifier Classifier
	topK       int
	logger     *slog.Logger
	handlers   map[State]stateHandler
}

// Option configures an Engine.
type Option func(*Engine) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// WithClassifier sets the routing classifier.
// Default is NewPhraseClassifier() with the English definitional phrases.
func WithClassifier(classifier Classifier) Option {
	return func(e *Engine) error {
		if classifier == nil {
			classifier = NewPhraseClassifier()
		}
		e.classifier = classifier
		return nil
	}
}

// WithTopK sets the default passage count per question.
// Values below 1 keep DefaultTopK.
func WithTopK(topK int) Option {
	return func(e *Engine) error {
		if topK > 0 {
			e.topK = topK
		}
		return nil
	}
}

// NewEngine creates a new answer engine.
// Cache-disabled deployments pass cache.NewNoopCache().
func NewEngine(
	retriever *retrieval.Retriever,
	provider ai.AIProvider,
	answerCache cache.Cache,
	opts ...Option,
) (*Engine, error) {
	if retriever == nil {
		return nil, ErrRetrieverRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}
	if answerCache == nil {
		return nil, ErrCacheRequired
	}

	e := &Engine{
		retriever:  retriever,
		embedder:   provider.Embedder(),
		generator:  provider.Generator(),
		cache:      answerCache,
		classifier: NewPhraseClassifier(),
		topK:       DefaultTopK,
		logger:     slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	e.handlers = map[State]stateHandler{
		StateRoute:    e.handleRoute,
		StateVector:   e.handleVector,
		StateHybrid:   e.handleHybrid,
		StateGenerate: e.handleGenerate,
	}

	return e, nil
}

// Ask answers a question. The answer cache is consulted strictly before the
// state machine runs; the question is embedded once and the same embedding
// serves both the cache lookup and, after a successful generation, the
// cache write. Retrieval and generation failures surface to the caller and
// leave the cache untouched.
func (e *Engine) Ask(ctx context.Context, question string, topK int) (*core.CachedResult, error) {
	if topK <= 0 {
		topK = e.topK
	}

	embedding, err := e.embedder.EmbedText(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRetrievalFailed, err)
	}

	if hit := e.cache.Get(ctx, question, embedding); hit != nil {
		hit.Steps = append(hit.Steps, "retrieved from cache")
		return hit, nil
	}

	qs := &queryState{question: question, topK: topK}
	if err := e.run(ctx, qs); err != nil {
		return nil, err
	}

	result := qs.result()
	e.cache.Put(ctx, embedding, result)

	return &core.CachedResult{QueryResult: *result}, nil
}

// AskUncached answers a question without consulting or writing the answer
// cache. Callers that want a guaranteed fresh answer use this.
func (e *Engine) AskUncached(ctx context.Context, question string, topK int) (*core.CachedResult, error) {
	if topK <= 0 {
		topK = e.topK
	}

	qs := &queryState{question: question, topK: topK}
	if err := e.run(ctx, qs); err != nil {
		return nil, err
	}

	return &core.CachedResult{QueryResult: *qs.result()}, nil
}

// BatchItem is the outcome of one question in a batch run.
type BatchItem struct {
	Question string
	Result   *core.QueryResult
	Err      error
}

// AskBatch answers each question in order by running the retrieval pipeline
// directly; the answer cache is not consulted or written. A failed question
// records its error in place and the batch continues.
func (e *Engine) AskBatch(ctx context.Context, questions []string, topK int) []BatchItem {
	if topK <= 0 {
		topK = e.topK
	}

	items := make([]BatchItem, 0, len(questions))
	for _, question := range questions {
		qs := &queryState{question: question, topK: topK}
		if err := e.run(ctx, qs); err != nil {
			e.logger.Error("batch question failed", "question", question, "err", err)
			items = append(items, BatchItem{Question: question, Err: err})
			continue
		}
		items = append(items, BatchItem{Question: question, Result: qs.result()})
	}

	return items
}
