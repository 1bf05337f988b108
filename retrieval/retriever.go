package retrieval

import (
	"context"
	"log/slog"

	"github.com/poiesic/answerit/ai"
	"github.com/poiesic/answerit/core"
	"github.com/poiesic/answerit/storage"
)

// Retriever provides vector and hybrid retrieval over document chunks.
type Retriever struct {
	chunkRepository storage.ChunkRepository
	embedder        ai.Embedder
	logger          *slog.Logger
}

// Option configures a Retriever.
type Option func(*Retriever) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Retriever) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// NewRetriever creates a new retriever.
func NewRetriever(
	chunkRepository storage.ChunkRepository,
	provider ai.AIProvider,
	opts ...Option,
) (*Retriever, error) {
	if chunkRepository == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	r := &Retriever{
		chunkRepository: chunkRepository,
		embedder:        provider.Embedder(),
		logger:          slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// VectorSearch finds the chunks most similar to the question.
// Returns up to maxHits results in the similarity index's descending-score order.
func (r *Retriever) VectorSearch(ctx context.Context, question string, maxHits int) ([]*core.ChunkResult, error) {
	return r.VectorSearchWithMonitor(ctx, question, maxHits, nil)
}

// VectorSearchWithMonitor finds the chunks most similar to the question with monitoring.
// The monitor receives callbacks at each stage of the retrieval process.
// Returns up to maxHits results in the similarity index's descending-score order.
func (r *Retriever) VectorSearchWithMonitor(ctx context.Context, question string, maxHits int, monitor RetrievalMonitor) ([]*core.ChunkResult, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	results, err := r.vectorSearch(ctx, question, maxHits, monitor)
	if err != nil {
		return nil, err
	}
	monitor.Finish(results)

	return results, nil
}

// HybridSearch runs VectorSearch and then wraps each hit with the passages
// surrounding it in the source document, plus the document's title.
// A hit whose neighbor lookup fails is dropped; the call fails only if the
// vector search itself failed.
func (r *Retriever) HybridSearch(ctx context.Context, question string, maxHits int) ([]*core.ChunkResult, error) {
	return r.HybridSearchWithMonitor(ctx, question, maxHits, nil)
}

// HybridSearchWithMonitor runs HybridSearch with monitoring.
// The monitor receives callbacks at each stage of the retrieval process.
func (r *Retriever) HybridSearchWithMonitor(ctx context.Context, question string, maxHits int, monitor RetrievalMonitor) ([]*core.ChunkResult, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	results, err := r.vectorSearch(ctx, question, maxHits, monitor)
	if err != nil {
		return nil, err
	}

	enriched := make([]*core.ChunkResult, 0, len(results))
	for _, result := range results {
		neighbors, err := r.chunkRepository.Neighbors(ctx, result.ChunkId)
		if err != nil {
			// One bad hit does not fail the whole call.
			r.logger.Warn("dropping hit after failed neighbor lookup", "chunkId", result.ChunkId, "err", err)
			monitor.DroppedHit(result.ChunkId, err)
			continue
		}

		result.EnrichedText = buildEnrichedText(result.Text, neighbors)
		result.DocTitle = neighbors.DocTitle
		if result.DocTitle == "" {
			// The owning document record may be gone.
			result.DocTitle = "Unknown"
		}
		monitor.EnrichedHit(result)
		enriched = append(enriched, result)
	}
	monitor.Finish(enriched)

	return enriched, nil
}

// vectorSearch embeds the question and queries the similarity index.
// The index order is kept as-is; ties stay in whatever order the index returned.
func (r *Retriever) vectorSearch(ctx context.Context, question string, maxHits int, monitor RetrievalMonitor) ([]*core.ChunkResult, error) {
	monitor.Start(question)

	embedding, err := r.embedder.EmbedText(ctx, question)
	if err != nil {
		r.logger.Error("error generating embedding for question", "question", question, "err", err)
		return nil, err
	}

	matches, err := r.chunkRepository.FindSimilar(ctx, embedding, maxHits)
	if err != nil {
		r.logger.Error("error querying for similar chunks", "err", err)
		return nil, err
	}
	monitor.AfterVectorSearch(matches)

	results := make([]*core.ChunkResult, 0, len(matches))
	for _, match := range matches {
		results = append(results, &core.ChunkResult{
			ChunkId: match.Chunk.Id,
			Text:    match.Chunk.Text,
			Score:   match.Score,
		})
	}

	return results, nil
}
