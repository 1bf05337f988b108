package ingestion

import (
	"context"
	"log/slog"
	"runtime"
	"strings"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/answerit/ai"
	"github.com/poiesic/answerit/core"
	"github.com/poiesic/answerit/storage"
)

// Pipeline orchestrates the ingestion of documents. It splits content into
// positioned chunks, persists them, and generates chunk embeddings.
type Pipeline struct {
	documentRepository storage.DocumentRepository
	chunkRepository    storage.ChunkRepository
	embedder           ai.Embedder
	chunker            *chunker
	chunkSize          int
	chunkOverlap       int
	pool               *ants.Pool
	logger             *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for background embedding.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		// Release old pool
		if p.pool != nil {
			p.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}

		p.pool = pool
		return nil
	}
}

// WithChunkSize sets the target chunk size in characters.
// Values below one are ignored. Default is DefaultChunkSize.
func WithChunkSize(size int) Option {
	return func(p *Pipeline) error {
		if size > 0 {
			p.chunkSize = size
		}
		return nil
	}
}

// WithChunkOverlap sets how many characters adjacent chunks share.
// Negative values are ignored. Default is DefaultChunkOverlap.
func WithChunkOverlap(overlap int) Option {
	return func(p *Pipeline) error {
		if overlap >= 0 {
			p.chunkOverlap = overlap
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	documentRepository storage.DocumentRepository,
	chunkRepository storage.ChunkRepository,
	provider ai.AIProvider,
	opts ...Option,
) (*Pipeline, error) {
	if documentRepository == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if chunkRepository == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	// Default pool size
	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	// Create pipeline with defaults
	p := &Pipeline{
		documentRepository: documentRepository,
		chunkRepository:    chunkRepository,
		embedder:           provider.Embedder(),
		chunkSize:          DefaultChunkSize,
		chunkOverlap:       DefaultChunkOverlap,
		pool:               pool,
		logger:             slog.Default(),
	}

	// Apply options (may override defaults)
	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	// Create the chunker after options are applied (so it gets final config)
	p.chunker = newChunker(p.chunkSize, p.chunkOverlap)

	return p, nil
}

// store persists the document and its chunks, without embeddings.
func (p *Pipeline) store(ctx context.Context, document *core.Document, content string) (*core.Document, []*core.Chunk, error) {
	if document == nil {
		return nil, nil, ErrDocumentRequired
	}
	if strings.TrimSpace(content) == "" {
		return nil, nil, ErrEmptyContent
	}

	added, err := p.documentRepository.AddDocuments(ctx, document)
	if err != nil {
		return nil, nil, err
	}
	stored := added[0]

	texts, err := p.chunker.split(content)
	if err != nil {
		return nil, nil, err
	}

	chunks := make([]*core.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = &core.Chunk{
			DocumentId: stored.Id,
			Position:   i,
			Text:       text,
		}
	}

	storedChunks, err := p.chunkRepository.AddChunks(ctx, chunks...)
	if err != nil {
		return nil, nil, err
	}

	p.logger.Info("stored document", "documentId", stored.Id, "chunks", len(storedChunks))
	return stored, storedChunks, nil
}

// Ingest stores a document, splits it into chunks, and embeds the chunks
// before returning. The returned chunks carry their persisted IDs and
// embedding vectors.
func (p *Pipeline) Ingest(ctx context.Context, document *core.Document, content string) (*core.Document, []*core.Chunk, error) {
	stored, chunks, err := p.store(ctx, document, content)
	if err != nil {
		return nil, nil, err
	}

	if err := p.embedChunks(ctx, chunks); err != nil {
		return nil, nil, err
	}

	return stored, chunks, nil
}

// IngestAsync stores a document and its chunks, then generates embeddings
// in the background. The returned chunks are vectorless; embeddings are
// written to storage as the background work completes. Embedding errors
// are logged rather than returned; a reindex pass can later fill in any
// vectors that failed.
func (p *Pipeline) IngestAsync(ctx context.Context, document *core.Document, content string) (*core.Document, []*core.Chunk, error) {
	stored, chunks, err := p.store(ctx, document, content)
	if err != nil {
		return nil, nil, err
	}

	// The background job embeds its own copies so the returned chunks
	// are never written to concurrently.
	background := make([]*core.Chunk, len(chunks))
	for i, chunk := range chunks {
		clone := *chunk
		background[i] = &clone
	}

	p.pool.Submit(func() {
		if err := p.embedChunks(context.Background(), background); err != nil {
			p.logger.Error("error embedding chunks", "documentId", stored.Id, "err", err)
		}
	})

	return stored, chunks, nil
}

// Release releases resources including the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
