package pipeline

import (
	"context"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/answerit/ai/mock"
	"github.com/poiesic/answerit/cache"
	"github.com/poiesic/answerit/core"
	"github.com/poiesic/answerit/retrieval"
	"github.com/poiesic/answerit/storage"
	"github.com/poiesic/answerit/storage/badger"
	redisstore "github.com/poiesic/answerit/storage/redis"
)

// engineFixture wires an engine over an in-memory corpus, a mock provider,
// and a real semantic cache backed by miniredis.
type engineFixture struct {
	engine    *Engine
	embedder  *mock.MockEmbedder
	generator *mock.MockGenerator
	cache     cache.Cache
	chunks    []*core.Chunk
}

func newEngineFixture(t *testing.T, opts ...Option) *engineFixture {
	t.Helper()
	ctx := context.Background()

	docRepo, chunkRepo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	docs, err := docRepo.AddDocuments(ctx, &core.Document{
		Title:  "Redis Persistence Guide",
		Source: "redis/persistence.md",
	})
	require.NoError(t, err)

	chunks := []*core.Chunk{
		{DocumentId: docs[0].Id, Position: 0, Text: "RDB takes point-in-time snapshots.", Vector: []float32{0.9, 0.1, 0.0}},
		{DocumentId: docs[0].Id, Position: 1, Text: "AOF logs every write operation.", Vector: []float32{0.8, 0.2, 0.0}},
		{DocumentId: docs[0].Id, Position: 2, Text: "Both modes can be combined.", Vector: []float32{0.7, 0.3, 0.0}},
	}
	added, err := chunkRepo.AddChunks(ctx, chunks...)
	require.NoError(t, err)

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return []float32{0.9, 0.1, 0.0}, nil
	}
	generator := mock.NewMockGenerator()
	provider := mock.NewMockProviderWithServices(embedder, generator, mock.NewMockEntityExtractor())

	retriever, err := retrieval.NewRetriever(chunkRepo, provider)
	require.NoError(t, err)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	answerCache := cache.NewSemanticCache(redisstore.NewStoreWithClient(client))
	t.Cleanup(func() { answerCache.Close() })

	engine, err := NewEngine(retriever, provider, answerCache, opts...)
	require.NoError(t, err)

	return &engineFixture{
		engine:    engine,
		embedder:  embedder,
		generator: generator,
		cache:     answerCache,
		chunks:    added,
	}
}

func TestNewEngine(t *testing.T) {
	_, chunkRepo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	provider := mock.NewMockProvider()
	retriever, err := retrieval.NewRetriever(chunkRepo, provider)
	require.NoError(t, err)
	answerCache := cache.NewNoopCache()

	t.Run("valid configuration", func(t *testing.T) {
		engine, err := NewEngine(retriever, provider, answerCache)
		require.NoError(t, err)
		assert.NotNil(t, engine)
	})

	t.Run("nil retriever", func(t *testing.T) {
		_, err := NewEngine(nil, provider, answerCache)
		assert.Equal(t, ErrRetrieverRequired, err)
	})

	t.Run("nil provider", func(t *testing.T) {
		_, err := NewEngine(retriever, nil, answerCache)
		assert.Equal(t, ErrAIProviderRequired, err)
	})

	t.Run("nil cache", func(t *testing.T) {
		_, err := NewEngine(retriever, provider, nil)
		assert.Equal(t, ErrCacheRequired, err)
	})

	t.Run("nil classifier falls back to default", func(t *testing.T) {
		engine, err := NewEngine(retriever, provider, answerCache, WithClassifier(nil))
		require.NoError(t, err)
		assert.NotNil(t, engine)
	})
}

func TestAsk_VectorRoute(t *testing.T) {
	f := newEngineFixture(t)
	f.generator.GenerateFunc = func(ctx context.Context, prompt string) (string, error) {
		return "Snapshots write the dataset to disk.", nil
	}

	result, err := f.engine.Ask(context.Background(), "What is RDB persistence?", 3)
	require.NoError(t, err)

	assert.Equal(t, "What is RDB persistence?", result.Question)
	assert.Equal(t, "Snapshots write the dataset to disk.", result.Answer)
	assert.Equal(t, core.SearchTypeVector, result.SearchType)
	assert.False(t, result.Cached)
	assert.Equal(t, []string{
		"route: vector search",
		"vector search: 3 results",
		"answer generated",
	}, result.Steps)

	require.Len(t, result.Sources, 3)
	assert.Equal(t, f.chunks[0].Text, result.Sources[0].Text)
	assert.Empty(t, result.Sources[0].DocTitle)

	prompt := f.generator.LastPrompt()
	assert.Contains(t, prompt, "Source 1:\n"+f.chunks[0].Text)
	assert.Contains(t, prompt, "Question: What is RDB persistence?")
	assert.True(t, strings.HasSuffix(prompt, "Answer:"))
}

func TestAsk_HybridRoute(t *testing.T) {
	f := newEngineFixture(t)

	result, err := f.engine.Ask(context.Background(), "How does AOF logging work?", 3)
	require.NoError(t, err)

	assert.Equal(t, core.SearchTypeHybrid, result.SearchType)
	assert.Equal(t, []string{
		"route: hybrid search",
		"hybrid search: 3 results",
		"answer generated",
	}, result.Steps)

	require.Len(t, result.Sources, 3)
	assert.Equal(t, "Redis Persistence Guide", result.Sources[0].DocTitle)

	// The top hit is the first chunk, so its enriched block has no previous
	expected := "[Main]: " + f.chunks[0].Text + "\n\n[Next]: " + f.chunks[1].Text
	assert.Equal(t, expected, result.Sources[0].Text)
}

func TestAsk_CacheHitOnRepeat(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	first, err := f.engine.Ask(ctx, "What is RDB persistence?", 3)
	require.NoError(t, err)
	assert.False(t, first.Cached)
	require.Equal(t, 1, f.generator.CallCount())

	second, err := f.engine.Ask(ctx, "What is RDB persistence?", 3)
	require.NoError(t, err)

	assert.True(t, second.Cached)
	assert.InDelta(t, 1.0, second.Similarity, 1e-6)
	assert.Equal(t, "What is RDB persistence?", second.OriginalQuery)
	assert.Equal(t, first.Answer, second.Answer)
	assert.Equal(t, append(first.Steps, "retrieved from cache"), second.Steps)

	// The cached answer was served without another generation
	assert.Equal(t, 1, f.generator.CallCount())
}

func TestAsk_GenerationFailureDoesNotCache(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	f.generator.GenerateFunc = func(ctx context.Context, prompt string) (string, error) {
		return "", assert.AnError
	}

	_, err := f.engine.Ask(ctx, "What is RDB persistence?", 3)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGenerationFailed)
	assert.ErrorIs(t, err, assert.AnError)

	stats := f.cache.Stats(ctx)
	assert.Equal(t, int64(0), stats.TotalCached)
	assert.Equal(t, int64(0), stats.CacheSize)

	// Once generation recovers the same question is answered fresh
	f.generator.GenerateFunc = nil
	result, err := f.engine.Ask(ctx, "What is RDB persistence?", 3)
	require.NoError(t, err)
	assert.False(t, result.Cached)
}

// failingSimilarRepo fails every similarity query.
type failingSimilarRepo struct {
	storage.ChunkRepository
}

func (r *failingSimilarRepo) FindSimilar(ctx context.Context, vector []float32, limit int) ([]*core.SimilarChunk, error) {
	return nil, assert.AnError
}

func TestAsk_RetrievalFailureSurfaces(t *testing.T) {
	_, chunkRepo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	provider := mock.NewMockProvider()
	retriever, err := retrieval.NewRetriever(&failingSimilarRepo{ChunkRepository: chunkRepo}, provider)
	require.NoError(t, err)

	engine, err := NewEngine(retriever, provider, cache.NewNoopCache())
	require.NoError(t, err)

	_, err = engine.Ask(context.Background(), "How does AOF logging work?", 3)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRetrievalFailed)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestAsk_EmbedderFailureSurfaces(t *testing.T) {
	f := newEngineFixture(t)

	f.embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, assert.AnError
	}

	_, err := f.engine.Ask(context.Background(), "What is RDB persistence?", 3)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRetrievalFailed)
	assert.Equal(t, 0, f.generator.CallCount())
}

func TestAsk_DefaultTopK(t *testing.T) {
	f := newEngineFixture(t, WithTopK(2))

	result, err := f.engine.Ask(context.Background(), "What is RDB persistence?", 0)
	require.NoError(t, err)

	assert.Contains(t, result.Steps, "vector search: 2 results")
	assert.Len(t, result.Sources, 2)
}

// countingCache records cache traffic around a delegate.
type countingCache struct {
	cache.Cache
	gets int
	puts int
}

func (c *countingCache) Get(ctx context.Context, question string, embedding []float32) *core.CachedResult {
	c.gets++
	return c.Cache.Get(ctx, question, embedding)
}

func (c *countingCache) Put(ctx context.Context, embedding []float32, result *core.QueryResult) bool {
	c.puts++
	return c.Cache.Put(ctx, embedding, result)
}

func TestAskBatch(t *testing.T) {
	docRepo, chunkRepo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	docs, err := docRepo.AddDocuments(ctx, &core.Document{Title: "Guide"})
	require.NoError(t, err)
	_, err = chunkRepo.AddChunks(ctx, &core.Chunk{
		DocumentId: docs[0].Id,
		Position:   0,
		Text:       "Persistence is configurable.",
		Vector:     []float32{0.9, 0.1, 0.0},
	})
	require.NoError(t, err)

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return []float32{0.9, 0.1, 0.0}, nil
	}
	generator := mock.NewMockGenerator()
	generator.GenerateFunc = func(ctx context.Context, prompt string) (string, error) {
		if strings.Contains(prompt, "please fail") {
			return "", assert.AnError
		}
		return "Configured via redis.conf.", nil
	}
	provider := mock.NewMockProviderWithServices(embedder, generator, mock.NewMockEntityExtractor())

	retriever, err := retrieval.NewRetriever(chunkRepo, provider)
	require.NoError(t, err)

	counting := &countingCache{Cache: cache.NewNoopCache()}
	engine, err := NewEngine(retriever, provider, counting)
	require.NoError(t, err)

	questions := []string{
		"How is persistence configured?",
		"please fail on this one",
		"What is a snapshot?",
	}
	items := engine.AskBatch(ctx, questions, 1)
	require.Len(t, items, 3)

	assert.Equal(t, questions[0], items[0].Question)
	require.NotNil(t, items[0].Result)
	assert.Equal(t, "Configured via redis.conf.", items[0].Result.Answer)
	assert.Equal(t, core.SearchTypeHybrid, items[0].Result.SearchType)

	// The failed question records its error without stopping the batch
	assert.Nil(t, items[1].Result)
	assert.ErrorIs(t, items[1].Err, ErrGenerationFailed)

	require.NotNil(t, items[2].Result)
	assert.Equal(t, core.SearchTypeVector, items[2].Result.SearchType)

	// Batch runs never touch the answer cache
	assert.Equal(t, 0, counting.gets)
	assert.Equal(t, 0, counting.puts)
}

func TestAskUncached(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	counting := &countingCache{Cache: f.cache}
	f.engine.cache = counting

	result, err := f.engine.AskUncached(ctx, "What is RDB persistence?", 3)
	require.NoError(t, err)
	assert.False(t, result.Cached)
	assert.NotEmpty(t, result.Answer)

	// A repeat stays fresh because nothing was cached
	repeat, err := f.engine.AskUncached(ctx, "What is RDB persistence?", 3)
	require.NoError(t, err)
	assert.False(t, repeat.Cached)
	assert.Equal(t, 2, f.generator.CallCount())

	assert.Equal(t, 0, counting.gets)
	assert.Equal(t, 0, counting.puts)
}
