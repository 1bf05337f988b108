package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/answerit/core"
	redisstore "github.com/poiesic/answerit/storage/redis"
)

func setupCache(t *testing.T, opts ...Option) (*miniredis.Miniredis, Cache) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	store := redisstore.NewStoreWithClient(client)

	c := NewSemanticCache(store, opts...)
	t.Cleanup(func() { c.Close() })

	return mr, c
}

func answered(question, answer string) *core.QueryResult {
	return &core.QueryResult{
		Question:   question,
		Answer:     answer,
		Sources:    []core.Source{{Text: "ML intro...", Score: 0.91, DocTitle: "Intro to ML"}},
		SearchType: core.SearchTypeHybrid,
		Steps:      []string{"Routed to hybrid search"},
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	_, c := setupCache(t)
	ctx := context.Background()

	vector := []float32{0.10, 0.20, 0.05}
	ok := c.Put(ctx, vector, answered("What is ML?", "ML is a field of AI."))
	require.True(t, ok)

	hit := c.Get(ctx, "What is ML?", vector)
	require.NotNil(t, hit)

	assert.Equal(t, "ML is a field of AI.", hit.Answer)
	assert.True(t, hit.Cached)
	assert.InDelta(t, 1.0, hit.Similarity, 1e-6)
	assert.Equal(t, "What is ML?", hit.OriginalQuery)
	assert.Equal(t, core.SearchTypeHybrid, hit.SearchType)
	require.Len(t, hit.Sources, 1)
	assert.Equal(t, "Intro to ML", hit.Sources[0].DocTitle)
	assert.Equal(t, []string{"Routed to hybrid search"}, hit.Steps)
}

func TestGetEmptyCache(t *testing.T) {
	_, c := setupCache(t)
	ctx := context.Background()

	hit := c.Get(ctx, "anything", []float32{1.0, 0.0})
	assert.Nil(t, hit)

	stats := c.Stats(ctx)
	assert.Equal(t, int64(0), stats.TotalHits)
	assert.Equal(t, int64(1), stats.TotalMisses)
	assert.Equal(t, int64(1), stats.TotalRequests)
	assert.Equal(t, 0.0, stats.HitRate)
}

func TestThresholdBoundary(t *testing.T) {
	// cosine([3,4],[4,3]) is exactly 24/25 = 0.96, so a 0.96 threshold
	// exercises both sides of the strict less-than miss comparison.
	_, c := setupCache(t, WithSimilarityThreshold(0.96))
	ctx := context.Background()

	require.True(t, c.Put(ctx, []float32{3.0, 4.0}, answered("stored question", "stored answer")))

	t.Run("exactly at threshold hits", func(t *testing.T) {
		hit := c.Get(ctx, "similar question", []float32{4.0, 3.0})
		require.NotNil(t, hit)
		assert.Equal(t, "stored answer", hit.Answer)
		assert.InDelta(t, 0.96, hit.Similarity, 1e-12)
	})

	t.Run("below threshold misses", func(t *testing.T) {
		// cosine([3,4],[1,0]) = 3/5 = 0.6
		hit := c.Get(ctx, "unrelated question", []float32{1.0, 0.0})
		assert.Nil(t, hit)
	})
}

func TestTieBreakKeepsFirstMaximum(t *testing.T) {
	// Both entries score cosine 0.8 against the query; the entry
	// enumerated first must win and a later equal score never replaces it.
	_, c := setupCache(t, WithSimilarityThreshold(0.75))
	ctx := context.Background()

	require.True(t, c.Put(ctx, []float32{4.0, 3.0}, answered("first question", "first answer")))
	require.True(t, c.Put(ctx, []float32{4.0, -3.0}, answered("second question", "second answer")))

	hit := c.Get(ctx, "query", []float32{1.0, 0.0})
	require.NotNil(t, hit)
	assert.Equal(t, "first answer", hit.Answer)
	assert.Equal(t, "first question", hit.OriginalQuery)
	assert.InDelta(t, 0.8, hit.Similarity, 1e-12)
}

func TestCapacityEvictsOldest(t *testing.T) {
	mr, c := setupCache(t, WithMaxSize(3))
	ctx := context.Background()

	questions := []string{"q one", "q two", "q three", "q four"}
	vectors := [][]float32{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
	}

	for i, q := range questions {
		require.True(t, c.Put(ctx, vectors[i], answered(q, "answer "+q)))
	}

	stats := c.Stats(ctx)
	assert.Equal(t, int64(3), stats.CacheSize)

	// The earliest entry is gone, records included
	assert.Nil(t, c.Get(ctx, questions[0], vectors[0]))
	evictedID := core.QueryID(questions[0])
	assert.False(t, mr.Exists("semantic_cache:embeddings:"+evictedID))
	assert.False(t, mr.Exists("semantic_cache:queries:"+evictedID))
	assert.False(t, mr.Exists("semantic_cache:answers:"+evictedID))

	// Later entries all remain retrievable
	for i := 1; i < len(questions); i++ {
		hit := c.Get(ctx, questions[i], vectors[i])
		require.NotNil(t, hit, "expected %q to remain cached", questions[i])
		assert.Equal(t, "answer "+questions[i], hit.Answer)
	}
}

func TestTTLExpiry(t *testing.T) {
	mr, c := setupCache(t, WithTTL(1*time.Second))
	ctx := context.Background()

	vector := []float32{1.0, 0.0}
	require.True(t, c.Put(ctx, vector, answered("short lived", "answer")))
	require.NotNil(t, c.Get(ctx, "short lived", vector))

	mr.FastForward(2 * time.Second)

	// Expiry is a miss, not an error
	assert.Nil(t, c.Get(ctx, "short lived", vector))

	stats := c.Stats(ctx)
	assert.Equal(t, int64(0), stats.TotalErrors)
	assert.Equal(t, int64(1), stats.TotalMisses)
	// The id stays in the membership set until eviction cycles it out
	assert.Equal(t, int64(1), stats.CacheSize)
}

func TestCorruptEmbeddingSkipped(t *testing.T) {
	mr, c := setupCache(t)
	ctx := context.Background()

	require.True(t, c.Put(ctx, []float32{1.0, 0.0}, answered("corrupt me", "bad")))
	require.True(t, c.Put(ctx, []float32{0.0, 1.0}, answered("intact", "good")))

	// Overwrite the first entry's embedding with a truncated payload
	corruptID := core.QueryID("corrupt me")
	require.NoError(t, mr.Set("semantic_cache:embeddings:"+corruptID, "abc"))

	hit := c.Get(ctx, "intact", []float32{0.0, 1.0})
	require.NotNil(t, hit)
	assert.Equal(t, "good", hit.Answer)

	stats := c.Stats(ctx)
	assert.Equal(t, int64(1), stats.TotalErrors)
	assert.Equal(t, int64(1), stats.TotalHits)
}

func TestHitCountedBeforeAnswerLoad(t *testing.T) {
	mr, c := setupCache(t)
	ctx := context.Background()

	vector := []float32{1.0, 0.0}
	require.True(t, c.Put(ctx, vector, answered("orphaned", "answer")))

	// Drop just the answer record
	mr.Del("semantic_cache:answers:" + core.QueryID("orphaned"))

	assert.Nil(t, c.Get(ctx, "orphaned", vector))

	stats := c.Stats(ctx)
	assert.Equal(t, int64(1), stats.TotalHits)
	assert.Equal(t, int64(0), stats.TotalMisses)
}

func TestClear(t *testing.T) {
	_, c := setupCache(t)
	ctx := context.Background()

	require.True(t, c.Put(ctx, []float32{1.0, 0.0}, answered("q one", "a1")))
	require.True(t, c.Put(ctx, []float32{0.0, 1.0}, answered("q two", "a2")))
	require.NotNil(t, c.Get(ctx, "q one", []float32{1.0, 0.0}))

	assert.True(t, c.Clear(ctx))

	stats := c.Stats(ctx)
	assert.Equal(t, int64(0), stats.CacheSize)
	assert.Equal(t, int64(0), stats.TotalCached)
	assert.Equal(t, int64(0), stats.TotalHits)
	assert.Equal(t, int64(0), stats.TotalMisses)

	assert.Nil(t, c.Get(ctx, "q one", []float32{1.0, 0.0}))
}

func TestCounterConsistency(t *testing.T) {
	_, c := setupCache(t)
	ctx := context.Background()

	vector := []float32{1.0, 0.0}

	c.Get(ctx, "nothing yet", vector)
	require.True(t, c.Put(ctx, vector, answered("cached now", "answer")))
	require.NotNil(t, c.Get(ctx, "cached now", vector))
	assert.Nil(t, c.Get(ctx, "unrelated", []float32{0.0, 1.0}))

	stats := c.Stats(ctx)
	assert.Equal(t, int64(1), stats.TotalHits)
	assert.Equal(t, int64(2), stats.TotalMisses)
	assert.Equal(t, stats.TotalHits+stats.TotalMisses, stats.TotalRequests)
	assert.Equal(t, 33.33, stats.HitRate)
	assert.Equal(t, int64(1), stats.TotalCached)
}

func TestNormalizedQuestionsShareEntry(t *testing.T) {
	_, c := setupCache(t)
	ctx := context.Background()

	require.True(t, c.Put(ctx, []float32{1.0, 0.0}, answered("What is Go?", "first")))
	require.True(t, c.Put(ctx, []float32{1.0, 0.0}, answered("  what is go?  ", "second")))

	stats := c.Stats(ctx)
	assert.Equal(t, int64(1), stats.CacheSize)
	assert.Equal(t, int64(2), stats.TotalCached)

	hit := c.Get(ctx, "What is Go?", []float32{1.0, 0.0})
	require.NotNil(t, hit)
	assert.Equal(t, "second", hit.Answer)
}

func TestStatsDefaults(t *testing.T) {
	_, c := setupCache(t)
	stats := c.Stats(context.Background())

	assert.Equal(t, int64(0), stats.CacheSize)
	assert.Equal(t, int64(DefaultMaxCacheSize), stats.MaxCacheSize)
	assert.Equal(t, DefaultSimilarityThreshold, stats.SimilarityThreshold)
	assert.Equal(t, int64(3600), stats.TTLSeconds)
	assert.Equal(t, 0.0, stats.HitRate)
}

func TestStoreDownDegrades(t *testing.T) {
	mr, c := setupCache(t)
	ctx := context.Background()

	vector := []float32{1.0, 0.0}
	require.True(t, c.Put(ctx, vector, answered("before outage", "answer")))

	mr.Close()

	assert.False(t, c.Put(ctx, vector, answered("during outage", "answer")))
	assert.Nil(t, c.Get(ctx, "before outage", vector))
	assert.False(t, c.Clear(ctx))
	assert.Equal(t, Stats{}, c.Stats(ctx))
	assert.Error(t, c.Ping(ctx))
}

func TestNoopCache(t *testing.T) {
	c := NewNoopCache()
	ctx := context.Background()

	assert.False(t, c.Put(ctx, []float32{1.0}, answered("q", "a")))
	assert.Nil(t, c.Get(ctx, "q", []float32{1.0}))
	assert.True(t, c.Clear(ctx))
	assert.Equal(t, Stats{}, c.Stats(ctx))
	assert.NoError(t, c.Ping(ctx))
	assert.NoError(t, c.Close())
}
