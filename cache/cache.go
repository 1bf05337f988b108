package cache

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/poiesic/answerit/core"
	"github.com/poiesic/answerit/storage"
)

const (
	// DefaultSimilarityThreshold is the minimum cosine similarity for a hit.
	DefaultSimilarityThreshold = 0.95
	// DefaultMaxCacheSize bounds the number of live entries.
	DefaultMaxCacheSize = 10000
	// DefaultTTL is how long entry records stay readable.
	DefaultTTL = 3600 * time.Second
	// DefaultKeyPrefix namespaces every cache key in the backing store.
	DefaultKeyPrefix = "semantic_cache"
)

// Counter fields kept in the stats record.
const (
	counterCached = "total_cached"
	counterHits   = "total_hits"
	counterMisses = "total_misses"
	counterErrors = "total_errors"
)

// Cache stores previously answered questions keyed by embedding similarity.
// Operations never fail the caller: on any backing-store trouble they
// degrade to a miss (Get), a false return (Put, Clear), or zeroed stats.
type Cache interface {
	// Put stores an answered question under TTL, evicting the oldest entry
	// first when the cache is full. Returns false when nothing was stored.
	Put(ctx context.Context, embedding []float32, result *core.QueryResult) bool

	// Get looks up the cached answer for the most similar prior question.
	// Returns nil on a miss.
	Get(ctx context.Context, question string, embedding []float32) *core.CachedResult

	// Clear removes every entry and resets the counters.
	Clear(ctx context.Context) bool

	// Stats reports the current counters and configuration.
	Stats(ctx context.Context) Stats

	// Ping verifies the backing store is reachable.
	Ping(ctx context.Context) error

	// Close releases the backing store connection.
	Close() error
}

// Stats is the cache's observable state snapshot.
type Stats struct {
	CacheSize           int64   `json:"cache_size"`
	MaxCacheSize        int64   `json:"max_cache_size"`
	TotalCached         int64   `json:"total_cached"`
	TotalHits           int64   `json:"total_hits"`
	TotalMisses         int64   `json:"total_misses"`
	TotalErrors         int64   `json:"total_errors"`
	TotalRequests       int64   `json:"total_requests"`
	HitRate             float64 `json:"hit_rate"`
	SimilarityThreshold float64 `json:"similarity_threshold"`
	TTLSeconds          int64   `json:"ttl_seconds"`
}

// Option configures a SemanticCache.
type Option func(*SemanticCache)

// WithSimilarityThreshold sets the minimum cosine similarity for a hit.
func WithSimilarityThreshold(threshold float64) Option {
	return func(c *SemanticCache) {
		c.threshold = threshold
	}
}

// WithMaxSize sets the maximum number of live entries.
func WithMaxSize(size int64) Option {
	return func(c *SemanticCache) {
		c.maxSize = size
	}
}

// WithTTL sets how long entry records stay readable.
func WithTTL(ttl time.Duration) Option {
	return func(c *SemanticCache) {
		c.ttl = ttl
	}
}

// WithKeyPrefix sets the key namespace in the backing store.
func WithKeyPrefix(prefix string) Option {
	return func(c *SemanticCache) {
		c.prefix = prefix
	}
}

// SemanticCache implements Cache over a storage.CacheStore.
//
// The persisted layout: one scored set of live entry ids (score = insertion
// time, driving FIFO eviction), three per-id records under independent TTL
// (packed embedding bytes, question text, answer payload JSON), and one
// counters record.
type SemanticCache struct {
	store     storage.CacheStore
	logger    *slog.Logger
	threshold float64
	maxSize   int64
	ttl       time.Duration
	prefix    string

	// mu serializes Put's check-evict-insert sequence so concurrent
	// writers cannot push the entry count past maxSize.
	mu        sync.Mutex
	lastScore float64
}

var _ Cache = (*SemanticCache)(nil)

// NewSemanticCache creates a semantic cache over the given store.
// Returns the Cache interface to enforce abstraction.
func NewSemanticCache(store storage.CacheStore, opts ...Option) Cache {
	c := &SemanticCache{
		store:     store,
		logger:    slog.Default().With("component", "cache"),
		threshold: DefaultSimilarityThreshold,
		maxSize:   DefaultMaxCacheSize,
		ttl:       DefaultTTL,
		prefix:    DefaultKeyPrefix,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *SemanticCache) embeddingsKey() string        { return c.prefix + ":embeddings" }
func (c *SemanticCache) queriesKey() string           { return c.prefix + ":queries" }
func (c *SemanticCache) answersKey() string           { return c.prefix + ":answers" }
func (c *SemanticCache) statsKey() string             { return c.prefix + ":stats" }
func (c *SemanticCache) embeddingKey(id string) string { return c.embeddingsKey() + ":" + id }
func (c *SemanticCache) queryKey(id string) string     { return c.queriesKey() + ":" + id }
func (c *SemanticCache) answerKey(id string) string    { return c.answersKey() + ":" + id }

// bump increments a counter, logging instead of failing.
func (c *SemanticCache) bump(ctx context.Context, field string) {
	if err := c.store.IncrCounter(ctx, c.statsKey(), field, 1); err != nil {
		c.logger.Warn("failed to update cache counter", "counter", field, "error", err)
	}
}

// nextScore returns an insertion score that strictly increases per instance,
// so same-tick inserts still evict in insertion order. Callers hold mu.
func (c *SemanticCache) nextScore() float64 {
	score := float64(time.Now().UnixNano()) / float64(time.Second)
	if score <= c.lastScore {
		score = c.lastScore + 1e-6
	}
	c.lastScore = score
	return score
}

// Put stores an answered question. The entry id derives from a hash of the
// normalized question text, so near-identical phrasings overwrite a single
// entry. Evicts the oldest entry first when the cache is at capacity.
func (c *SemanticCache) Put(ctx context.Context, embedding []float32, result *core.QueryResult) bool {
	id := core.QueryID(result.Question)

	c.mu.Lock()
	defer c.mu.Unlock()

	size, err := c.store.ZCard(ctx, c.embeddingsKey())
	if err != nil {
		c.logger.Error("failed to cache answer", "error", err)
		return false
	}
	if size >= c.maxSize {
		if err := c.evictOldest(ctx); err != nil {
			c.logger.Error("failed to evict cache entry", "error", err)
			return false
		}
	}

	score := c.nextScore()
	if err := c.store.ZAdd(ctx, c.embeddingsKey(), id, score); err != nil {
		c.logger.Error("failed to cache answer", "error", err)
		return false
	}
	if err := c.store.Set(ctx, c.embeddingKey(id), storage.MarshalVector(embedding), c.ttl); err != nil {
		c.logger.Error("failed to cache answer", "error", err)
		return false
	}
	if err := c.store.Set(ctx, c.queryKey(id), []byte(result.Question), c.ttl); err != nil {
		c.logger.Error("failed to cache answer", "error", err)
		return false
	}

	payload, err := encodeAnswerPayload(result, score)
	if err != nil {
		c.logger.Error("failed to cache answer", "error", err)
		return false
	}
	if err := c.store.Set(ctx, c.answerKey(id), payload, c.ttl); err != nil {
		c.logger.Error("failed to cache answer", "error", err)
		return false
	}

	if err := c.store.IncrCounter(ctx, c.statsKey(), counterCached, 1); err != nil {
		c.logger.Error("failed to cache answer", "error", err)
		return false
	}

	c.logger.Debug("cached answer", "id", id, "question", truncate(result.Question, 50))
	return true
}

// evictOldest removes the lowest-scored entry and its records.
// Callers hold mu.
func (c *SemanticCache) evictOldest(ctx context.Context) error {
	oldest, ok, err := c.store.ZPopMin(ctx, c.embeddingsKey())
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	err = c.store.Delete(ctx, c.embeddingKey(oldest), c.queryKey(oldest), c.answerKey(oldest))
	if err != nil {
		return err
	}
	c.logger.Debug("evicted oldest cache entry", "id", oldest)
	return nil
}

// Get scans every live entry for the one most similar to the query
// embedding. Ties keep the first maximum seen in enumeration order.
func (c *SemanticCache) Get(ctx context.Context, question string, embedding []float32) *core.CachedResult {
	ids, err := c.store.ZMembers(ctx, c.embeddingsKey())
	if err != nil {
		c.logger.Error("cache lookup failed", "error", err)
		c.bump(ctx, counterErrors)
		return nil
	}

	if len(ids) == 0 {
		c.logger.Debug("cache is empty")
		c.bump(ctx, counterMisses)
		return nil
	}

	best := 0.0
	bestID := ""
	for _, id := range ids {
		raw, found, err := c.store.Get(ctx, c.embeddingKey(id))
		if err != nil {
			c.logger.Error("cache lookup failed", "error", err)
			c.bump(ctx, counterErrors)
			return nil
		}
		if !found {
			// Record expired; the set entry lingers until evicted
			continue
		}

		cached, err := storage.UnmarshalVector(raw)
		if err != nil {
			c.logger.Warn("skipping corrupt cached embedding", "id", id, "error", err)
			c.bump(ctx, counterErrors)
			continue
		}

		if similarity := core.CosineSimilarity(embedding, cached); similarity > best {
			best = similarity
			bestID = id
		}
	}

	if best < c.threshold {
		c.logger.Debug("best similarity below threshold",
			"similarity", best, "threshold", c.threshold)
		c.bump(ctx, counterMisses)
		return nil
	}

	c.logger.Info("cache hit", "similarity", best, "question", truncate(question, 50))
	c.bump(ctx, counterHits)

	raw, found, err := c.store.Get(ctx, c.answerKey(bestID))
	if err != nil {
		c.logger.Error("cache lookup failed", "error", err)
		c.bump(ctx, counterErrors)
		return nil
	}
	if !found {
		// Answer record gone; the hit was already counted
		return nil
	}

	payload, err := decodeAnswerPayload(raw)
	if err != nil {
		c.logger.Warn("corrupt cached answer payload", "id", bestID, "error", err)
		c.bump(ctx, counterErrors)
		return nil
	}

	original, found, err := c.store.Get(ctx, c.queryKey(bestID))
	if err != nil || !found {
		c.logger.Warn("cached question text unavailable", "id", bestID, "error", err)
		c.bump(ctx, counterErrors)
		return nil
	}

	return &core.CachedResult{
		QueryResult: core.QueryResult{
			Question:   question,
			Answer:     payload.Answer,
			Sources:    payload.Sources,
			SearchType: payload.SearchType,
			Steps:      payload.Steps,
		},
		Cached:        true,
		Similarity:    best,
		OriginalQuery: string(original),
	}
}

// Clear removes every entry across all namespaces and resets counters.
func (c *SemanticCache) Clear(ctx context.Context) bool {
	err := c.store.Delete(ctx, c.embeddingsKey(), c.queriesKey(), c.answersKey(), c.statsKey())
	if err != nil {
		c.logger.Error("failed to clear cache", "error", err)
		return false
	}

	prefixes := []string{
		c.embeddingsKey() + ":",
		c.queriesKey() + ":",
		c.answersKey() + ":",
	}
	for _, prefix := range prefixes {
		if _, err := c.store.DeleteByPrefix(ctx, prefix); err != nil {
			c.logger.Error("failed to clear cache", "error", err)
			return false
		}
	}

	c.logger.Info("cache cleared")
	return true
}

// Stats reports counters, live entry count, and configuration.
// Returns zeroed stats when the backing store is unreachable.
func (c *SemanticCache) Stats(ctx context.Context) Stats {
	counters, err := c.store.Counters(ctx, c.statsKey())
	if err != nil {
		c.logger.Error("failed to read cache stats", "error", err)
		return Stats{}
	}

	size, err := c.store.ZCard(ctx, c.embeddingsKey())
	if err != nil {
		c.logger.Error("failed to read cache stats", "error", err)
		return Stats{}
	}

	hits := counters[counterHits]
	misses := counters[counterMisses]
	requests := hits + misses

	hitRate := 0.0
	if requests > 0 {
		hitRate = math.Round(float64(hits)/float64(requests)*100*100) / 100
	}

	return Stats{
		CacheSize:           size,
		MaxCacheSize:        c.maxSize,
		TotalCached:         counters[counterCached],
		TotalHits:           hits,
		TotalMisses:         misses,
		TotalErrors:         counters[counterErrors],
		TotalRequests:       requests,
		HitRate:             hitRate,
		SimilarityThreshold: c.threshold,
		TTLSeconds:          int64(c.ttl / time.Second),
	}
}

// Ping verifies the backing store is reachable.
func (c *SemanticCache) Ping(ctx context.Context) error {
	return c.store.Ping(ctx)
}

// Close releases the backing store connection.
func (c *SemanticCache) Close() error {
	return c.store.Close()
}

// truncate shortens text for log lines.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
