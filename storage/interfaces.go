package storage

import (
	"context"
	"time"

	"github.com/poiesic/answerit/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	// The context passed to fn may contain transaction state.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// DocumentRepository provides operations for managing source documents.
type DocumentRepository interface {
	Repository
	// AddDocuments adds one or more documents to storage.
	// For documents with ID=0, derives a content-based ID from title and source.
	// Sets InsertedAt timestamp if not already set.
	// Returns the documents with IDs and timestamps populated.
	AddDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error)

	// GetDocument retrieves a single document by ID.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id core.ID) (*core.Document, error)

	// ListDocuments retrieves all documents, ordered by ID.
	ListDocuments(ctx context.Context) ([]*core.Document, error)

	// DeleteDocument removes a document together with every chunk derived
	// from it. Returns ErrNotFound if the document doesn't exist.
	DeleteDocument(ctx context.Context, id core.ID) error

	// CountDocuments returns the number of stored documents.
	CountDocuments(ctx context.Context) (int, error)
}

// ChunkRepository provides operations for managing embedded document chunks.
type ChunkRepository interface {
	Repository
	// AddChunks adds one or more chunks to storage.
	// For chunks with ID=0, derives a content-based ID from the parent
	// document and position. Sets InsertedAt timestamp if not already set.
	// Returns the chunks with IDs and timestamps populated.
	AddChunks(ctx context.Context, chunks ...*core.Chunk) ([]*core.Chunk, error)

	// UpdateChunks updates existing chunks.
	// Updates the UpdatedAt timestamp automatically.
	// Returns ErrNotFound if any chunk doesn't exist.
	UpdateChunks(ctx context.Context, chunks ...*core.Chunk) ([]*core.Chunk, error)

	// GetChunk retrieves a single chunk by ID.
	// Returns ErrNotFound if the chunk doesn't exist.
	GetChunk(ctx context.Context, id core.ID) (*core.Chunk, error)

	// GetChunksByDocument retrieves all chunks belonging to a document,
	// ordered by position.
	GetChunksByDocument(ctx context.Context, docID core.ID) ([]*core.Chunk, error)

	// ListChunks retrieves all chunks, ordered by ID.
	ListChunks(ctx context.Context) ([]*core.Chunk, error)

	// DeleteChunksByDocument removes all chunks belonging to a document.
	// Removing chunks for a document that has none is not an error.
	DeleteChunksByDocument(ctx context.Context, docID core.ID) error

	// CountChunks returns the number of stored chunks.
	CountChunks(ctx context.Context) (int, error)

	// FindSimilar finds the chunks most similar to the given vector.
	// Returns up to limit results ordered by similarity score (highest first).
	// Returns ErrInvalidQuery when the vector is empty or limit is not positive.
	FindSimilar(ctx context.Context, vector []float32, limit int) ([]*core.SimilarChunk, error)

	// Neighbors retrieves the chunks positionally adjacent to the given chunk
	// within its document, together with the parent document's title.
	// A neighbor is nil when the chunk sits at that document boundary.
	// Returns ErrNotFound if the chunk doesn't exist.
	Neighbors(ctx context.Context, id core.ID) (*core.Neighbors, error)
}

// CacheStore provides the primitive operations the semantic cache is built
// on: byte values with optional expiry, a member set scored by insertion
// time, and atomic counters grouped under a single key.
// Implementations must be safe for concurrent use.
type CacheStore interface {
	// Set stores value under key. A ttl of zero means the key never expires.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Get retrieves the value stored under key.
	// The boolean is false when the key does not exist or has expired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Delete removes the given keys. Missing keys are ignored.
	Delete(ctx context.Context, keys ...string) error

	// DeleteByPrefix removes every key that starts with prefix.
	// Returns the number of keys removed.
	DeleteByPrefix(ctx context.Context, prefix string) (int64, error)

	// ZAdd adds member to the scored set stored under set.
	// Adding an existing member updates its score.
	ZAdd(ctx context.Context, set, member string, score float64) error

	// ZMembers returns all members of the scored set in ascending score order.
	ZMembers(ctx context.Context, set string) ([]string, error)

	// ZCard returns the number of members in the scored set.
	ZCard(ctx context.Context, set string) (int64, error)

	// ZPopMin removes and returns the member with the lowest score.
	// The boolean is false when the set is empty.
	ZPopMin(ctx context.Context, set string) (string, bool, error)

	// IncrCounter atomically adds delta to the named field of the counter
	// group stored under key, creating both as needed.
	IncrCounter(ctx context.Context, key, field string, delta int64) error

	// Counters returns all counter fields stored under key.
	// Returns an empty map when the key does not exist.
	Counters(ctx context.Context, key string) (map[string]int64, error)

	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error

	// Close releases connection resources held by the store.
	Close() error
}
