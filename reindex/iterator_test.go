package reindex

import (
	"context"
	"fmt"
	"testing"

	"github.com/poiesic/answerit/core"
	"github.com/poiesic/answerit/storage"
	"github.com/poiesic/answerit/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) (storage.ChunkRepository, func()) {
	docRepo, chunkRepo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)

	cleanup := func() {
		chunkRepo.Close()
		docRepo.Close()
		backend.Close()
	}

	return chunkRepo, cleanup
}

// seedChunks stores n chunks carrying stale three-dimensional vectors.
func seedChunks(t *testing.T, repo storage.ChunkRepository, n int) []*core.Chunk {
	t.Helper()
	ctx := context.Background()

	chunks := make([]*core.Chunk, n)
	for i := 0; i < n; i++ {
		chunks[i] = &core.Chunk{
			DocumentId: 1,
			Position:   i,
			Text:       fmt.Sprintf("chunk text %d", i),
			Vector:     []float32{1, 0, 0},
		}
	}
	added, err := repo.AddChunks(ctx, chunks...)
	require.NoError(t, err)
	require.Len(t, added, n)

	return added
}

func TestChunkIterator_Basic(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	seedChunks(t, repo, 3)

	iter := NewChunkIterator(repo, 2)
	count := 0
	var ids []core.ID

	err := iter.ForEach(ctx, func(chunks []*core.Chunk) error {
		count += len(chunks)
		for _, c := range chunks {
			ids = append(ids, c.Id)
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, count, "should iterate all 3 chunks")
	assert.Len(t, ids, 3, "should have 3 IDs")
}

func TestChunkIterator_BatchSizes(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	seedChunks(t, repo, 10)

	tests := []struct {
		name          string
		batchSize     int
		expectedBatch int
	}{
		{"batch size 1", 1, 10},
		{"batch size 3", 3, 4}, // 3+3+3+1
		{"batch size 5", 5, 2}, // 5+5
		{"batch size 10", 10, 1},
		{"batch size 100", 100, 1}, // All in one batch
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			iter := NewChunkIterator(repo, tt.batchSize)
			batchCount := 0
			totalChunks := 0

			err := iter.ForEach(ctx, func(chunks []*core.Chunk) error {
				batchCount++
				totalChunks += len(chunks)
				assert.LessOrEqual(t, len(chunks), tt.batchSize, "batch should not exceed batchSize")
				return nil
			})

			require.NoError(t, err)
			assert.Equal(t, tt.expectedBatch, batchCount, "batch count")
			assert.Equal(t, 10, totalChunks, "total chunks")
		})
	}
}

func TestChunkIterator_EmptyDatabase(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	iter := NewChunkIterator(repo, 10)
	called := false

	err := iter.ForEach(context.Background(), func(chunks []*core.Chunk) error {
		called = true
		return nil
	})

	require.NoError(t, err)
	assert.False(t, called, "callback should not be called for empty database")
}

func TestChunkIterator_ErrorHandling(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	seedChunks(t, repo, 2)

	iter := NewChunkIterator(repo, 1)
	called := 0

	err := iter.ForEach(ctx, func(chunks []*core.Chunk) error {
		called++
		if called == 1 {
			return assert.AnError
		}
		return nil
	})

	require.Error(t, err)
	assert.Equal(t, assert.AnError, err, "should return callback error")
	assert.Equal(t, 1, called, "should stop on first error")
}

func TestChunkIterator_ContextCancellation(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	seedChunks(t, repo, 5)

	iter := NewChunkIterator(repo, 1)
	called := 0

	err := iter.ForEach(ctx, func(chunks []*core.Chunk) error {
		called++
		if called == 2 {
			cancel()
		}
		return nil
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, called, "should process until context canceled")
}

func TestChunkIterator_InvalidBatchSize(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	// Zero batch size should be handled gracefully
	iter := NewChunkIterator(repo, 0)
	assert.Greater(t, iter.batchSize, 0, "should use default batch size for invalid input")

	// Negative batch size
	iter = NewChunkIterator(repo, -10)
	assert.Greater(t, iter.batchSize, 0, "should use default batch size for negative input")
}
