package badger

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/answerit/core"
	"github.com/poiesic/answerit/storage"
)

// ChunkRepository implements storage.ChunkRepository for BadgerDB.
type ChunkRepository struct {
	backend *Backend
}

var _ storage.ChunkRepository = (*ChunkRepository)(nil)

// NewChunkRepository creates a new ChunkRepository.
func NewChunkRepository(backend *Backend) (*ChunkRepository, error) {
	return &ChunkRepository{
		backend: backend,
	}, nil
}

// Close releases resources. ChunkRepository has no resources to release.
func (r *ChunkRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *ChunkRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// FindSimilar delegates to the backend.
func (r *ChunkRepository) FindSimilar(ctx context.Context, vector []float32, limit int) ([]*core.SimilarChunk, error) {
	return r.backend.FindSimilar(ctx, vector, limit)
}

// AddChunks adds one or more chunks to storage.
func (r *ChunkRepository) AddChunks(ctx context.Context, chunks ...*core.Chunk) ([]*core.Chunk, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, chunk := range chunks {
			// Use content-based ID if not set
			if chunk.Id == 0 {
				chunk.Id = core.IDFromContent(fmt.Sprintf("%d:%d", chunk.DocumentId, chunk.Position))
			}

			if chunk.InsertedAt.IsZero() {
				chunk.InsertedAt = time.Now().UTC()
			}
			chunk.UpdatedAt = chunk.InsertedAt

			// Store primary record
			value, err := storage.MarshalChunk(chunk)
			if err != nil {
				return err
			}
			if err := tx.Set(makeChunkKey(chunk.Id), value); err != nil {
				return err
			}

			// Store position index
			posKey := makeChunkPositionKey(chunk.DocumentId, chunk.Position)
			if err := tx.Set(posKey, storage.MarshalID(chunk.Id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return chunks, err
}

// UpdateChunks updates existing chunks.
func (r *ChunkRepository) UpdateChunks(ctx context.Context, chunks ...*core.Chunk) ([]*core.Chunk, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, chunk := range chunks {
			key := makeChunkKey(chunk.Id)

			// Read old chunk to detect position moves
			old, err := readChunk(tx, key)
			if err != nil {
				return err
			}
			if old == nil {
				return storage.ErrNotFound
			}

			chunk.UpdatedAt = time.Now().UTC()

			value, err := storage.MarshalChunk(chunk)
			if err != nil {
				return err
			}
			if err := tx.Set(key, value); err != nil {
				return err
			}

			// Update position index if the chunk moved
			if old.DocumentId != chunk.DocumentId || old.Position != chunk.Position {
				oldPosKey := makeChunkPositionKey(old.DocumentId, old.Position)
				if err := tx.Delete(oldPosKey); err != nil {
					return err
				}
				posKey := makeChunkPositionKey(chunk.DocumentId, chunk.Position)
				if err := tx.Set(posKey, storage.MarshalID(chunk.Id)); err != nil {
					return err
				}
			}
		}
		return tx.Commit()
	}, true)

	return chunks, err
}

// GetChunk retrieves a single chunk by ID.
func (r *ChunkRepository) GetChunk(ctx context.Context, id core.ID) (*core.Chunk, error) {
	var chunk *core.Chunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var readErr error
		chunk, readErr = readChunk(tx, makeChunkKey(id))
		return readErr
	}, false)

	if err != nil {
		return nil, err
	}
	if chunk == nil {
		return nil, storage.ErrNotFound
	}
	return chunk, nil
}

// GetChunksByDocument retrieves all chunks for a document, ordered by position.
func (r *ChunkRepository) GetChunksByDocument(ctx context.Context, docID core.ID) ([]*core.Chunk, error) {
	var chunks []*core.Chunk

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePartialChunkPositionKey(docID)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		// The position index sorts lexicographically in position order
		for iter.Rewind(); iter.Valid(); iter.Next() {
			var chunkID core.ID
			err := iter.Item().Value(func(val []byte) error {
				var idErr error
				chunkID, idErr = storage.UnmarshalID(val)
				return idErr
			})
			if err != nil {
				return err
			}

			chunk, err := readChunk(tx, makeChunkKey(chunkID))
			if err != nil {
				return err
			}
			if chunk == nil {
				continue
			}
			chunks = append(chunks, chunk)
		}
		return nil
	}, false)

	if err != nil {
		return nil, err
	}
	return chunks, nil
}

// ListChunks retrieves all chunks, ordered by ID.
func (r *ChunkRepository) ListChunks(ctx context.Context) ([]*core.Chunk, error) {
	var chunks []*core.Chunk

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkRecordPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var chunk *core.Chunk
			err := iter.Item().Value(func(val []byte) error {
				var unmarshalErr error
				chunk, unmarshalErr = storage.UnmarshalChunk(val)
				return unmarshalErr
			})
			if err != nil {
				return err
			}
			chunks = append(chunks, chunk)
		}
		return nil
	}, false)

	if err != nil {
		return nil, err
	}

	// Record keys are decimal strings, so re-sort numerically
	slices.SortFunc(chunks, func(a, b *core.Chunk) int {
		switch {
		case a.Id < b.Id:
			return -1
		case a.Id > b.Id:
			return 1
		default:
			return 0
		}
	})
	return chunks, nil
}

// DeleteChunksByDocument removes all chunks belonging to a document.
func (r *ChunkRepository) DeleteChunksByDocument(ctx context.Context, docID core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := deleteChunksForDocument(tx, docID); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// CountChunks returns the number of stored chunks.
func (r *ChunkRepository) CountChunks(ctx context.Context) (int, error) {
	return r.backend.countKeys(chunkRecordPrefix + ":")
}

// Neighbors retrieves the chunks adjacent to the given chunk within its
// document, along with the parent document's title.
func (r *ChunkRepository) Neighbors(ctx context.Context, id core.ID) (*core.Neighbors, error) {
	var neighbors *core.Neighbors

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		chunk, err := readChunk(tx, makeChunkKey(id))
		if err != nil {
			return err
		}
		if chunk == nil {
			return storage.ErrNotFound
		}

		neighbors = &core.Neighbors{}

		doc, err := readDocument(tx, makeDocumentKey(chunk.DocumentId))
		if err != nil {
			return err
		}
		if doc != nil {
			neighbors.DocTitle = doc.Title
		}

		if chunk.Position > 0 {
			neighbors.Previous, err = readChunkAtPosition(tx, chunk.DocumentId, chunk.Position-1)
			if err != nil {
				return err
			}
		}

		neighbors.Next, err = readChunkAtPosition(tx, chunk.DocumentId, chunk.Position+1)
		return err
	}, false)

	if err != nil {
		return nil, err
	}
	return neighbors, nil
}

// readChunk reads a chunk from the transaction.
// Returns nil, nil if the chunk doesn't exist.
func readChunk(tx *badger.Txn, key []byte) (*core.Chunk, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var chunk *core.Chunk
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		chunk, unmarshalErr = storage.UnmarshalChunk(val)
		return unmarshalErr
	})
	return chunk, err
}

// readChunkAtPosition resolves a chunk through the position index.
// Returns nil, nil when no chunk occupies the position.
func readChunkAtPosition(tx *badger.Txn, docID core.ID, position int) (*core.Chunk, error) {
	item, err := tx.Get(makeChunkPositionKey(docID, position))
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var chunkID core.ID
	err = item.Value(func(val []byte) error {
		var idErr error
		chunkID, idErr = storage.UnmarshalID(val)
		return idErr
	})
	if err != nil {
		return nil, err
	}

	return readChunk(tx, makeChunkKey(chunkID))
}

// deleteChunksForDocument removes every chunk record and position index
// entry belonging to a document within the given transaction.
func deleteChunksForDocument(tx *badger.Txn, docID core.ID) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = makePartialChunkPositionKey(docID)
	iter := tx.NewIterator(opts)

	var indexKeys [][]byte
	var chunkIDs []core.ID
	for iter.Rewind(); iter.Valid(); iter.Next() {
		item := iter.Item()
		indexKeys = append(indexKeys, item.KeyCopy(nil))

		err := item.Value(func(val []byte) error {
			id, idErr := storage.UnmarshalID(val)
			if idErr != nil {
				return idErr
			}
			chunkIDs = append(chunkIDs, id)
			return nil
		})
		if err != nil {
			iter.Close()
			return err
		}
	}
	iter.Close()

	for _, key := range indexKeys {
		if err := tx.Delete(key); err != nil {
			return err
		}
	}
	for _, id := range chunkIDs {
		if err := tx.Delete(makeChunkKey(id)); err != nil {
			return err
		}
	}
	return nil
}
