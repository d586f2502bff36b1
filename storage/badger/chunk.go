package badger

import (
	"context"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/personalmind/core"
	"github.com/poiesic/personalmind/storage"
)

// ChunkRepository implements storage.ChunkRepository for BadgerDB.
// Chunks are keyed by document and ordinal, so one document's chunks are
// contiguous and ordered.
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

// PutChunks upserts chunks in a single transaction.
func (r *ChunkRepository) PutChunks(ctx context.Context, chunks ...*core.Chunk) error {
	for _, chunk := range chunks {
		if err := core.ValidateChunk(chunk); err != nil {
			return err
		}
	}
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, chunk := range chunks {
			value := storage.MarshalChunk(chunk)
			if err := tx.Set(makeChunkKey(chunk.DocumentId, chunk.Ordinal), value); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// DeleteDocumentChunks removes all chunks belonging to a document.
func (r *ChunkRepository) DeleteDocumentChunks(ctx context.Context, documentID core.ID) (int, error) {
	var deleted int
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var keys [][]byte
		if err := scanKeys(tx, composeKey(chunkPrefix, uint64(documentID)), func(key []byte) error {
			keys = append(keys, key)
			return nil
		}); err != nil {
			return err
		}
		for _, key := range keys {
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		deleted = len(keys)
		return tx.Commit()
	}, true)
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// GetChunk retrieves a single chunk.
func (r *ChunkRepository) GetChunk(ctx context.Context, documentID core.ID, ordinal int) (*core.Chunk, error) {
	var result *core.Chunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		raw, err := readValue(tx, makeChunkKey(documentID, ordinal))
		if err != nil {
			return err
		}
		if raw == nil {
			return storage.ErrNotFound
		}
		result, err = storage.UnmarshalChunk(raw)
		return err
	}, false)
	return result, err
}

// GetDocumentChunks returns a document's chunks by ordinal.
func (r *ChunkRepository) GetDocumentChunks(ctx context.Context, documentID core.ID) ([]*core.Chunk, error) {
	var results []*core.Chunk
	err := r.scan(ctx, composeKey(chunkPrefix, uint64(documentID)), func(chunk *core.Chunk) error {
		results = append(results, chunk)
		return nil
	})
	return results, err
}

// ScanChunks visits every chunk in key order.
func (r *ChunkRepository) ScanChunks(ctx context.Context, fn func(*core.Chunk) error) error {
	return r.scan(ctx, []byte(chunkPrefix), fn)
}

// CountChunks counts stored chunks without decoding them.
func (r *ChunkRepository) CountChunks(ctx context.Context) (int, error) {
	var count int
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		return scanKeys(tx, []byte(chunkPrefix), func([]byte) error {
			count++
			return nil
		})
	}, false)
	return count, err
}

// FindSimilar scans all chunk vectors and ranks them by dot product.
// Stored vectors are unit length, so the dot product is cosine similarity.
func (r *ChunkRepository) FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.ChunkMatch, error) {
	if limit <= 0 {
		return nil, nil
	}

	var results []*core.ChunkMatch
	err := r.scan(ctx, []byte(chunkPrefix), func(chunk *core.Chunk) error {
		if len(chunk.Vector) == 0 {
			return nil
		}
		score := dotProduct(vector, chunk.Vector)
		if score >= minSimilarity {
			results = append(results, &core.ChunkMatch{Chunk: chunk, Score: score})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Stable so equal scores keep key order (document, then ordinal).
	slices.SortStableFunc(results, func(a, b *core.ChunkMatch) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return 0
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (r *ChunkRepository) scan(ctx context.Context, prefix []byte, fn func(*core.Chunk) error) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		return scanPrefix(tx, prefix, func(_, val []byte) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			chunk, err := storage.UnmarshalChunk(val)
			if err != nil {
				return err
			}
			return fn(chunk)
		})
	}, false)
}
