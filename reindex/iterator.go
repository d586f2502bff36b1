package reindex

import (
	"context"

	"github.com/poiesic/personalmind/core"
	"github.com/poiesic/personalmind/storage"
)

// DefaultBatchSize is the default number of chunks handed to each callback.
const DefaultBatchSize = 100

// ChunkIterator streams stored chunks in batches.
type ChunkIterator struct {
	chunks    storage.ChunkRepository
	batchSize int
}

// NewChunkIterator creates a new chunk iterator.
func NewChunkIterator(chunks storage.ChunkRepository, batchSize int) *ChunkIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &ChunkIterator{
		chunks:    chunks,
		batchSize: batchSize,
	}
}

// ForEach calls fn with consecutive batches of chunks in key order. The last
// batch may be short. Iteration stops at the first error from fn.
func (it *ChunkIterator) ForEach(ctx context.Context, fn func([]*core.Chunk) error) error {
	batch := make([]*core.Chunk, 0, it.batchSize)
	err := it.chunks.ScanChunks(ctx, func(c *core.Chunk) error {
		batch = append(batch, c)
		if len(batch) < it.batchSize {
			return nil
		}
		if err := fn(batch); err != nil {
			return err
		}
		batch = make([]*core.Chunk, 0, it.batchSize)
		return nil
	})
	if err != nil {
		return err
	}
	if len(batch) == 0 {
		return nil
	}
	return fn(batch)
}
