package reindex

import (
	"context"
	"fmt"
	"time"

	"github.com/poiesic/personalmind/ai"
	"github.com/poiesic/personalmind/core"
	"github.com/poiesic/personalmind/index"
	"github.com/poiesic/personalmind/storage"
)

// BatchProcessor re-embeds batches of chunks.
type BatchProcessor struct {
	chunks         storage.ChunkRepository
	embedder       ai.Embedder
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewBatchProcessor creates a new batch processor.
func NewBatchProcessor(chunks storage.ChunkRepository, embedder ai.Embedder, maxRetries int, retryBaseDelay time.Duration) *BatchProcessor {
	return &BatchProcessor{
		chunks:         chunks,
		embedder:       embedder,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
	}
}

// Process embeds the text of each chunk and writes the normalized vectors
// back, keeping every other field.
func (bp *BatchProcessor) Process(ctx context.Context, batch []*core.Chunk) error {
	if len(batch) == 0 {
		return nil
	}

	texts := make([]string, len(batch))
	for i, c := range batch {
		texts[i] = c.Text
	}

	var vectors [][]float32
	err := RetryWithBackoff(ctx, func() error {
		var err error
		vectors, err = bp.embedder.EmbedTexts(ctx, texts)
		return err
	}, bp.maxRetries, bp.retryBaseDelay)
	if err != nil {
		return fmt.Errorf("generating embeddings after %d attempts: %w", bp.maxRetries, err)
	}
	if len(vectors) != len(batch) {
		return fmt.Errorf("%w: expected %d vectors, got %d", index.ErrEmbeddingMismatch, len(batch), len(vectors))
	}

	for i, c := range batch {
		c.Vector = index.NormalizeVector(vectors[i])
	}
	if err := bp.chunks.PutChunks(ctx, batch...); err != nil {
		return fmt.Errorf("writing chunks: %w", err)
	}
	return nil
}
