// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package reindex

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/personalmind/ai"
	"github.com/poiesic/personalmind/core"
	"github.com/poiesic/personalmind/storage"
)

// Config holds configuration for a re-indexing run.
type Config struct {
	// BatchSize is the number of chunks embedded per request
	BatchSize int

	// ReportInterval is how often to report progress (number of chunks)
	ReportInterval int

	// MaxRetries is the maximum number of attempts per batch
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      DefaultBatchSize,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Reindexer re-embeds all chunks in the index.
type Reindexer struct {
	chunks    storage.ChunkRepository
	config    *Config
	progress  io.Writer
	processor *BatchProcessor
	iterator  *ChunkIterator
	logger    *slog.Logger
}

// NewReindexer creates a Reindexer. A nil config uses DefaultConfig and a
// nil progress writer discards progress output.
func NewReindexer(chunks storage.ChunkRepository, embedder ai.Embedder, config *Config, progress io.Writer) (*Reindexer, error) {
	if chunks == nil {
		return nil, ErrRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if progress == nil {
		progress = io.Discard
	}

	return &Reindexer{
		chunks:    chunks,
		config:    config,
		progress:  progress,
		processor: NewBatchProcessor(chunks, embedder, config.MaxRetries, config.RetryDelay),
		iterator:  NewChunkIterator(chunks, config.BatchSize),
		logger:    slog.Default().With("component", "reindex"),
	}, nil
}

// Run re-embeds every stored chunk and returns how many were processed.
// A failed batch stops the run; chunks in earlier batches keep their new
// vectors.
func (r *Reindexer) Run(ctx context.Context) (int, error) {
	total, err := r.chunks.CountChunks(ctx)
	if err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	if total == 0 {
		fmt.Fprintf(r.progress, "No chunks found in index (0 chunks)\n")
		return 0, nil
	}

	fmt.Fprintf(r.progress, "Starting re-indexing of %d chunks (batch size: %d)\n",
		total, r.iterator.batchSize)
	r.logger.Info("reindex started", "chunks", total)

	tracker := NewProgressTracker(r.progress, total, r.config.ReportInterval)
	tracker.Start()

	processed := 0
	err = r.iterator.ForEach(ctx, func(batch []*core.Chunk) error {
		if err := r.processor.Process(ctx, batch); err != nil {
			return fmt.Errorf("processing batch at chunk %d: %w", processed, err)
		}
		processed += len(batch)
		tracker.Increment(len(batch))
		return nil
	})
	if err != nil {
		r.logger.Error("reindex failed", "processed", processed, "err", err)
		return processed, err
	}

	tracker.Finish()
	elapsed := tracker.Elapsed()
	fmt.Fprintf(r.progress, "Re-indexing complete. Processed %d chunks in %v\n",
		processed, elapsed.Round(time.Millisecond))
	r.logger.Info("reindex finished", "processed", processed, "elapsed", elapsed)
	return processed, nil
}
