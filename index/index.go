package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/poiesic/personalmind/ai"
	"github.com/poiesic/personalmind/core"
	"github.com/poiesic/personalmind/storage"
)

var (
	ErrEmbedderRequired   = errors.New("embedder required")
	ErrRepositoryRequired = errors.New("chunk repository required")
	ErrEmbeddingMismatch  = errors.New("embedding result mismatch")
)

// Entry is one chunk text to index along with its metadata.
type Entry struct {
	DocumentID core.ID
	Ordinal    int
	Text       string
	Title      string
	Category   core.Category
}

// Option configures a VectorIndex.
type Option func(*VectorIndex)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(v *VectorIndex) {
		v.logger = logger.With("component", "index")
	}
}

// WithMinSimilarity drops query matches scoring below min.
func WithMinSimilarity(min float32) Option {
	return func(v *VectorIndex) {
		v.minSimilarity = min
	}
}

// VectorIndex embeds and stores chunks, and answers nearest-neighbour queries.
type VectorIndex struct {
	embedder      ai.Embedder
	chunks        storage.ChunkRepository
	minSimilarity float32
	logger        *slog.Logger
}

// New creates a VectorIndex.
func New(embedder ai.Embedder, chunks storage.ChunkRepository, opts ...Option) (*VectorIndex, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if chunks == nil {
		return nil, ErrRepositoryRequired
	}
	v := &VectorIndex{
		embedder: embedder,
		chunks:   chunks,
		// Unit vectors never score below -1, so by default nothing is dropped.
		minSimilarity: -1,
		logger:        slog.Default().With("component", "index"),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// Add embeds entries in one batch and writes them. Any chunks previously
// stored for the affected documents are removed first, so a re-indexed
// document is superseded rather than merged.
func (v *VectorIndex) Add(ctx context.Context, entries ...Entry) ([]*core.Chunk, error) {
	if len(entries) == 0 {
		return nil, nil
	}

	texts := make([]string, len(entries))
	for i, e := range entries {
		texts[i] = e.Text
	}

	v.logger.Debug("embedding chunks", "chunks", len(texts))
	vectors, err := v.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		v.logger.Error("error generating embeddings", "err", err)
		return nil, err
	}
	if len(vectors) != len(entries) {
		return nil, fmt.Errorf("%w: expected %d, received %d", ErrEmbeddingMismatch, len(entries), len(vectors))
	}

	chunks := make([]*core.Chunk, len(entries))
	seen := make(map[core.ID]bool)
	for i, e := range entries {
		chunks[i] = &core.Chunk{
			Id:         core.ChunkID(e.DocumentID, e.Ordinal),
			DocumentId: e.DocumentID,
			Ordinal:    e.Ordinal,
			Text:       e.Text,
			Title:      e.Title,
			Category:   e.Category,
			Vector:     NormalizeVector(vectors[i]),
		}
		if seen[e.DocumentID] {
			continue
		}
		seen[e.DocumentID] = true
		removed, err := v.chunks.DeleteDocumentChunks(ctx, e.DocumentID)
		if err != nil {
			return nil, err
		}
		if removed > 0 {
			v.logger.Debug("superseded chunks", "document_id", e.DocumentID, "removed", removed)
		}
	}

	if err := v.chunks.PutChunks(ctx, chunks...); err != nil {
		return nil, err
	}
	return chunks, nil
}

// Query returns up to k chunks nearest to text, best first.
func (v *VectorIndex) Query(ctx context.Context, text string, k int) ([]*core.ChunkMatch, error) {
	if k <= 0 {
		return nil, nil
	}
	vector, err := v.embedder.EmbedText(ctx, text)
	if err != nil {
		return nil, err
	}
	return v.chunks.FindSimilar(ctx, NormalizeVector(vector), v.minSimilarity, k)
}

// Count returns the number of indexed chunks.
func (v *VectorIndex) Count(ctx context.Context) (int, error) {
	return v.chunks.CountChunks(ctx)
}
