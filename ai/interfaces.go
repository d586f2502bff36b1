package ai

import "context"

// Oracle is a black-box text generation service.
// Implementations must be thread-safe for concurrent use.
type Oracle interface {
	// Complete sends a single prompt and returns the trimmed reply text.
	// There is no streaming and no conversation state between calls.
	Complete(ctx context.Context, prompt string, temperature float64, maxTokens int) (string, error)
}

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input texts.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
type AIProvider interface {
	// Oracle returns the text generation service.
	Oracle() Oracle

	// Embedder returns the text embedding service.
	Embedder() Embedder

	// Close releases resources held by the provider and its services.
	Close() error
}
