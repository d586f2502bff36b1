// Package reindex re-embeds every chunk in the vector index, typically after
// the embedding model has changed.
//
// Chunks are streamed from storage in batches, embedded with retry and
// exponential backoff, normalized to unit length and written back in place.
// Progress is reported to a writer as the run advances.
package reindex
