// Package index is the semantic vector index over document chunks.
//
// Chunk texts are embedded with an ai.Embedder, normalized to unit length and
// written to a storage.ChunkRepository. Because every stored vector is unit
// length, ranking by dot product ranks by cosine similarity.
package index
