// Package vectorstore defines the embedding cache used for semantic
// case retrieval.
package vectorstore

import (
	"context"
	"errors"
)

// Sentinel errors for vector store operations.
var (
	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrEmptyDocuments indicates empty or nil documents.
	ErrEmptyDocuments = errors.New("empty or nil documents")

	// ErrEmbeddingFailed indicates embedding generation failure.
	ErrEmbeddingFailed = errors.New("failed to generate embeddings")
)

// Embedder generates vector embeddings from text.
//
// Embeddings are dense numerical representations that capture semantic
// meaning, enabling similarity search. The core is agnostic to the
// backing model; test doubles return deterministic fixed vectors.
type Embedder interface {
	// EmbedDocuments generates embeddings for multiple texts.
	// Returns one embedding per input text, in order.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery generates an embedding for a single query.
	// Some models optimize differently for queries vs documents.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Store is the case-id keyed embedding cache.
//
// Documents are embedded once at add time and persisted, so ranking a
// query never re-embeds unchanged cases. Adding a document with an
// existing ID replaces it (re-embedding the new content), which is how
// edits invalidate stale vectors.
type Store interface {
	// AddDocuments embeds and stores documents. Returns the stored IDs.
	AddDocuments(ctx context.Context, docs []Document) ([]string, error)

	// Search returns up to k documents ordered by cosine similarity to
	// the query, highest first. An empty cache yields an empty slice.
	Search(ctx context.Context, query string, k int) ([]SearchResult, error)

	// DeleteDocuments removes cached entries by ID.
	DeleteDocuments(ctx context.Context, ids []string) error

	// Count returns the number of cached entries.
	Count(ctx context.Context) (int, error)

	// Close releases resources held by the store.
	Close() error
}
