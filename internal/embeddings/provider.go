// Package embeddings provides embedding generation for case retrieval.
//
// The core treats the embedding model as an opaque capability behind
// the Provider interface; the shipped implementation talks to a TEI
// (text-embeddings-inference) compatible HTTP endpoint.
package embeddings

import (
	"errors"
	"strings"

	"github.com/fyrsmithlabs/remedyd/internal/vectorstore"
)

var (
	// ErrEmptyInput indicates empty or nil input texts.
	ErrEmptyInput = errors.New("empty or nil input texts")

	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrBackendUnavailable indicates the embedding backend failed or
	// timed out. This is the only hard failure the retrieval path
	// surfaces; callers should retry with backoff or fall back to a
	// degraded non-semantic match.
	ErrBackendUnavailable = errors.New("embedding backend unavailable")
)

// Provider is the interface for embedding providers.
type Provider interface {
	vectorstore.Embedder
	// Dimension returns the embedding dimension for the current model.
	Dimension() int
	// Close releases resources held by the provider.
	Close() error
}

// detectDimensionFromModel returns the embedding dimension for a model
// name. Falls back to 384 if the model is unknown.
func detectDimensionFromModel(model string) int {
	switch {
	case strings.Contains(model, "base"):
		return 768
	case strings.Contains(model, "large"):
		return 1024
	case strings.Contains(model, "small"), strings.Contains(model, "mini"):
		return 384
	default:
		return 384
	}
}
