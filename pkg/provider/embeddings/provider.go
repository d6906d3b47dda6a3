// Package embeddings defines the Provider interface for text-embedding
// backends.
//
// The matching engine treats "turn normalised text into a fixed-length
// vector" as an external capability: phrase and centroid vectors are
// precomputed once through a Provider and cached, and only the live query is
// embedded per request. Semantically closer texts must yield higher cosine
// similarity between their vectors.
//
// Implementations must be safe for concurrent use.
package embeddings

import "context"

// Provider is the abstraction over any text-embedding backend.
//
// All vectors returned by a single Provider instance share the same
// dimensionality (Dimensions). Vectors from different Provider instances
// must not be mixed in one similarity computation unless both use the same
// model.
type Provider interface {
	// Embed computes the embedding vector for a single text string. Returns
	// a float32 slice of length Dimensions() or an error when the request
	// fails or ctx is cancelled. Embedding must be deterministic for
	// identical input. Implementations never substitute a zero or partial
	// vector for a failed request.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch computes vectors for a slice of texts in a single backend
	// call. The result has the same length and order as texts. On error the
	// whole result is nil; partial results are never returned.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the fixed length of every vector produced by this
	// provider, constant for the lifetime of the instance.
	Dimensions() int

	// ModelID returns the backend-specific model identifier (e.g.
	// "text-embedding-3-small"). Together with the inventory content hash it
	// keys the persisted vector cache: a model change invalidates cached
	// phrase and centroid vectors.
	ModelID() string
}
