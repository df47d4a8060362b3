package memory

import (
	"context"

	"github.com/Gh0stWires/T-800-server/core"
)

// Store is the vector storage backend for conversation turns.
// Implementations: chromem (persistent, embedded vector DB) and inmem
// (process-local, for dev and tests).
//
// Stores are dumb: they persist pre-embedded turns and retrieve them by
// user. Ordering, windowing and summarization live in the Manager.
type Store interface {
	// Add persists a turn. The turn must have its embedding set.
	Add(ctx context.Context, turn core.Turn) error

	// ListByUser returns all turns for a user, in no particular order.
	// Callers sort by the id's trailing timestamp.
	ListByUser(ctx context.Context, userID string) ([]core.Turn, error)

	// DeleteByIDs removes the given turns. Unknown ids are a no-op.
	DeleteByIDs(ctx context.Context, userID string, ids []string) error

	// Close releases resources.
	Close() error
}

// Embedder converts text to vector embeddings.
// Implementations: remote (OpenAI-compatible endpoint), cache (ristretto
// decorator), mock (deterministic, for tests).
type Embedder interface {
	// Embed converts a single text to an embedding vector.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the embedding vector size.
	Dimensions() int
}
