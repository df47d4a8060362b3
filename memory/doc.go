// Package memory maintains per-user long-term conversation memory over a
// vector store.
//
// Turns are append-only and immutable. The Manager reconstructs a bounded
// conversation window per request (latest summary plus the turns written
// after it) and periodically folds the oldest turns into a single synthetic
// summary turn to bound context growth.
//
// Architecture:
//   - Store: vector storage backend (chromem-go for persistence, in-memory
//     for dev and tests)
//   - Embedder: text-to-vector conversion (remote endpoint, with an optional
//     ristretto cache in front)
//   - Manager: append, windowed retrieval and summarization, with a per-user
//     critical section around the summarizer's read-then-delete span
//
// Summarization ordering is the load-bearing invariant: the replacing
// summary turn is written before any summarized turn is deleted, so a model
// or store failure can never lose conversation history.
package memory
