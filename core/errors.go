package core

import "errors"

// Error taxonomy for the conversation pipeline. Store and model errors are
// fatal for the current request and propagate to the caller; id parse
// failures are recovered locally with a sentinel timestamp and never surface.
var (
	// ErrStoreUnavailable indicates a message store read or write failed.
	ErrStoreUnavailable = errors.New("message store unavailable")

	// ErrEmbeddingUnavailable indicates the embedding call failed, which is
	// fatal for the write that needed it.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrModelUnavailable indicates the chat completion call failed.
	ErrModelUnavailable = errors.New("chat model unavailable")

	// ErrModelTimeout indicates the chat completion call exceeded its deadline.
	ErrModelTimeout = errors.New("chat model timed out")

	// ErrEmptyInput indicates a blank question, rejected before any store or
	// model interaction.
	ErrEmptyInput = errors.New("empty input")
)
