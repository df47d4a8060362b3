package core

// Stream event types emitted by the conversation pipeline.
const (
	// EventThinking carries the model's internal reasoning, extracted from
	// the paired think delimiters. At most one per stream.
	EventThinking = "thinking"

	// EventResponse carries user-visible answer text, emitted incrementally.
	EventResponse = "response"
)

// StreamEvent is one incremental unit of a model reply after demultiplexing.
// Events are not persisted individually; only the concatenated raw response
// is stored as the assistant turn.
type StreamEvent struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}
