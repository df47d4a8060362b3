package model

import (
	"context"
	"fmt"
	"strings"

	"github.com/Gh0stWires/T-800-server/core"
)

// Request captures one normalized chat completion call.
type Request struct {
	// Messages is the ordered prompt: system, optional summary note, recent
	// turns, final user question.
	Messages []core.Message

	// Temperature controls sampling. The summarizer uses a low value, the
	// conversational path a higher one.
	Temperature float64

	// MaxTokens bounds the completion length.
	MaxTokens int64

	// Stream selects incremental delta delivery over a single final result.
	Stream bool
}

// Response is a partial or final chunk emitted by a model.
// Streaming calls emit zero or more partial chunks followed by one final
// chunk carrying the full accumulated text.
type Response struct {
	Partial      bool
	Text         string
	FinishReason string
}

// Info contains metadata about a model implementation.
type Info struct {
	Name     string
	Provider string
}

// Model is the single interface the pipeline needs from a chat provider.
// Generate returns a response channel and an error channel; both are closed
// when the call finishes. A terminal failure is delivered on the error
// channel rather than silently truncating the response stream.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Info returns information about the model implementation.
	Info() Info
}

// MockModel is a lightweight in-memory Model for tests and examples.
// Streaming calls replay the configured deltas; non-streaming calls return
// the configured completion. A configured error is returned instead.
type MockModel struct {
	deltas     []string
	completion string
	err        error

	// Calls counts Generate invocations, useful for asserting that a
	// pipeline aborted before reaching the model.
	Calls int
}

// NewMockModel constructs an empty mock. Without configuration it echoes the
// last user message.
func NewMockModel() *MockModel {
	return &MockModel{}
}

// SetDeltas scripts the incremental chunks replayed by streaming calls.
func (m *MockModel) SetDeltas(deltas ...string) { m.deltas = deltas }

// SetCompletion sets the text returned by non-streaming calls.
func (m *MockModel) SetCompletion(text string) { m.completion = text }

// FailWith makes every Generate call fail with err.
func (m *MockModel) FailWith(err error) { m.err = err }

// Generate implements Model.
func (m *MockModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 16)
	errCh := make(chan error, 1)

	m.Calls++

	go func() {
		defer close(respCh)
		defer close(errCh)

		if m.err != nil {
			errCh <- m.err
			return
		}

		if req.Stream {
			var full strings.Builder
			for _, d := range m.deltas {
				select {
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				case respCh <- Response{Partial: true, Text: d}:
					full.WriteString(d)
				}
			}
			respCh <- Response{Text: full.String(), FinishReason: "stop"}
			return
		}

		text := m.completion
		if text == "" {
			text = fmt.Sprintf("Mock response to: %s", lastUserContent(req.Messages))
		}
		respCh <- Response{Text: text, FinishReason: "stop"}
	}()

	return respCh, errCh
}

// Info implements Model.
func (m *MockModel) Info() Info { return Info{Name: "mock", Provider: "mock"} }

func lastUserContent(messages []core.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == core.RoleUser {
			return messages[i].Content
		}
	}
	return ""
}
