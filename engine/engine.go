package engine

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/Gh0stWires/T-800-server/core"
	"github.com/Gh0stWires/T-800-server/memory"
	"github.com/Gh0stWires/T-800-server/model"
)

// DefaultAgentName is used when a request names no agent.
const DefaultAgentName = "Miss Minutes"

// Engine is the conversation use-case layer. One Converse call runs the full
// pipeline: persist the question, maybe summarize, retrieve the memory
// window, assemble the prompt, stream the model call through the think
// parser, and persist the assistant's reply.
type Engine struct {
	memory *memory.Manager
	model  model.Model

	agentName    string
	temperature  float64
	maxTokens    int64
	modelTimeout time.Duration
}

// Option configures the engine.
type Option func(*Engine)

// WithAgentName overrides the default agent persona name.
func WithAgentName(name string) Option {
	return func(e *Engine) {
		e.agentName = name
	}
}

// WithChatParams sets sampling temperature and token budget for the
// conversational model call.
func WithChatParams(temperature float64, maxTokens int64) Option {
	return func(e *Engine) {
		e.temperature = temperature
		e.maxTokens = maxTokens
	}
}

// WithModelTimeout bounds each streaming model call. Zero disables the bound.
func WithModelTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.modelTimeout = d
	}
}

// New creates an engine over a memory manager and a chat model.
func New(mgr *memory.Manager, mdl model.Model, opts ...Option) *Engine {
	e := &Engine{
		memory:      mgr,
		model:       mdl,
		agentName:   DefaultAgentName,
		temperature: 0.7,
		maxTokens:   2500,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ConverseRequest is one incoming chat message.
type ConverseRequest struct {
	UserID               string
	Question             string
	AgentName            string
	SystemPromptOverride string
}

// Converse runs the pipeline and returns a lazily produced event stream plus
// an error channel. Both channels are closed when the request finishes; a
// terminal failure is delivered on the error channel, never as a silent
// truncation. The events channel is unbuffered: the pipeline does not
// advance the model stream faster than the caller drains it.
func (e *Engine) Converse(ctx context.Context, req ConverseRequest) (<-chan core.StreamEvent, <-chan error) {
	events := make(chan core.StreamEvent)
	errCh := make(chan error, 1)

	go func() {
		defer close(events)
		defer close(errCh)

		if strings.TrimSpace(req.Question) == "" {
			errCh <- core.ErrEmptyInput
			return
		}
		agentName := req.AgentName
		if agentName == "" {
			agentName = e.agentName
		}

		// The question is persisted before the model is ever invoked; a
		// store failure aborts the request outright.
		if _, err := e.memory.Append(ctx, req.UserID, core.RoleUser, req.Question); err != nil {
			errCh <- fmt.Errorf("persist question: %w", err)
			return
		}

		if _, err := e.memory.MaybeSummarize(ctx, req.UserID, agentName); err != nil {
			errCh <- fmt.Errorf("summarize history: %w", err)
			return
		}

		summary, recent, err := e.memory.Retrieve(ctx, req.UserID)
		if err != nil {
			errCh <- fmt.Errorf("retrieve memory: %w", err)
			return
		}

		messages := buildPrompt(agentName, req.UserID, req.SystemPromptOverride, summary, recent, req.Question)

		mctx := ctx
		if e.modelTimeout > 0 {
			var cancel context.CancelFunc
			mctx, cancel = context.WithTimeout(ctx, e.modelTimeout)
			defer cancel()
		}

		respCh, modelErrCh := e.model.Generate(mctx, model.Request{
			Messages:    messages,
			Temperature: e.temperature,
			MaxTokens:   e.maxTokens,
			Stream:      true,
		})

		parser := newThinkParser()
		var raw strings.Builder
		delivering := true
		for resp := range respCh {
			if !resp.Partial {
				// Final aggregate chunk; raw is built from the deltas.
				continue
			}
			raw.WriteString(resp.Text)
			if !delivering {
				continue
			}
			for _, ev := range parser.Feed(resp.Text) {
				select {
				case events <- ev:
				case <-ctx.Done():
					// Caller stopped draining. Keep accumulating what the
					// upstream delivers before it notices, stop emitting.
					delivering = false
				}
				if !delivering {
					break
				}
			}
		}
		streamErr := <-modelErrCh

		// Persist whatever arrived even on a broken or cancelled stream.
		// The persisted content is the raw concatenation of every delta,
		// delimiter markup and thinking text included.
		if full := strings.TrimSpace(raw.String()); full != "" {
			pctx := context.WithoutCancel(ctx)
			if _, err := e.memory.Append(pctx, req.UserID, core.RoleAssistant, full); err != nil {
				log.Printf("[ENGINE] Failed to persist assistant turn for user %s: %v", req.UserID, err)
				if streamErr == nil {
					streamErr = fmt.Errorf("persist assistant turn: %w", err)
				}
			}
		}
		if streamErr != nil {
			errCh <- streamErr
		}
	}()

	return events, errCh
}
