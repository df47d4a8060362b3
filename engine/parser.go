package engine

import (
	"strings"

	"github.com/Gh0stWires/T-800-server/core"
)

// Paired delimiters separating the model's internal reasoning from its
// user-facing answer within one continuous token stream.
const (
	thinkOpen  = "<think>"
	thinkClose = "</think>"
)

// thinkParser demultiplexes incremental model deltas into one thinking event
// and response events.
//
// Until both delimiters have fully arrived the parser buffers and emits
// nothing. Once the pair completes it emits the trimmed thinking content,
// then the remainder after the closing delimiter (whitespace preserved) if
// any is non-blank, and from then on passes every delta through verbatim as
// response events. Text preceding the opening delimiter is dropped from the
// event stream; the orchestrator's raw accumulation still retains it for
// persistence.
type thinkParser struct {
	buffer string
	found  bool
}

func newThinkParser() *thinkParser {
	return &thinkParser{}
}

// Feed consumes one delta and returns the events it completes, in order.
func (p *thinkParser) Feed(delta string) []core.StreamEvent {
	if delta == "" {
		return nil
	}
	if p.found {
		return []core.StreamEvent{{Type: core.EventResponse, Content: delta}}
	}

	p.buffer += delta
	open := strings.Index(p.buffer, thinkOpen)
	if open < 0 {
		return nil
	}
	rest := p.buffer[open+len(thinkOpen):]
	end := strings.Index(rest, thinkClose)
	if end < 0 {
		return nil
	}

	after := rest[end+len(thinkClose):]
	events := []core.StreamEvent{{
		Type:    core.EventThinking,
		Content: strings.TrimSpace(rest[:end]),
	}}
	if strings.TrimSpace(after) != "" {
		events = append(events, core.StreamEvent{Type: core.EventResponse, Content: after})
	}

	p.found = true
	p.buffer = ""
	return events
}
