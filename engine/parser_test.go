package engine

import (
	"testing"

	"github.com/Gh0stWires/T-800-server/core"
)

func feedAll(p *thinkParser, deltas ...string) []core.StreamEvent {
	var events []core.StreamEvent
	for _, d := range deltas {
		events = append(events, p.Feed(d)...)
	}
	return events
}

func TestThinkParserSplitAcrossDeltas(t *testing.T) {
	p := newThinkParser()

	// The delimiters arrive fragmented across chunk boundaries.
	deltas := []string{"Hello ", "<thi", "nk>plan</thi", "nk> world"}

	if got := p.Feed(deltas[0]); got != nil {
		t.Fatalf("no events before the open delimiter, got %+v", got)
	}
	if got := p.Feed(deltas[1]); got != nil {
		t.Fatalf("no events on a partial open delimiter, got %+v", got)
	}
	if got := p.Feed(deltas[2]); got != nil {
		t.Fatalf("no events until the close delimiter completes, got %+v", got)
	}

	events := p.Feed(deltas[3])
	if len(events) != 2 {
		t.Fatalf("expected thinking + response, got %+v", events)
	}
	if events[0].Type != core.EventThinking || events[0].Content != "plan" {
		t.Errorf("thinking event = %+v", events[0])
	}
	if events[1].Type != core.EventResponse || events[1].Content != " world" {
		t.Errorf("response event = %+v, want the post-delimiter text verbatim", events[1])
	}
}

func TestThinkParserSingleDelta(t *testing.T) {
	p := newThinkParser()
	events := p.Feed("ignored<think>  the plan  </think> answer")

	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %+v", events)
	}
	if events[0].Content != "the plan" {
		t.Errorf("thinking content should be trimmed, got %q", events[0].Content)
	}
	if events[1].Content != " answer" {
		t.Errorf("response content keeps its whitespace, got %q", events[1].Content)
	}
}

func TestThinkParserPassthroughAfterClose(t *testing.T) {
	p := newThinkParser()
	feedAll(p, "<think>x</think>hi")

	events := p.Feed("  more  ")
	if len(events) != 1 || events[0].Type != core.EventResponse || events[0].Content != "  more  " {
		t.Fatalf("post-close deltas must pass through verbatim, got %+v", events)
	}
}

func TestThinkParserBlankAfterClose(t *testing.T) {
	p := newThinkParser()

	events := p.Feed("<think>p</think>   ")
	if len(events) != 1 || events[0].Type != core.EventThinking {
		t.Fatalf("blank trailing text must not emit a response event, got %+v", events)
	}

	// Passthrough still engages for the next delta.
	events = p.Feed("hello")
	if len(events) != 1 || events[0].Content != "hello" {
		t.Fatalf("expected passthrough after blank tail, got %+v", events)
	}
}

func TestThinkParserNoDelimiters(t *testing.T) {
	p := newThinkParser()
	if events := feedAll(p, "just ", "plain ", "text"); events != nil {
		t.Fatalf("a stream without delimiters emits nothing, got %+v", events)
	}
}

func TestThinkParserAtMostOneThinking(t *testing.T) {
	p := newThinkParser()
	events := feedAll(p, "<think>a</think>x", "<think>b</think>y")

	thinking := 0
	for _, ev := range events {
		if ev.Type == core.EventThinking {
			thinking++
		}
	}
	if thinking != 1 {
		t.Fatalf("expected exactly one thinking event, got %d in %+v", thinking, events)
	}
	// The second delimiter pair is treated as literal response text.
	last := events[len(events)-1]
	if last.Type != core.EventResponse || last.Content != "<think>b</think>y" {
		t.Errorf("later delimiters must pass through verbatim, got %+v", last)
	}
}

func TestThinkParserEmptyDelta(t *testing.T) {
	p := newThinkParser()
	if events := p.Feed(""); events != nil {
		t.Fatalf("empty delta must emit nothing, got %+v", events)
	}
}
