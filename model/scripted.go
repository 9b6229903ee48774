package model

import (
	"context"
	"sync"
)

// Script is one canned streamed response played back by ScriptedModel.
// Err, when set, is delivered on the error channel after the events.
type Script struct {
	Events []StreamEvent
	Err    error
}

// ScriptedCall describes a tool invocation inside a scripted response. The
// argument text is emitted as one input_json_delta per fragment, letting
// tests exercise partial-JSON reconstruction.
type ScriptedCall struct {
	ID           string
	Name         string
	ArgFragments []string
}

// TextScript builds a response that streams text and stops naturally.
func TextScript(text string) Script {
	events := []StreamEvent{
		{Kind: KindBlockStart, Index: 0, Block: BlockInfo{Type: BlockText}},
		{Kind: KindTextDelta, Index: 0, Text: text},
		{Kind: KindBlockStop, Index: 0},
		{Kind: KindMessageStop, StopReason: StopEndTurn},
	}
	return Script{Events: events}
}

// ToolUseScript builds a response that streams optional leading text followed
// by the given tool invocations, stopping with reason tool_use.
func ToolUseScript(text string, calls ...ScriptedCall) Script {
	var events []StreamEvent
	idx := 0
	if text != "" {
		events = append(events,
			StreamEvent{Kind: KindBlockStart, Index: idx, Block: BlockInfo{Type: BlockText}},
			StreamEvent{Kind: KindTextDelta, Index: idx, Text: text},
			StreamEvent{Kind: KindBlockStop, Index: idx},
		)
		idx++
	}
	for _, c := range calls {
		events = append(events, StreamEvent{
			Kind:  KindBlockStart,
			Index: idx,
			Block: BlockInfo{Type: BlockToolUse, ID: c.ID, Name: c.Name},
		})
		for _, frag := range c.ArgFragments {
			events = append(events, StreamEvent{Kind: KindInputJSONDelta, Index: idx, PartialJSON: frag})
		}
		events = append(events, StreamEvent{Kind: KindBlockStop, Index: idx})
		idx++
	}
	events = append(events, StreamEvent{Kind: KindMessageStop, StopReason: StopToolUse})
	return Script{Events: events}
}

// ScriptedModel is a lightweight in-memory Model useful for tests & examples.
// Each Stream call plays back the next enqueued script; when the queue is
// empty it falls back to a plain text response. Requests are recorded for
// later inspection.
type ScriptedModel struct {
	mu       sync.Mutex
	scripts  []Script
	requests []Request
	fallback string
}

// NewScriptedModel constructs an empty ScriptedModel.
func NewScriptedModel() *ScriptedModel {
	return &ScriptedModel{fallback: "Scripted response."}
}

// Enqueue appends scripts to the playback queue.
func (m *ScriptedModel) Enqueue(scripts ...Script) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scripts = append(m.scripts, scripts...)
}

// Requests returns a copy of every Request received so far.
func (m *ScriptedModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// Stream implements Model by playing back the next script.
func (m *ScriptedModel) Stream(ctx context.Context, req Request) (<-chan StreamEvent, <-chan error) {
	out := make(chan StreamEvent, 32)
	errCh := make(chan error, 1)

	m.mu.Lock()
	m.requests = append(m.requests, req)
	script := TextScript(m.fallback)
	if len(m.scripts) > 0 {
		script = m.scripts[0]
		m.scripts = m.scripts[1:]
	}
	m.mu.Unlock()

	go func() {
		defer close(out)
		defer close(errCh)
		for _, ev := range script.Events {
			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			case out <- ev:
			}
		}
		if script.Err != nil {
			errCh <- script.Err
		}
	}()

	return out, errCh
}

// Info implements Model.
func (m *ScriptedModel) Info() Info {
	return Info{Name: "scripted", Provider: "test", SupportsTools: true}
}
