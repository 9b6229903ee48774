package stream

import (
	"context"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/osintworks/robin/core"
	"github.com/osintworks/robin/logging"
)

// Options configure a Bridge.
type Options struct {
	// Keepalive is the idle interval before a keepalive event is emitted to
	// the subscriber. Zero disables keepalives.
	Keepalive time.Duration
	// ToolPreviewChars caps tool result previews. Zero means no cap.
	ToolPreviewChars int
	// AnalysisPreviewChars caps specialist analysis previews. Zero means no cap.
	AnalysisPreviewChars int
	Logger               logging.Logger
}

// Bridge is an unbounded multi-producer single-consumer event queue. Publishes
// never block; the subscriber drains in publish order. A terminal event
// (complete or error) seals the bridge: later publishes are dropped and the
// subscriber channel closes once the queue is drained.
//
// Bridge implements core.ProgressSink so it can be handed to tools directly.
type Bridge struct {
	opts Options

	mu     sync.Mutex
	queue  []Event
	sealed bool
	wake   chan struct{}
}

// NewBridge creates an open bridge.
func NewBridge(optFns ...func(o *Options)) *Bridge {
	opts := Options{
		Keepalive:            30 * time.Second,
		ToolPreviewChars:     500,
		AnalysisPreviewChars: 2000,
		Logger:               logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Bridge{
		opts: opts,
		wake: make(chan struct{}, 1),
	}
}

// publish appends an event unless the bridge is sealed. seal marks the bridge
// closed in the same critical section so the terminal event is always last.
func (b *Bridge) publish(ev Event, seal bool) {
	ev.Timestamp = time.Now()

	b.mu.Lock()
	if b.sealed {
		b.mu.Unlock()
		b.opts.Logger.Debug("event dropped after seal", "type", ev.Type)
		return
	}
	b.queue = append(b.queue, ev)
	if seal {
		b.sealed = true
	}
	b.mu.Unlock()

	select {
	case b.wake <- struct{}{}:
	default:
	}
}

// drain removes and returns all queued events plus the sealed flag.
func (b *Bridge) drain() ([]Event, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	events := b.queue
	b.queue = nil
	return events, b.sealed
}

// Sealed reports whether a terminal event has been published.
func (b *Bridge) Sealed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sealed
}

// Subscribe returns a channel of events in publish order. The channel closes
// after the terminal event has been delivered or when ctx is cancelled.
// Keepalive events are synthesized while the queue stays idle. A bridge
// supports one subscriber.
func (b *Bridge) Subscribe(ctx context.Context) <-chan Event {
	out := make(chan Event, 16)

	go func() {
		defer close(out)

		var timer *time.Timer
		var timeout <-chan time.Time
		if b.opts.Keepalive > 0 {
			timer = time.NewTimer(b.opts.Keepalive)
			defer timer.Stop()
			timeout = timer.C
		}

		resetTimer := func() {
			if timer == nil {
				return
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(b.opts.Keepalive)
		}

		for {
			events, sealed := b.drain()
			for _, ev := range events {
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
			if len(events) > 0 {
				resetTimer()
			}
			if sealed && len(events) == 0 {
				return
			}
			if sealed {
				// Loop once more to confirm the queue is empty.
				continue
			}

			select {
			case <-b.wake:
			case <-timeout:
				select {
				case out <- Event{Type: EventKeepalive, Timestamp: time.Now()}:
				case <-ctx.Done():
					return
				}
				resetTimer()
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

// EmitText publishes a fragment of streamed assistant text.
func (b *Bridge) EmitText(text string) {
	b.publish(Event{Type: EventText, Text: text}, false)
}

// EmitToolStart announces a tool invocation.
func (b *Bridge) EmitToolStart(callID, name string, args map[string]any) {
	b.publish(Event{Type: EventToolStart, CallID: callID, Tool: name, Args: args}, false)
}

// EmitToolEnd publishes a tool completion with its execution time and a
// truncated result preview.
func (b *Bridge) EmitToolEnd(callID, name string, dur time.Duration, result string, isError bool) {
	b.publish(Event{
		Type:       EventToolEnd,
		CallID:     callID,
		Tool:       name,
		DurationMS: dur.Milliseconds(),
		Result:     truncate(result, b.opts.ToolPreviewChars),
		IsError:    isError,
	}, false)
}

// EmitComplete publishes the terminal event of a successful segment and seals
// the bridge.
func (b *Bridge) EmitComplete(text string, numTurns int, dur time.Duration, toolsUsed []string) {
	b.publish(Event{
		Type:       EventComplete,
		Text:       text,
		NumTurns:   numTurns,
		DurationMS: dur.Milliseconds(),
		ToolsUsed:  toolsUsed,
	}, true)
}

// EmitError publishes the terminal event of a failed segment and seals the
// bridge.
func (b *Bridge) EmitError(err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	b.publish(Event{Type: EventError, Error: msg, Code: ErrorCodeInvestigation}, true)
}

// SearchProgress implements core.ProgressSink.
func (b *Bridge) SearchProgress(p core.SearchProgress) {
	b.publish(Event{Type: EventSearchProgress, Search: &p}, false)
}

// SubAgentStarted implements core.ProgressSink.
func (b *Bridge) SubAgentStarted(agentType string) {
	b.publish(Event{Type: EventSubAgentStart, AgentType: agentType}, false)
}

// SubAgentFinished implements core.ProgressSink.
func (b *Bridge) SubAgentFinished(agentType, analysis string, success bool, errMsg string) {
	b.publish(Event{
		Type:      EventSubAgentEnd,
		AgentType: agentType,
		Analysis:  truncate(analysis, b.opts.AnalysisPreviewChars),
		Success:   success,
		Error:     errMsg,
	}, false)
}

func truncate(text string, limit int) string {
	if limit <= 0 || len(text) <= limit {
		return text
	}
	// Back off to a rune boundary so the preview stays valid UTF-8.
	for limit > 0 && !utf8.RuneStart(text[limit]) {
		limit--
	}
	return text[:limit] + "... (truncated)"
}
