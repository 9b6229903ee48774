// Package agent contains the conversation driver: the turn loop that streams
// model responses, reassembles them from deltas, dispatches tool calls and
// feeds results back until the model stops asking for tools or the turn
// budget runs out.
package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/osintworks/robin/core"
	"github.com/osintworks/robin/logging"
	"github.com/osintworks/robin/model"
	"github.com/osintworks/robin/tool"
)

// Hooks observe the turn loop. All hooks are optional. OnText fires per text
// delta as it streams; OnToolStart fires in block order before any tool of a
// turn executes; OnToolEnd fires as each tool completes with its execution
// time, possibly from worker goroutines.
type Hooks struct {
	OnText      func(text string)
	OnToolStart func(callID, name string, args map[string]any)
	OnToolEnd   func(callID, name string, dur time.Duration, result string, isError bool)
}

// Options configure the agent driver.
type Options struct {
	SystemPrompt string
	MaxTurns     int
	MaxTokens    int64
	Logger       logging.Logger
	Hooks        Hooks
}

// Result summarizes one completed investigation segment.
type Result struct {
	Text      string        `json:"text"`
	NumTurns  int           `json:"num_turns"`
	Duration  time.Duration `json:"duration"`
	ToolsUsed []string      `json:"tools_used,omitempty"`
}

// Agent drives a tool-using conversation against a streaming model. One agent
// owns one conversation; the driver is its only writer. The progress sink is
// injected per segment so concurrent sessions never observe each other.
type Agent struct {
	model    model.Model
	registry *tool.Registry
	conv     *core.Conversation
	opts     Options

	mu   sync.RWMutex
	sink core.ProgressSink
}

// New creates an agent driver around a model and tool registry.
func New(m model.Model, registry *tool.Registry, optFns ...func(o *Options)) *Agent {
	opts := Options{
		SystemPrompt: systemPrompt,
		MaxTurns:     20,
		MaxTokens:    4096,
		Logger:       logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.MaxTurns <= 0 {
		opts.MaxTurns = 20
	}

	return &Agent{
		model:    m,
		registry: registry,
		conv:     core.NewConversation(),
		opts:     opts,
		sink:     core.NopSink{},
	}
}

// SetProgressSink installs the sink receiving tool-internal progress for the
// next segment. Pass nil to detach.
func (a *Agent) SetProgressSink(sink core.ProgressSink) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if sink == nil {
		sink = core.NopSink{}
	}
	a.sink = sink
}

func (a *Agent) progressSink() core.ProgressSink {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.sink
}

// Investigate starts a fresh investigation, discarding any prior history.
func (a *Agent) Investigate(ctx context.Context, query string) (Result, error) {
	a.conv.Reset()
	return a.run(ctx, query)
}

// FollowUp continues the existing conversation with another user message.
// Prior findings stay in context.
func (a *Agent) FollowUp(ctx context.Context, message string) (Result, error) {
	return a.run(ctx, message)
}

// Reset clears the conversation history.
func (a *Agent) Reset() { a.conv.Reset() }

// History returns a copy of the conversation so far.
func (a *Agent) History() []core.Content { return a.conv.Messages() }

// Turns returns the number of assistant turns processed so far.
func (a *Agent) Turns() int { return a.conv.Turns() }

// run appends the user message and loops: stream a response, execute any
// requested tools, feed results back. The loop ends when the model stops
// without requesting tools or the turn budget is exhausted; exhaustion is a
// normal completion, not an error. Only upstream stream errors abort.
func (a *Agent) run(ctx context.Context, message string) (Result, error) {
	started := time.Now()
	a.conv.SetState(core.StateRunning)
	a.conv.Append(core.NewUserText(message))

	var fullText string
	var toolsUsed []string
	seenTools := map[string]bool{}
	turns := 0

	for turns < a.opts.MaxTurns {
		turns++
		a.conv.BeginTurn()

		acc, err := a.streamTurn(ctx)
		if err != nil {
			a.conv.SetState(core.StateFailed)
			return Result{}, err
		}

		assistantMsg := acc.message()
		a.conv.Append(assistantMsg)
		fullText += acc.text()

		if acc.stopReason != model.StopToolUse {
			break
		}

		uses := acc.toolUses()
		if len(uses) == 0 {
			// Defensive: a tool_use stop without tool blocks would
			// otherwise loop forever.
			break
		}

		for _, use := range uses {
			if !seenTools[use.Name] {
				seenTools[use.Name] = true
				toolsUsed = append(toolsUsed, use.Name)
			}
		}

		resultsMsg := a.dispatchAll(ctx, uses)
		a.conv.Append(resultsMsg)
	}

	a.conv.SetState(core.StateDone)

	result := Result{
		Text:      fullText,
		NumTurns:  turns,
		Duration:  time.Since(started),
		ToolsUsed: toolsUsed,
	}

	a.opts.Logger.Info("segment complete", "turns", turns, "tools", len(toolsUsed), "duration", result.Duration)

	return result, nil
}

// streamTurn issues one model request and folds the event stream into an
// accumulator. A non-nil error from the stream aborts the turn; whatever was
// accumulated is discarded.
func (a *Agent) streamTurn(ctx context.Context) (*accumulator, error) {
	req := model.Request{
		System:    a.opts.SystemPrompt,
		Messages:  a.conv.Messages(),
		Tools:     a.registry.Definitions(),
		MaxTokens: a.opts.MaxTokens,
	}

	events, errs := a.model.Stream(ctx, req)

	acc := newAccumulator()
	for ev := range events {
		acc.apply(ev)
		if ev.Kind == model.KindTextDelta && a.opts.Hooks.OnText != nil {
			a.opts.Hooks.OnText(ev.Text)
		}
	}
	if err := <-errs; err != nil {
		return nil, fmt.Errorf("model stream: %w", err)
	}
	if !acc.stopped {
		return nil, fmt.Errorf("model stream ended without message stop")
	}
	return acc, nil
}

// dispatchAll executes every tool call of a turn concurrently and assembles
// their results into one user message, ordered like the requests. The
// all-complete barrier holds the next model request until every call has a
// result slot filled.
func (a *Agent) dispatchAll(ctx context.Context, uses []core.ToolUsePart) core.Content {
	sink := a.progressSink()

	if a.opts.Hooks.OnToolStart != nil {
		for _, use := range uses {
			a.opts.Hooks.OnToolStart(use.ID, use.Name, use.Input)
		}
	}

	type slot struct {
		text    string
		isError bool
	}
	slots := make([]slot, len(uses))

	var wg sync.WaitGroup
	for i, use := range uses {
		wg.Add(1)
		go func(idx int, use core.ToolUsePart) {
			defer wg.Done()

			tctx := tool.NewContext(ctx, a.opts.Logger, sink, use.ID)
			started := time.Now()
			text, isError := a.registry.Dispatch(tctx, use.Name, use.Input)
			slots[idx] = slot{text: text, isError: isError}

			if a.opts.Hooks.OnToolEnd != nil {
				a.opts.Hooks.OnToolEnd(use.ID, use.Name, time.Since(started), text, isError)
			}
		}(i, use)
	}
	wg.Wait()

	parts := make([]core.Part, len(uses))
	for i, use := range uses {
		parts[i] = core.ToolResultPart{
			ToolUseID: use.ID,
			Content:   slots[i].text,
			IsError:   slots[i].isError,
		}
	}
	return core.Content{Role: "user", Parts: parts}
}
