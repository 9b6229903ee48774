// Package tool defines the callable tools exposed to the model and the
// dispatch table that routes tool_use requests to them. Dispatch always
// produces a text result; an unknown tool name or a failing tool comes back
// as text the model can read and react to, never as a Go error that would
// abort the conversation.
package tool

import (
	"context"
	"fmt"
	"sort"

	"github.com/osintworks/robin/core"
	"github.com/osintworks/robin/logging"
	"github.com/osintworks/robin/model"
)

// Context carries per-invocation state into a tool call.
type Context struct {
	context.Context

	Logger logging.Logger
	Sink   core.ProgressSink
	CallID string
}

// NewContext wraps ctx with a logger and progress sink for one invocation.
func NewContext(ctx context.Context, logger logging.Logger, sink core.ProgressSink, callID string) *Context {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	if sink == nil {
		sink = core.NopSink{}
	}
	return &Context{Context: ctx, Logger: logger, Sink: sink, CallID: callID}
}

// Tool is a named capability the model can invoke. Call returns the text fed
// back to the model; recoverable problems should be reported in that text
// rather than as an error so the model can adjust course.
type Tool interface {
	// Name returns the unique tool name.
	Name() string

	// Description explains the tool to the model.
	Description() string

	// InputSchema returns the JSON Schema of the tool's arguments.
	InputSchema() map[string]any

	// Call executes the tool with already-parsed arguments.
	Call(tctx *Context, args map[string]any) (string, error)
}

// Registry is the ordered dispatch table of available tools.
type Registry struct {
	tools map[string]Tool
	order []string
}

// NewRegistry builds a registry from the given tools, preserving their order.
func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{tools: map[string]Tool{}}
	for _, t := range tools {
		r.Register(t)
	}
	return r
}

// Register adds a tool. Re-registering a name replaces the tool in place.
func (r *Registry) Register(t Tool) {
	if _, exists := r.tools[t.Name()]; !exists {
		r.order = append(r.order, t.Name())
	}
	r.tools[t.Name()] = t
}

// Get returns the named tool.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Definitions returns the tool declarations sent to the model, in
// registration order.
func (r *Registry) Definitions() []model.ToolDefinition {
	defs := make([]model.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		defs = append(defs, model.ToolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			InputSchema: t.InputSchema(),
		})
	}
	return defs
}

// Dispatch routes one tool_use request. The returned text always goes back to
// the model; isError marks results that came from a failure or panic so the
// caller can flag the tool result accordingly. An unknown tool name is plain
// text, not an error.
func (r *Registry) Dispatch(tctx *Context, name string, args map[string]any) (result string, isError bool) {
	t, ok := r.tools[name]
	if !ok {
		return fmt.Sprintf("Unknown tool: %s", name), false
	}

	defer func() {
		if rec := recover(); rec != nil {
			tctx.Logger.Error("tool panicked", "tool", name, "panic", rec)
			result = fmt.Sprintf("Tool %s failed: %v", name, rec)
			isError = true
		}
	}()

	if args == nil {
		args = map[string]any{}
	}

	text, err := t.Call(tctx, args)
	if err != nil {
		tctx.Logger.Warn("tool failed", "tool", name, "error", err)
		return fmt.Sprintf("Tool %s failed: %v", name, err), true
	}
	return text, false
}

// stringArg extracts a string argument.
func stringArg(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

// stringSliceArg extracts a list-of-strings argument tolerating []any input.
func stringSliceArg(args map[string]any, key string) []string {
	switch v := args[key].(type) {
	case []string:
		return v
	case []any:
		var out []string
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// sortedKeys gives map-driven formatting a stable order.
func sortedKeys[M map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
