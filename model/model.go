package model

import (
	"context"

	"github.com/osintworks/robin/core"
)

// EventKind enumerates the low-level stream event kinds emitted by adapters.
type EventKind string

const (
	// KindBlockStart opens a content block (text or tool_use).
	KindBlockStart EventKind = "block_start"
	// KindTextDelta appends a text fragment to an open text block.
	KindTextDelta EventKind = "text_delta"
	// KindInputJSONDelta appends an argument fragment to an open tool_use block.
	KindInputJSONDelta EventKind = "input_json_delta"
	// KindBlockStop closes a content block; tool inputs become readable only now.
	KindBlockStop EventKind = "block_stop"
	// KindMessageStop terminates the response carrying the stop reason.
	KindMessageStop EventKind = "message_stop"
)

// Stop reasons reported on KindMessageStop.
const (
	StopEndTurn = "end_turn"
	StopToolUse = "tool_use"
)

// BlockType identifies the payload of an opened content block.
type BlockType string

const (
	// BlockText is a streamed text block.
	BlockText BlockType = "text"
	// BlockToolUse is a streamed tool invocation block.
	BlockToolUse BlockType = "tool_use"
)

// BlockInfo describes a block on KindBlockStart. ID and Name are set only for
// tool_use blocks.
type BlockInfo struct {
	Type BlockType
	ID   string
	Name string
}

// StreamEvent is one low-level event of a streamed model response. A
// well-formed sequence interleaves block events ordered by Index and ends
// with exactly one KindMessageStop.
type StreamEvent struct {
	Kind        EventKind
	Index       int       // Block index within the message
	Block       BlockInfo // Set on KindBlockStart
	Text        string    // Set on KindTextDelta
	PartialJSON string    // Set on KindInputJSONDelta
	StopReason  string    // Set on KindMessageStop
}

// ToolDefinition declaratively exposes a callable tool to the model.
// InputSchema is a JSON Schema object (minimal subset expected).
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

// Request captures the normalized model input produced by the driver.
type Request struct {
	System    string           `json:"system"` // System instructions
	Messages  []core.Content   `json:"messages"`
	Tools     []ToolDefinition `json:"tools,omitempty"`
	MaxTokens int64            `json:"max_tokens,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "anthropic", "openai", "ollama", ...
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal interface required to drive generation. Stream returns
// a channel of low-level events plus an error channel; both are closed by the
// adapter when the response terminates. A non-nil error on the error channel
// means the sequence on the event channel may be incomplete.
type Model interface {
	Stream(ctx context.Context, req Request) (<-chan StreamEvent, <-chan error)

	// Info returns information about the model implementation.
	Info() Info
}
