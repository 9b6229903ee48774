// Package stream bridges in-flight investigation activity to an outbound
// consumer, typically an SSE handler. Producers on the agent side publish
// into an unbounded queue so they never block on a slow reader; a single
// subscriber drains the queue in publish order.
package stream

import (
	"time"

	"github.com/osintworks/robin/core"
)

// EventType discriminates outbound events.
type EventType string

const (
	// EventText carries a streamed fragment of assistant text.
	EventText EventType = "text"
	// EventToolStart announces a tool invocation.
	EventToolStart EventType = "tool_start"
	// EventToolEnd carries a truncated preview of a tool result.
	EventToolEnd EventType = "tool_end"
	// EventSubAgentStart announces a specialist launch.
	EventSubAgentStart EventType = "subagent_start"
	// EventSubAgentEnd carries a truncated preview of a specialist analysis.
	EventSubAgentEnd EventType = "subagent_end"
	// EventSearchProgress relays per-engine search status.
	EventSearchProgress EventType = "search_progress"
	// EventComplete is the terminal event of a successful segment.
	EventComplete EventType = "complete"
	// EventError is the terminal event of a failed segment.
	EventError EventType = "error"
	// EventKeepalive is emitted on idle timeout so proxies keep the
	// connection open. Keepalives are synthesized by the subscriber pump
	// and never enter the queue.
	EventKeepalive EventType = "keepalive"
)

// ErrorCodeInvestigation tags errors that abort an investigation segment.
const ErrorCodeInvestigation = "INVESTIGATION_ERROR"

// Event is one outbound message. Fields are populated according to Type; the
// flat shape keeps the JSON wire format simple for SSE consumers.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`

	// EventText
	Text string `json:"text,omitempty"`

	// EventToolStart / EventToolEnd
	Tool    string         `json:"tool,omitempty"`
	CallID  string         `json:"call_id,omitempty"`
	Args    map[string]any `json:"args,omitempty"`
	Result  string         `json:"result,omitempty"` // truncated preview
	IsError bool           `json:"is_error,omitempty"`

	// EventToolEnd / EventComplete
	DurationMS int64 `json:"duration_ms,omitempty"`

	// EventSubAgentStart / EventSubAgentEnd
	AgentType string `json:"agent_type,omitempty"`
	Analysis  string `json:"analysis,omitempty"` // truncated preview
	Success   bool   `json:"success,omitempty"`

	// EventSearchProgress
	Search *core.SearchProgress `json:"search,omitempty"`

	// EventComplete
	NumTurns  int      `json:"num_turns,omitempty"`
	ToolsUsed []string `json:"tools_used,omitempty"`

	// EventError
	Error string `json:"error,omitempty"`
	Code  string `json:"code,omitempty"`
}
