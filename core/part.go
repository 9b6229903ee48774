package core

// Part represents a polymorphic segment of role-based content. Concrete part
// types implement the unexported isPart marker enabling a closed set.
type Part interface{ isPart() }

// TextPart is a plain text content segment.
type TextPart struct {
	Text string // Plain UTF-8 text
}

// isPart implements the Part interface for TextPart.
func (TextPart) isPart() {}

// ToolUsePart records a tool invocation requested by the model. Input holds
// the parsed argument object; RawArgs preserves the argument text exactly as
// it arrived on the wire (useful for replaying the request upstream).
type ToolUsePart struct {
	ID      string         // Invocation id assigned by the model provider
	Name    string         // Declared tool name
	Input   map[string]any // Parsed arguments; empty map if the raw text was malformed
	RawArgs string         // Accumulated argument text as streamed
}

// isPart implements the Part interface for ToolUsePart.
func (ToolUsePart) isPart() {}

// ToolResultPart carries the outcome of a tool invocation back to the model.
// Exactly one ToolResultPart answers each ToolUsePart, matched by ToolUseID.
type ToolResultPart struct {
	ToolUseID string // Matches the originating ToolUsePart ID
	Content   string // Normalized text result
	IsError   bool   // True when the content describes a failure
}

// isPart implements the Part interface for ToolResultPart.
func (ToolResultPart) isPart() {}

// Content holds role + ordered parts.
type Content struct {
	Role  string `json:"role,omitempty"` // Conversation role (user, assistant)
	Parts []Part `json:"parts"`          // Ordered heterogeneous parts
}

// NewUserText constructs a user message with a single text part.
func NewUserText(text string) Content {
	return Content{Role: "user", Parts: []Part{TextPart{Text: text}}}
}

// Text concatenates all text parts preserving their order.
func (c Content) Text() string {
	var out string
	for _, p := range c.Parts {
		if tp, ok := p.(TextPart); ok {
			out += tp.Text
		}
	}
	return out
}

// ToolUses returns any ToolUsePart segments preserving their original order.
func (c Content) ToolUses() []ToolUsePart {
	var uses []ToolUsePart
	for _, p := range c.Parts {
		if tu, ok := p.(ToolUsePart); ok {
			uses = append(uses, tu)
		}
	}
	return uses
}

// ToolResults returns any ToolResultPart segments preserving their original order.
func (c Content) ToolResults() []ToolResultPart {
	var results []ToolResultPart
	for _, p := range c.Parts {
		if tr, ok := p.(ToolResultPart); ok {
			results = append(results, tr)
		}
	}
	return results
}
