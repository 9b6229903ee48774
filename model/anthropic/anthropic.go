// Package anthropic provides a streaming model adapter for the Anthropic
// Messages API.
package anthropic

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"

	"github.com/osintworks/robin/core"
	"github.com/osintworks/robin/model"
)

// Options configures the Anthropic model adapter.
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string
}

// ModelName converts a configured model identifier to the SDK's model type.
func ModelName(name string) anthropic.Model { return anthropic.Model(name) }

// Model wraps the Anthropic Messages API behind the generic model.Model interface.
type Model struct {
	client *anthropic.Client
	opts   Options
}

// NewModel creates a new Anthropic model using the official client.
func NewModel(optFns ...func(o *Options)) *Model {
	opts := Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}

	client := anthropic.NewClient(clientOpts...)

	return &Model{
		client: &client,
		opts:   opts,
	}
}

// NewModelFromClient creates a new Anthropic model from an existing client.
func NewModelFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Model {
	opts := Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Model{
		client: client,
		opts:   opts,
	}
}

// Stream implements model.Model. It issues a streaming Messages request and
// translates the SDK's wire events into normalized block-start/delta/stop
// StreamEvents terminated by a message_stop carrying the stop reason.
func (m *Model) Stream(ctx context.Context, req model.Request) (<-chan model.StreamEvent, <-chan error) {
	out := make(chan model.StreamEvent, 32)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		maxTokens := m.opts.MaxTokens
		if req.MaxTokens > 0 {
			maxTokens = req.MaxTokens
		}

		params := anthropic.MessageNewParams{
			Model:       m.opts.Model,
			Messages:    m.buildMessages(req.Messages),
			MaxTokens:   maxTokens,
			Temperature: anthropic.Float(m.opts.Temperature),
		}

		if req.System != "" {
			params.System = []anthropic.TextBlockParam{{Text: req.System}}
		}

		if len(req.Tools) > 0 {
			params.Tools = m.buildTools(req.Tools)
		}

		stream := m.client.Messages.NewStreaming(ctx, params)
		defer stream.Close()

		stopReason := ""

		for stream.Next() {
			event := stream.Current()

			switch ev := event.AsAny().(type) {
			case anthropic.ContentBlockStartEvent:
				switch block := ev.ContentBlock.AsAny().(type) {
				case anthropic.TextBlock:
					out <- model.StreamEvent{
						Kind:  model.KindBlockStart,
						Index: int(ev.Index),
						Block: model.BlockInfo{Type: model.BlockText},
					}
				case anthropic.ToolUseBlock:
					out <- model.StreamEvent{
						Kind:  model.KindBlockStart,
						Index: int(ev.Index),
						Block: model.BlockInfo{Type: model.BlockToolUse, ID: block.ID, Name: block.Name},
					}
				}

			case anthropic.ContentBlockDeltaEvent:
				switch delta := ev.Delta.AsAny().(type) {
				case anthropic.TextDelta:
					out <- model.StreamEvent{Kind: model.KindTextDelta, Index: int(ev.Index), Text: delta.Text}
				case anthropic.InputJSONDelta:
					out <- model.StreamEvent{Kind: model.KindInputJSONDelta, Index: int(ev.Index), PartialJSON: delta.PartialJSON}
				}

			case anthropic.ContentBlockStopEvent:
				out <- model.StreamEvent{Kind: model.KindBlockStop, Index: int(ev.Index)}

			case anthropic.MessageDeltaEvent:
				if ev.Delta.StopReason != "" {
					stopReason = string(ev.Delta.StopReason)
				}

			case anthropic.MessageStopEvent:
				out <- model.StreamEvent{Kind: model.KindMessageStop, StopReason: normalizeStopReason(stopReason)}
			}
		}

		if err := stream.Err(); err != nil {
			errCh <- fmt.Errorf("anthropic streaming error: %w", err)
		}
	}()

	return out, errCh
}

// normalizeStopReason maps Anthropic stop reasons onto the normalized set.
// Unknown reasons (max_tokens, stop_sequence) are treated as a natural end.
func normalizeStopReason(reason string) string {
	if reason == string(anthropic.StopReasonToolUse) {
		return model.StopToolUse
	}
	return model.StopEndTurn
}

// buildMessages converts conversation history to Anthropic message format.
// Tool results ride in user messages, matching the wire protocol.
func (m *Model) buildMessages(msgs []core.Content) []anthropic.MessageParam {
	var messages []anthropic.MessageParam

	for _, c := range msgs {
		switch c.Role {
		case "assistant":
			var blocks []anthropic.ContentBlockParamUnion
			for _, p := range c.Parts {
				switch part := p.(type) {
				case core.TextPart:
					if part.Text != "" {
						blocks = append(blocks, anthropic.NewTextBlock(part.Text))
					}
				case core.ToolUsePart:
					input := part.Input
					if input == nil {
						input = map[string]any{}
					}
					blocks = append(blocks, anthropic.NewToolUseBlock(part.ID, input, part.Name))
				}
			}
			if len(blocks) > 0 {
				messages = append(messages, anthropic.NewAssistantMessage(blocks...))
			}
		default:
			var blocks []anthropic.ContentBlockParamUnion
			for _, p := range c.Parts {
				switch part := p.(type) {
				case core.TextPart:
					if part.Text != "" {
						blocks = append(blocks, anthropic.NewTextBlock(part.Text))
					}
				case core.ToolResultPart:
					blocks = append(blocks, anthropic.NewToolResultBlock(part.ToolUseID, part.Content, part.IsError))
				}
			}
			if len(blocks) > 0 {
				messages = append(messages, anthropic.NewUserMessage(blocks...))
			}
		}
	}

	return messages
}

// buildTools converts tool definitions to Anthropic tool format.
func (m *Model) buildTools(tools []model.ToolDefinition) []anthropic.ToolUnionParam {
	anthropicTools := make([]anthropic.ToolUnionParam, len(tools))

	for i, tool := range tools {
		inputSchema := anthropic.ToolInputSchemaParam{
			Type: constant.Object("object"),
		}

		if tool.InputSchema != nil {
			if properties, exists := tool.InputSchema["properties"]; exists {
				inputSchema.Properties = properties
			}
			if required, exists := tool.InputSchema["required"]; exists {
				switch req := required.(type) {
				case []string:
					inputSchema.Required = req
				case []any:
					var reqStrings []string
					for _, r := range req {
						if s, ok := r.(string); ok {
							reqStrings = append(reqStrings, s)
						}
					}
					inputSchema.Required = reqStrings
				}
			}
		}

		toolParam := anthropic.ToolUnionParamOfTool(inputSchema, tool.Name)
		if toolParam.OfTool != nil && tool.Description != "" {
			toolParam.OfTool.Description = anthropic.String(tool.Description)
		}
		anthropicTools[i] = toolParam
	}

	return anthropicTools
}

// Info returns metadata describing this Anthropic model implementation.
func (m *Model) Info() model.Info {
	return model.Info{
		Name:          string(m.opts.Model),
		Provider:      "anthropic",
		SupportsTools: true,
	}
}
