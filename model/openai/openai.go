// Package openai provides a streaming model adapter for the OpenAI Chat
// Completions API, also covering Ollama and other OpenAI-compatible servers
// via a custom base URL. The chunk protocol has no block framing, so the
// adapter synthesizes block-start/stop events around the deltas to match the
// normalized stream protocol.
package openai

import (
	"context"
	"fmt"
	"sort"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/osintworks/robin/core"
	"github.com/osintworks/robin/model"
)

// Options configure the OpenAI model adapter.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
	BaseURL             string
	APIKey              string
	Provider            string
}

// Model wraps the OpenAI Chat Completions API behind the generic model.Model interface.
type Model struct {
	client *openai.Client
	opts   Options
}

// NewModel creates a new OpenAI model using the official client.
func NewModel(optFns ...func(o *Options)) *Model {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
		Provider:            "openai",
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}

	client := openai.NewClient(clientOpts...)

	return &Model{client: &client, opts: opts}
}

// NewModelFromClient creates a new OpenAI model from an existing client.
func NewModelFromClient(client *openai.Client, optFns ...func(o *Options)) *Model {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
		Provider:            "openai",
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Model{client: client, opts: opts}
}

// Stream implements model.Model. Text deltas stream under block index 0; tool
// call deltas stream under the chunk's tool index shifted by one so the two
// never collide.
func (m *Model) Stream(ctx context.Context, req model.Request) (<-chan model.StreamEvent, <-chan error) {
	out := make(chan model.StreamEvent, 32)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		params := m.buildParams(req)
		stream := m.client.Chat.Completions.NewStreaming(ctx, params)

		textOpen := false
		toolOpen := map[int]bool{}
		finish := ""

		for stream.Next() {
			chunk := stream.Current()
			for _, choice := range chunk.Choices {
				if choice.Delta.Content != "" {
					if !textOpen {
						textOpen = true
						out <- model.StreamEvent{
							Kind:  model.KindBlockStart,
							Index: 0,
							Block: model.BlockInfo{Type: model.BlockText},
						}
					}
					out <- model.StreamEvent{Kind: model.KindTextDelta, Index: 0, Text: choice.Delta.Content}
				}

				for _, tc := range choice.Delta.ToolCalls {
					idx := int(tc.Index) + 1
					if !toolOpen[idx] {
						toolOpen[idx] = true
						out <- model.StreamEvent{
							Kind:  model.KindBlockStart,
							Index: idx,
							Block: model.BlockInfo{Type: model.BlockToolUse, ID: tc.ID, Name: tc.Function.Name},
						}
					}
					if tc.Function.Arguments != "" {
						out <- model.StreamEvent{Kind: model.KindInputJSONDelta, Index: idx, PartialJSON: tc.Function.Arguments}
					}
				}

				if choice.FinishReason != "" {
					finish = choice.FinishReason
				}
			}
		}

		if err := stream.Err(); err != nil {
			errCh <- fmt.Errorf("openai streaming error: %w", err)
			return
		}

		if textOpen {
			out <- model.StreamEvent{Kind: model.KindBlockStop, Index: 0}
		}
		toolIdxs := make([]int, 0, len(toolOpen))
		for idx := range toolOpen {
			toolIdxs = append(toolIdxs, idx)
		}
		sort.Ints(toolIdxs)
		for _, idx := range toolIdxs {
			out <- model.StreamEvent{Kind: model.KindBlockStop, Index: idx}
		}

		out <- model.StreamEvent{Kind: model.KindMessageStop, StopReason: normalizeFinishReason(finish)}
	}()

	return out, errCh
}

// normalizeFinishReason maps OpenAI finish reasons onto the normalized set.
func normalizeFinishReason(reason string) string {
	if reason == "tool_calls" {
		return model.StopToolUse
	}
	return model.StopEndTurn
}

// buildParams assembles the request including history, system message and
// tool definitions. Tool results become role "tool" messages keyed by call id.
func (m *Model) buildParams(req model.Request) openai.ChatCompletionNewParams {
	var messages []openai.ChatCompletionMessageParamUnion

	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}

	for _, c := range req.Messages {
		switch c.Role {
		case "assistant":
			text := c.Text()
			toolCalls := extractToolCalls(c)
			if len(toolCalls) == 0 {
				messages = append(messages, openai.AssistantMessage(text))
				continue
			}
			assistant := openai.ChatCompletionAssistantMessageParam{
				Role:      "assistant",
				ToolCalls: toolCalls,
			}
			// Text preceding the tool calls is part of the model's own
			// history and must be replayed alongside them.
			if text != "" {
				assistant.Content = openai.ChatCompletionAssistantMessageParamContentUnion{
					OfString: openai.String(text),
				}
			}
			messages = append(messages, openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant})
		default:
			for _, p := range c.Parts {
				switch part := p.(type) {
				case core.TextPart:
					if part.Text != "" {
						messages = append(messages, openai.UserMessage(part.Text))
					}
				case core.ToolResultPart:
					messages = append(messages, openai.ToolMessage(part.Content, part.ToolUseID))
				}
			}
		}
	}

	params := openai.ChatCompletionNewParams{
		Messages:            messages,
		Model:               m.opts.Model,
		Temperature:         openai.Float(m.opts.Temperature),
		MaxCompletionTokens: openai.Int(m.opts.MaxCompletionTokens),
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(req.MaxTokens)
	}

	if len(req.Tools) > 0 {
		tools := make([]openai.ChatCompletionToolParam, len(req.Tools))
		for i, tdef := range req.Tools {
			tools[i] = openai.ChatCompletionToolParam{
				Type: "function",
				Function: openai.FunctionDefinitionParam{
					Name:        tdef.Name,
					Description: openai.String(tdef.Description),
					Parameters:  openai.FunctionParameters(tdef.InputSchema),
				},
			}
		}
		params.Tools = tools
	}

	return params
}

// extractToolCalls converts tool use parts into OpenAI formatted tool calls.
func extractToolCalls(c core.Content) []openai.ChatCompletionMessageToolCallParam {
	var toolCalls []openai.ChatCompletionMessageToolCallParam
	for _, p := range c.Parts {
		if tu, ok := p.(core.ToolUsePart); ok {
			args := tu.RawArgs
			if args == "" {
				args = "{}"
			}
			toolCalls = append(toolCalls, openai.ChatCompletionMessageToolCallParam{
				ID:   tu.ID,
				Type: "function",
				Function: openai.ChatCompletionMessageToolCallFunctionParam{
					Name:      tu.Name,
					Arguments: args,
				},
			})
		}
	}
	return toolCalls
}

// Info returns metadata describing this OpenAI model implementation.
func (m *Model) Info() model.Info {
	return model.Info{
		Name:          m.opts.Model,
		Provider:      m.opts.Provider,
		SupportsTools: true,
	}
}
