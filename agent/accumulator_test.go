package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osintworks/robin/core"
	"github.com/osintworks/robin/model"
)

func TestAccumulatorReassemblesSplitToolArguments(t *testing.T) {
	acc := newAccumulator()

	acc.apply(model.StreamEvent{Kind: model.KindBlockStart, Index: 0, Block: model.BlockInfo{Type: model.BlockToolUse, ID: "call_1", Name: "darkweb_search"}})
	for _, frag := range []string{`{"qu`, `ery":"x"`, `}`} {
		acc.apply(model.StreamEvent{Kind: model.KindInputJSONDelta, Index: 0, PartialJSON: frag})
	}
	acc.apply(model.StreamEvent{Kind: model.KindBlockStop, Index: 0})
	acc.apply(model.StreamEvent{Kind: model.KindMessageStop, StopReason: model.StopToolUse})

	uses := acc.toolUses()
	require.Len(t, uses, 1)
	assert.Equal(t, "call_1", uses[0].ID)
	assert.Equal(t, "darkweb_search", uses[0].Name)
	assert.Equal(t, map[string]any{"query": "x"}, uses[0].Input)
	assert.Equal(t, `{"query":"x"}`, uses[0].RawArgs)
}

func TestAccumulatorMalformedArgumentsDegradeToEmptyMap(t *testing.T) {
	acc := newAccumulator()

	acc.apply(model.StreamEvent{Kind: model.KindBlockStart, Index: 0, Block: model.BlockInfo{Type: model.BlockToolUse, ID: "call_1", Name: "save_report"}})
	acc.apply(model.StreamEvent{Kind: model.KindInputJSONDelta, Index: 0, PartialJSON: `{"content": "unterminated`})
	acc.apply(model.StreamEvent{Kind: model.KindBlockStop, Index: 0})
	acc.apply(model.StreamEvent{Kind: model.KindMessageStop, StopReason: model.StopToolUse})

	uses := acc.toolUses()
	require.Len(t, uses, 1)
	assert.Equal(t, map[string]any{}, uses[0].Input)
	assert.Equal(t, `{"content": "unterminated`, uses[0].RawArgs)
}

func TestAccumulatorEmptyArgumentsMeanNoArgCall(t *testing.T) {
	acc := newAccumulator()

	acc.apply(model.StreamEvent{Kind: model.KindBlockStart, Index: 0, Block: model.BlockInfo{Type: model.BlockToolUse, ID: "call_1", Name: "darkweb_search"}})
	acc.apply(model.StreamEvent{Kind: model.KindBlockStop, Index: 0})
	acc.apply(model.StreamEvent{Kind: model.KindMessageStop, StopReason: model.StopToolUse})

	uses := acc.toolUses()
	require.Len(t, uses, 1)
	assert.Equal(t, map[string]any{}, uses[0].Input)
}

func TestAccumulatorInterleavedBlocksKeepIndexOrder(t *testing.T) {
	acc := newAccumulator()

	acc.apply(model.StreamEvent{Kind: model.KindBlockStart, Index: 0, Block: model.BlockInfo{Type: model.BlockText}})
	acc.apply(model.StreamEvent{Kind: model.KindBlockStart, Index: 1, Block: model.BlockInfo{Type: model.BlockToolUse, ID: "call_a", Name: "darkweb_search"}})
	acc.apply(model.StreamEvent{Kind: model.KindInputJSONDelta, Index: 1, PartialJSON: `{"query":"a"}`})
	acc.apply(model.StreamEvent{Kind: model.KindTextDelta, Index: 0, Text: "Searching"})
	acc.apply(model.StreamEvent{Kind: model.KindTextDelta, Index: 0, Text: " now."})
	acc.apply(model.StreamEvent{Kind: model.KindBlockStop, Index: 1})
	acc.apply(model.StreamEvent{Kind: model.KindBlockStop, Index: 0})
	acc.apply(model.StreamEvent{Kind: model.KindMessageStop, StopReason: model.StopToolUse})

	msg := acc.message()
	require.Len(t, msg.Parts, 2)
	text, ok := msg.Parts[0].(core.TextPart)
	require.True(t, ok)
	assert.Equal(t, "Searching now.", text.Text)
	use, ok := msg.Parts[1].(core.ToolUsePart)
	require.True(t, ok)
	assert.Equal(t, "call_a", use.ID)
}

func TestAccumulatorLazyTextBlockWithoutStart(t *testing.T) {
	acc := newAccumulator()

	acc.apply(model.StreamEvent{Kind: model.KindTextDelta, Index: 0, Text: "hello"})
	acc.apply(model.StreamEvent{Kind: model.KindTextDelta, Index: 0, Text: " world"})
	acc.apply(model.StreamEvent{Kind: model.KindMessageStop, StopReason: model.StopEndTurn})

	assert.Equal(t, "hello world", acc.text())
	assert.Equal(t, model.StopEndTurn, acc.stopReason)
}

func TestAccumulatorDropsOrphanArgumentDeltas(t *testing.T) {
	acc := newAccumulator()

	// No block_start for index 2; there is no call to attach these to.
	acc.apply(model.StreamEvent{Kind: model.KindInputJSONDelta, Index: 2, PartialJSON: `{"x":1}`})
	acc.apply(model.StreamEvent{Kind: model.KindMessageStop, StopReason: model.StopEndTurn})

	assert.Empty(t, acc.toolUses())
}
