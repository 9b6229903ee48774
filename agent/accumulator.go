package agent

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/osintworks/robin/core"
	"github.com/osintworks/robin/model"
)

// accumulator reassembles an assistant message from low-level stream events.
// Blocks are keyed by index and kept in first-seen order. Tool arguments
// arrive as partial JSON fragments and become readable only once the block
// closes; until then the call must not be dispatched.
type accumulator struct {
	order      []int
	blocks     map[int]*block
	stopReason string
	stopped    bool
}

type block struct {
	blockType model.BlockType
	id        string
	name      string
	text      strings.Builder
	argsJSON  strings.Builder
	closed    bool
}

func newAccumulator() *accumulator {
	return &accumulator{blocks: map[int]*block{}}
}

// apply folds one stream event into the accumulator. Text deltas for an
// unknown index lazily open a text block; providers without explicit block
// framing rely on this. Tool argument deltas for an unknown index are dropped
// since without a block_start there is no call to attach them to.
func (a *accumulator) apply(ev model.StreamEvent) {
	switch ev.Kind {
	case model.KindBlockStart:
		b := a.openBlock(ev.Index)
		b.blockType = ev.Block.Type
		b.id = ev.Block.ID
		b.name = ev.Block.Name

	case model.KindTextDelta:
		b, ok := a.blocks[ev.Index]
		if !ok {
			b = a.openBlock(ev.Index)
			b.blockType = model.BlockText
		}
		b.text.WriteString(ev.Text)

	case model.KindInputJSONDelta:
		if b, ok := a.blocks[ev.Index]; ok && b.blockType == model.BlockToolUse {
			b.argsJSON.WriteString(ev.PartialJSON)
		}

	case model.KindBlockStop:
		if b, ok := a.blocks[ev.Index]; ok {
			b.closed = true
		}

	case model.KindMessageStop:
		a.stopReason = ev.StopReason
		a.stopped = true
		for _, b := range a.blocks {
			b.closed = true
		}
	}
}

func (a *accumulator) openBlock(index int) *block {
	if b, ok := a.blocks[index]; ok {
		return b
	}
	b := &block{}
	a.blocks[index] = b
	a.order = append(a.order, index)
	return b
}

// message assembles the accumulated assistant message. Blocks appear by
// ascending index regardless of delta interleaving. Tool arguments that fail
// to parse become an empty argument map; the raw fragment string is preserved
// on the part for history replay.
func (a *accumulator) message() core.Content {
	indexes := make([]int, len(a.order))
	copy(indexes, a.order)
	sort.Ints(indexes)

	var parts []core.Part
	for _, idx := range indexes {
		b := a.blocks[idx]
		switch b.blockType {
		case model.BlockToolUse:
			parts = append(parts, core.ToolUsePart{
				ID:      b.id,
				Name:    b.name,
				Input:   parseToolInput(b.argsJSON.String()),
				RawArgs: b.argsJSON.String(),
			})
		default:
			if text := b.text.String(); text != "" {
				parts = append(parts, core.TextPart{Text: text})
			}
		}
	}

	return core.Content{Role: "assistant", Parts: parts}
}

// text returns the concatenated text of all text blocks.
func (a *accumulator) text() string {
	indexes := make([]int, len(a.order))
	copy(indexes, a.order)
	sort.Ints(indexes)

	var sb strings.Builder
	for _, idx := range indexes {
		if b := a.blocks[idx]; b.blockType != model.BlockToolUse {
			sb.WriteString(b.text.String())
		}
	}
	return sb.String()
}

// toolUses returns the closed tool_use parts in block order.
func (a *accumulator) toolUses() []core.ToolUsePart {
	var uses []core.ToolUsePart
	for _, p := range a.message().Parts {
		if tu, ok := p.(core.ToolUsePart); ok {
			uses = append(uses, tu)
		}
	}
	return uses
}

// parseToolInput decodes accumulated argument JSON. An empty fragment means
// a no-argument call; malformed JSON degrades to empty arguments rather than
// failing the turn.
func parseToolInput(raw string) map[string]any {
	if strings.TrimSpace(raw) == "" {
		return map[string]any{}
	}
	var input map[string]any
	if err := json.Unmarshal([]byte(raw), &input); err != nil || input == nil {
		return map[string]any{}
	}
	return input
}
