package tool

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTool struct {
	name string
	fn   func(args map[string]any) (string, error)
}

func (t *stubTool) Name() string                { return t.name }
func (t *stubTool) Description() string         { return "stub" }
func (t *stubTool) InputSchema() map[string]any { return map[string]any{"type": "object"} }
func (t *stubTool) Call(_ *Context, args map[string]any) (string, error) {
	return t.fn(args)
}

func testContext() *Context {
	return NewContext(context.Background(), nil, nil, "call_1")
}

func TestDispatchUnknownToolIsTextNotError(t *testing.T) {
	r := NewRegistry()

	text, isError := r.Dispatch(testContext(), "nope", nil)

	assert.Equal(t, "Unknown tool: nope", text)
	assert.False(t, isError)
}

func TestDispatchToolErrorBecomesFailureText(t *testing.T) {
	r := NewRegistry(&stubTool{name: "flaky", fn: func(map[string]any) (string, error) {
		return "", errors.New("tor unavailable")
	}})

	text, isError := r.Dispatch(testContext(), "flaky", map[string]any{})

	assert.True(t, isError)
	assert.Contains(t, text, "flaky")
	assert.Contains(t, text, "tor unavailable")
}

func TestDispatchRecoversFromPanic(t *testing.T) {
	r := NewRegistry(&stubTool{name: "panicky", fn: func(map[string]any) (string, error) {
		panic("nil map write")
	}})

	text, isError := r.Dispatch(testContext(), "panicky", nil)

	assert.True(t, isError)
	assert.Contains(t, text, "nil map write")
}

func TestDispatchNilArgsBecomeEmptyMap(t *testing.T) {
	var got map[string]any
	r := NewRegistry(&stubTool{name: "echo", fn: func(args map[string]any) (string, error) {
		got = args
		return "ok", nil
	}})

	_, isError := r.Dispatch(testContext(), "echo", nil)

	require.False(t, isError)
	assert.NotNil(t, got)
}

func TestDefinitionsKeepRegistrationOrder(t *testing.T) {
	r := NewRegistry(
		&stubTool{name: "b"},
		&stubTool{name: "a"},
		&stubTool{name: "c"},
	)

	defs := r.Definitions()
	require.Len(t, defs, 3)
	assert.Equal(t, "b", defs[0].Name)
	assert.Equal(t, "a", defs[1].Name)
	assert.Equal(t, "c", defs[2].Name)
	assert.Equal(t, []string{"b", "a", "c"}, r.Names())
}

func TestRegisterReplacesInPlace(t *testing.T) {
	r := NewRegistry(&stubTool{name: "a"}, &stubTool{name: "b"})
	r.Register(&stubTool{name: "a", fn: func(map[string]any) (string, error) { return "v2", nil }})

	assert.Equal(t, []string{"a", "b"}, r.Names())
	text, _ := r.Dispatch(testContext(), "a", nil)
	assert.Equal(t, "v2", text)
}
