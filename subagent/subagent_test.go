package subagent

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osintworks/robin/model"
)

// specialistModel answers each Stream call based on the system prompt so
// concurrent specialists get deterministic responses.
type specialistModel struct {
	mu        sync.Mutex
	answers   map[string]string // agent type -> analysis text
	failures  map[string]error  // agent type -> stream error
	delays    map[string]time.Duration
	systemLog []string
}

func (m *specialistModel) agentTypeFor(system string) string {
	for agentType, prompt := range prompts {
		if prompt == system {
			return agentType
		}
	}
	return ""
}

func (m *specialistModel) Stream(ctx context.Context, req model.Request) (<-chan model.StreamEvent, <-chan error) {
	out := make(chan model.StreamEvent, 8)
	errCh := make(chan error, 1)

	agentType := m.agentTypeFor(req.System)
	m.mu.Lock()
	m.systemLog = append(m.systemLog, agentType)
	m.mu.Unlock()

	go func() {
		defer close(out)
		defer close(errCh)

		if d := m.delays[agentType]; d > 0 {
			time.Sleep(d)
		}
		if err := m.failures[agentType]; err != nil {
			errCh <- err
			return
		}
		out <- model.StreamEvent{Kind: model.KindBlockStart, Index: 0, Block: model.BlockInfo{Type: model.BlockText}}
		out <- model.StreamEvent{Kind: model.KindTextDelta, Index: 0, Text: m.answers[agentType]}
		out <- model.StreamEvent{Kind: model.KindBlockStop, Index: 0}
		out <- model.StreamEvent{Kind: model.KindMessageStop, StopReason: model.StopEndTurn}
	}()

	return out, errCh
}

func (m *specialistModel) Info() model.Info {
	return model.Info{Name: "specialist-test", Provider: "test", SupportsTools: false}
}

func TestRunPreservesRequestOrder(t *testing.T) {
	m := &specialistModel{
		answers: map[string]string{
			TypeThreatActorProfiler: "actor profile",
			TypeIOCExtractor:        "ioc list",
			TypeMalwareAnalyst:      "malware notes",
		},
		delays: map[string]time.Duration{
			// First requested finishes last; order must still hold.
			TypeThreatActorProfiler: 60 * time.Millisecond,
			TypeIOCExtractor:        20 * time.Millisecond,
		},
	}

	types := []string{TypeThreatActorProfiler, TypeIOCExtractor, TypeMalwareAnalyst}
	results := Run(context.Background(), m, types, "content", "context")

	require.Len(t, results, 3)
	assert.Equal(t, TypeThreatActorProfiler, results[0].AgentType)
	assert.Equal(t, "actor profile", results[0].Analysis)
	assert.Equal(t, TypeIOCExtractor, results[1].AgentType)
	assert.Equal(t, "ioc list", results[1].Analysis)
	assert.Equal(t, TypeMalwareAnalyst, results[2].AgentType)
	for _, r := range results {
		assert.True(t, r.Success)
	}
}

func TestRunIsolatesSpecialistFailure(t *testing.T) {
	m := &specialistModel{
		answers:  map[string]string{TypeIOCExtractor: "ioc list"},
		failures: map[string]error{TypeMalwareAnalyst: errors.New("model overloaded")},
	}

	results := Run(context.Background(), m, []string{TypeMalwareAnalyst, TypeIOCExtractor}, "content", "")

	require.Len(t, results, 2)
	assert.False(t, results[0].Success)
	assert.Contains(t, results[0].Error, "model overloaded")
	assert.Empty(t, results[0].Analysis)
	assert.True(t, results[1].Success)
	assert.Equal(t, "ioc list", results[1].Analysis)
}

func TestRunUnknownTypeFailsInPlace(t *testing.T) {
	m := &specialistModel{answers: map[string]string{TypeIOCExtractor: "ioc list"}}

	results := Run(context.Background(), m, []string{"Nonexistent", TypeIOCExtractor}, "content", "")

	require.Len(t, results, 2)
	assert.False(t, results[0].Success)
	assert.Contains(t, results[0].Error, "unknown agent type")
	assert.True(t, results[1].Success)
}

func TestRunCallbacksFire(t *testing.T) {
	m := &specialistModel{answers: map[string]string{TypeIOCExtractor: "ioc list"}}

	var started []string
	var finished []Result
	var mu sync.Mutex

	Run(context.Background(), m, []string{TypeIOCExtractor, "Nonexistent"}, "content", "", func(o *Options) {
		o.OnStart = func(agentType string) {
			mu.Lock()
			started = append(started, agentType)
			mu.Unlock()
		}
		o.OnFinish = func(r Result) {
			mu.Lock()
			finished = append(finished, r)
			mu.Unlock()
		}
	})

	// Only valid specialists launch; the unknown type never starts.
	assert.Equal(t, []string{TypeIOCExtractor}, started)
	require.Len(t, finished, 1)
	assert.Equal(t, TypeIOCExtractor, finished[0].AgentType)
}

func TestPromptsCoverAllTypes(t *testing.T) {
	for _, agentType := range Types() {
		assert.True(t, IsValid(agentType))
		assert.NotEmpty(t, prompts[agentType])
		assert.NotEmpty(t, Descriptions()[agentType])
	}
	assert.False(t, IsValid("SomethingElse"))
}

func TestAnalyzeSendsContentAndContext(t *testing.T) {
	captured := make(chan model.Request, 1)
	m := captureModel{requests: captured}

	Run(context.Background(), m, []string{TypeMalwareAnalyst}, "the content", "the context")

	req := <-captured
	require.Len(t, req.Messages, 1)
	text := req.Messages[0].Text()
	assert.Contains(t, text, "the content")
	assert.Contains(t, text, "the context")
	assert.Equal(t, prompts[TypeMalwareAnalyst], req.System)
}

type captureModel struct {
	requests chan model.Request
}

func (m captureModel) Stream(ctx context.Context, req model.Request) (<-chan model.StreamEvent, <-chan error) {
	m.requests <- req
	out := make(chan model.StreamEvent, 2)
	errCh := make(chan error, 1)
	out <- model.StreamEvent{Kind: model.KindTextDelta, Index: 0, Text: "ok"}
	out <- model.StreamEvent{Kind: model.KindMessageStop, StopReason: model.StopEndTurn}
	close(out)
	close(errCh)
	return out, errCh
}

func (m captureModel) Info() model.Info {
	return model.Info{Name: "capture", Provider: "test"}
}
