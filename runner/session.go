// Package runner wires the agent driver, event bridge and persistence into
// sessions that back user-facing investigations. Each segment of a session
// gets its own bridge so one subscriber sees exactly one investigation run.
package runner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/osintworks/robin/agent"
	"github.com/osintworks/robin/core"
	"github.com/osintworks/robin/logging"
	"github.com/osintworks/robin/model"
	"github.com/osintworks/robin/store"
	"github.com/osintworks/robin/stream"
	"github.com/osintworks/robin/tool"
)

// Options configure a session.
type Options struct {
	SystemPrompt string
	MaxTurns     int
	MaxTokens    int64
	Store        *store.Store
	Logger       logging.Logger
	StreamOpts   []func(o *stream.Options)
}

// Session drives one conversation across investigation segments. A segment is
// one Start or FollowUp call; segments run in the background and report
// through the bridge returned to the caller. Only one segment may run at a
// time per session.
type Session struct {
	ID string

	agent  *agent.Agent
	store  *store.Store
	logger logging.Logger
	opts   Options

	mu      sync.Mutex
	running bool
	bridge  *stream.Bridge
}

// NewSession builds a session around a model and tool registry.
func NewSession(m model.Model, registry *tool.Registry, optFns ...func(o *Options)) *Session {
	opts := Options{
		MaxTurns:  20,
		MaxTokens: 4096,
		Logger:    logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	s := &Session{
		ID:     core.NewID(),
		store:  opts.Store,
		logger: opts.Logger,
		opts:   opts,
	}

	s.agent = agent.New(m, registry, func(o *agent.Options) {
		if opts.SystemPrompt != "" {
			o.SystemPrompt = opts.SystemPrompt
		}
		o.MaxTurns = opts.MaxTurns
		o.MaxTokens = opts.MaxTokens
		o.Logger = opts.Logger
		o.Hooks = agent.Hooks{
			OnText:      s.onText,
			OnToolStart: s.onToolStart,
			OnToolEnd:   s.onToolEnd,
		}
	})

	return s
}

func (s *Session) currentBridge() *stream.Bridge {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bridge
}

func (s *Session) onText(text string) {
	if b := s.currentBridge(); b != nil {
		b.EmitText(text)
	}
}

func (s *Session) onToolStart(callID, name string, args map[string]any) {
	if b := s.currentBridge(); b != nil {
		b.EmitToolStart(callID, name, args)
	}
}

func (s *Session) onToolEnd(callID, name string, dur time.Duration, result string, isError bool) {
	if b := s.currentBridge(); b != nil {
		b.EmitToolEnd(callID, name, dur, result, isError)
	}
}

// Start launches a fresh investigation segment. The returned bridge streams
// the segment's events and seals after completion or error.
func (s *Session) Start(ctx context.Context, query string) (*stream.Bridge, error) {
	return s.launch(ctx, query, true)
}

// FollowUp launches a segment that continues the existing conversation.
func (s *Session) FollowUp(ctx context.Context, message string) (*stream.Bridge, error) {
	return s.launch(ctx, message, false)
}

func (s *Session) launch(ctx context.Context, message string, fresh bool) (*stream.Bridge, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, fmt.Errorf("session %s already has a segment running", s.ID)
	}
	bridge := stream.NewBridge(s.opts.StreamOpts...)
	s.running = true
	s.bridge = bridge
	s.mu.Unlock()

	s.agent.SetProgressSink(bridge)

	var inv store.Investigation
	if s.store != nil {
		var err error
		inv, err = s.store.CreateInvestigation(ctx, message)
		if err != nil {
			s.logger.Warn("investigation not persisted", "error", err)
		}
	}

	go func() {
		defer func() {
			s.agent.SetProgressSink(nil)
			s.mu.Lock()
			s.running = false
			s.bridge = nil
			s.mu.Unlock()
		}()

		var res agent.Result
		var err error
		if fresh {
			res, err = s.agent.Investigate(ctx, message)
		} else {
			res, err = s.agent.FollowUp(ctx, message)
		}

		if err != nil {
			s.logger.Error("segment failed", "session", s.ID, "error", err)
			bridge.EmitError(err)
			s.finishRecord(inv, "failed", res)
			return
		}

		bridge.EmitComplete(res.Text, res.NumTurns, res.Duration, res.ToolsUsed)
		s.finishRecord(inv, "done", res)
	}()

	return bridge, nil
}

func (s *Session) finishRecord(inv store.Investigation, status string, res agent.Result) {
	if s.store == nil || inv.ID == "" {
		return
	}
	// The segment context may already be gone; persistence gets its own.
	err := s.store.FinishInvestigation(context.Background(), inv.ID, status, res.Text, res.NumTurns, res.ToolsUsed)
	if err != nil {
		s.logger.Warn("investigation outcome not persisted", "id", inv.ID, "error", err)
	}
}

// Running reports whether a segment is currently in flight.
func (s *Session) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// History returns the conversation so far.
func (s *Session) History() []core.Content { return s.agent.History() }

// Reset clears the conversation. Fails if a segment is running.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("session %s has a segment running", s.ID)
	}
	s.agent.Reset()
	return nil
}
