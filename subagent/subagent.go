// Package subagent runs specialized analysis agents in parallel. Each
// specialist is a single focused model call with its own system prompt; the
// coordinator fans requests out and collects results behind an all-complete
// barrier that preserves request order.
package subagent

import (
	"context"
	"fmt"
	"sync"

	"github.com/osintworks/robin/core"
	"github.com/osintworks/robin/logging"
	"github.com/osintworks/robin/model"
)

// Specialist agent types.
const (
	TypeThreatActorProfiler     = "ThreatActorProfiler"
	TypeIOCExtractor            = "IOCExtractor"
	TypeMalwareAnalyst          = "MalwareAnalyst"
	TypeMarketplaceInvestigator = "MarketplaceInvestigator"
)

// Result is the outcome of one specialist analysis. A failed specialist
// yields Success false and an Error message, never a Go error; one failure
// must not sink the batch.
type Result struct {
	AgentType string `json:"agent_type"`
	Analysis  string `json:"analysis"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
}

// Descriptions maps each specialist type to a short capability summary.
func Descriptions() map[string]string {
	return map[string]string{
		TypeThreatActorProfiler:     "Builds comprehensive profiles of threat actors, APT groups, and cybercriminals",
		TypeIOCExtractor:            "Extracts and validates technical indicators (IPs, domains, hashes, emails, crypto addresses)",
		TypeMalwareAnalyst:          "Analyzes malware, ransomware, exploits, and attack tools",
		TypeMarketplaceInvestigator: "Investigates dark web marketplaces, vendors, and underground economy",
	}
}

// Types returns the known specialist types in a stable order.
func Types() []string {
	return []string{
		TypeThreatActorProfiler,
		TypeIOCExtractor,
		TypeMalwareAnalyst,
		TypeMarketplaceInvestigator,
	}
}

// IsValid reports whether agentType names a known specialist.
func IsValid(agentType string) bool {
	_, ok := prompts[agentType]
	return ok
}

// Options configure a fan-out run.
type Options struct {
	MaxTokens int64
	Logger    logging.Logger
	// OnStart and OnFinish observe individual specialists. OnStart fires in
	// request order before any specialist launches; OnFinish fires as each
	// completes, from worker goroutines.
	OnStart  func(agentType string)
	OnFinish func(r Result)
}

// Run executes one specialist per requested type concurrently against m and
// returns results in request order after all complete. Unknown types produce
// failed results in place. content is the material to analyze; investigation
// context rides alongside it in the prompt.
func Run(ctx context.Context, m model.Model, agentTypes []string, content, investigationContext string, optFns ...func(o *Options)) []Result {
	opts := Options{
		MaxTokens: 4096,
		Logger:    logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	results := make([]Result, len(agentTypes))

	if opts.OnStart != nil {
		for _, agentType := range agentTypes {
			if IsValid(agentType) {
				opts.OnStart(agentType)
			}
		}
	}

	var wg sync.WaitGroup
	for i, agentType := range agentTypes {
		if !IsValid(agentType) {
			results[i] = Result{
				AgentType: agentType,
				Success:   false,
				Error:     fmt.Sprintf("unknown agent type: %s", agentType),
			}
			continue
		}

		wg.Add(1)
		go func(idx int, agentType string) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					results[idx] = Result{
						AgentType: agentType,
						Success:   false,
						Error:     fmt.Sprintf("specialist panicked: %v", r),
					}
				}
			}()

			result := analyze(ctx, m, agentType, content, investigationContext, opts)
			results[idx] = result

			if opts.OnFinish != nil {
				opts.OnFinish(result)
			}
		}(i, agentType)
	}
	wg.Wait()

	return results
}

// analyze performs one specialist model call, draining the stream into the
// accumulated analysis text.
func analyze(ctx context.Context, m model.Model, agentType, content, investigationContext string, opts Options) Result {
	prompt := fmt.Sprintf("## Investigation Context\n%s\n\n## Content to Analyze\n%s\n\nPlease analyze the above content according to your specialty.", investigationContext, content)

	req := model.Request{
		System:    prompts[agentType],
		Messages:  []core.Content{core.NewUserText(prompt)},
		MaxTokens: opts.MaxTokens,
	}

	events, errs := m.Stream(ctx, req)

	var analysis string
	for ev := range events {
		if ev.Kind == model.KindTextDelta {
			analysis += ev.Text
		}
	}
	if err := <-errs; err != nil {
		opts.Logger.Warn("specialist failed", "agent_type", agentType, "error", err)
		return Result{AgentType: agentType, Success: false, Error: err.Error()}
	}

	opts.Logger.Debug("specialist finished", "agent_type", agentType, "chars", len(analysis))
	return Result{AgentType: agentType, Analysis: analysis, Success: true}
}
