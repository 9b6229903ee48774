package tool

import (
	"fmt"
	"strings"

	"github.com/osintworks/robin/model"
	"github.com/osintworks/robin/subagent"
)

// DelegateTool fans analysis out to the specialist sub-agents and returns
// their combined findings as one tool result.
type DelegateTool struct {
	model     model.Model
	maxTokens int64
}

// NewDelegateTool wraps the given model for specialist runs.
func NewDelegateTool(m model.Model) *DelegateTool {
	return &DelegateTool{model: m, maxTokens: 4096}
}

func (t *DelegateTool) Name() string { return "delegate_analysis" }

func (t *DelegateTool) Description() string {
	return `Delegate specialized analysis to expert sub-agents. Available agents:
- ThreatActorProfiler: Profiles threat actors, APT groups, cybercriminals
- IOCExtractor: Extracts IPs, domains, hashes, emails, crypto addresses
- MalwareAnalyst: Analyzes malware, ransomware, exploits
- MarketplaceInvestigator: Investigates dark web markets and vendors

You can delegate to multiple agents simultaneously for comprehensive analysis.`
}

func (t *DelegateTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"agent_types": map[string]any{
				"type":        "array",
				"description": "List of agent types to run",
				"items":       map[string]any{"type": "string"},
			},
			"content": map[string]any{
				"type":        "string",
				"description": "The scraped content to analyze",
			},
			"context": map[string]any{
				"type":        "string",
				"description": "Additional context (original query, investigation goals)",
			},
		},
		"required": []string{"agent_types", "content"},
	}
}

// Call validates the request, runs the specialists in parallel and formats
// one section per result. Lifecycle events go to the invocation's sink.
func (t *DelegateTool) Call(tctx *Context, args map[string]any) (string, error) {
	agentTypes := stringSliceArg(args, "agent_types")
	content := stringArg(args, "content")
	investigationContext := stringArg(args, "context")

	if len(agentTypes) == 0 {
		available := subagent.Descriptions()
		var lines []string
		for _, name := range sortedKeys(available) {
			lines = append(lines, fmt.Sprintf("- **%s**: %s", name, available[name]))
		}
		return "No agents specified. Available sub-agents:\n\n" + strings.Join(lines, "\n"), nil
	}

	var invalid []string
	for _, agentType := range agentTypes {
		if !subagent.IsValid(agentType) {
			invalid = append(invalid, agentType)
		}
	}
	if len(invalid) > 0 {
		return fmt.Sprintf("Invalid agent types: %v. Valid types: %v", invalid, subagent.Types()), nil
	}

	if content == "" {
		return "No content provided for analysis. Please include the scraped content to analyze.", nil
	}

	sink := tctx.Sink
	results := subagent.Run(tctx, t.model, agentTypes, content, investigationContext, func(o *subagent.Options) {
		o.MaxTokens = t.maxTokens
		o.Logger = tctx.Logger
		o.OnStart = sink.SubAgentStarted
		o.OnFinish = func(r subagent.Result) {
			sink.SubAgentFinished(r.AgentType, r.Analysis, r.Success, r.Error)
		}
	})

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Sub-Agent Analysis Results\n\nDelegated to: %s\n\n", strings.Join(agentTypes, ", "))
	for _, result := range results {
		if result.Success {
			fmt.Fprintf(&sb, "### %s\n\n%s\n\n", result.AgentType, result.Analysis)
		} else {
			fmt.Fprintf(&sb, "### %s\n\n*Analysis failed: %s*\n\n", result.AgentType, result.Error)
		}
	}
	sb.WriteString("---\n\n**Next step**: Synthesize these findings into your final report.")

	return sb.String(), nil
}
