package tool

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// ReportWriter persists a finished report. Implementations typically write to
// disk, the database, or both.
type ReportWriter interface {
	WriteReport(ctx context.Context, filename, content string) (location string, err error)
}

// ReportWriterFunc adapts a function to the ReportWriter interface.
type ReportWriterFunc func(ctx context.Context, filename, content string) (string, error)

func (f ReportWriterFunc) WriteReport(ctx context.Context, filename, content string) (string, error) {
	return f(ctx, filename, content)
}

// ReportTool lets the model save its findings as a markdown report.
type ReportTool struct {
	writer ReportWriter
	now    func() time.Time
}

// NewReportTool wraps a ReportWriter as a callable tool.
func NewReportTool(writer ReportWriter) *ReportTool {
	return &ReportTool{writer: writer, now: time.Now}
}

func (t *ReportTool) Name() string { return "save_report" }

func (t *ReportTool) Description() string {
	return "Save the investigation report to a markdown file. Use this when the user asks to save or export the findings."
}

func (t *ReportTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"content": map[string]any{
				"type":        "string",
				"description": "The report content to save",
			},
			"filename": map[string]any{
				"type":        "string",
				"description": "Optional filename (defaults to robin_report_<timestamp>.md)",
			},
		},
		"required": []string{"content"},
	}
}

// Call persists the report under the requested or generated filename.
func (t *ReportTool) Call(tctx *Context, args map[string]any) (string, error) {
	content := stringArg(args, "content")
	if content == "" {
		return "No content provided. Pass the report text in the 'content' argument.", nil
	}

	filename := stringArg(args, "filename")
	if filename == "" {
		filename = fmt.Sprintf("robin_report_%s.md", t.now().Format("2006-01-02_15-04-05"))
	}
	if !strings.HasSuffix(filename, ".md") {
		filename += ".md"
	}

	location, err := t.writer.WriteReport(tctx, filename, content)
	if err != nil {
		return fmt.Sprintf("Failed to save report: %v", err), nil
	}

	tctx.Logger.Info("report saved", "location", location, "chars", len(content))
	return fmt.Sprintf("Report saved successfully to **%s**", location), nil
}
