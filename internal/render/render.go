// Package render produces output from audit results and history pages.
// Compliance is rounded here and nowhere else.
package render

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/dshills/sowaudit/internal/schema"
	"github.com/dshills/sowaudit/internal/stats"
)

// RenderJSON produces a pretty-printed JSON representation of v.
func RenderJSON(v any) ([]byte, error) {
	if v == nil {
		return nil, fmt.Errorf("render: nil value")
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("render: json marshal: %w", err)
	}
	return b, nil
}

// Percent formats an unrounded compliance value for display.
func Percent(compliance float64) string {
	return fmt.Sprintf("%d%%", int(math.Round(compliance)))
}

// RenderMarkdown produces a GitHub-flavoured Markdown summary of one audit.
// Every check id in the result appears in the output.
func RenderMarkdown(result *schema.AnalysisResult) string {
	if result == nil {
		return ""
	}
	var sb strings.Builder

	fmt.Fprintf(&sb, "## SOW Audit: %s\n\n", mdEscape(result.FileName))
	if !result.Date.IsZero() {
		fmt.Fprintf(&sb, "**Date:** %s  \n", result.Date.Format("Jan 2, 2006 15:04"))
	}
	fmt.Fprintf(&sb, "**Compliance:** %s (%s)  \n", Percent(result.Compliance), stats.BandOf(result.Compliance))
	fmt.Fprintf(&sb, "**Failed:** %d of %d checks\n\n", result.FailedCount, result.TotalChecks)

	if len(result.Issues) > 0 {
		sb.WriteString("| Check | Title | Status |\n")
		sb.WriteString("|---|---|---|\n")
		for _, is := range result.Issues {
			fmt.Fprintf(&sb, "| %s | %s | %s |\n", is.ID, mdEscape(is.Title), statusMark(is))
		}
		sb.WriteString("\n")
	}

	var failed []schema.Issue
	for _, is := range result.Issues {
		if is.Failed() {
			failed = append(failed, is)
		}
	}
	if len(failed) > 0 {
		sb.WriteString("## Failed Checks\n\n")
		for _, is := range failed {
			fmt.Fprintf(&sb, "<details>\n<summary><strong>%s</strong> %s</summary>\n\n", is.ID, mdEscape(is.Title))
			if is.Description != "" {
				fmt.Fprintf(&sb, "%s\n\n", is.Description)
			}
			if is.Count != nil && *is.Count > 0 {
				fmt.Fprintf(&sb, "**Occurrences:** %d\n\n", *is.Count)
			}
			if is.RelevantText != "" {
				fmt.Fprintf(&sb, "**Relevant text:** `%s`\n\n", strings.ReplaceAll(is.RelevantText, "`", "'"))
			}
			sb.WriteString("</details>\n\n")
		}
	}

	return sb.String()
}

func statusMark(is schema.Issue) string {
	if is.Failed() {
		return "❌ failed"
	}
	return "✅ passed"
}

// mdEscape replaces characters that would break Markdown table cells.
func mdEscape(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", "")
	return s
}
