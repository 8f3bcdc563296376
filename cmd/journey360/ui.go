package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/goliatone/go-journey360/pkg/orchestrator"
	"github.com/goliatone/go-journey360/pkg/testgen"
)

var (
	accent = lipgloss.AdaptiveColor{Light: "#2563eb", Dark: "#60a5fa"}
	muted  = lipgloss.AdaptiveColor{Light: "#64748b", Dark: "#94a3b8"}
)

var styles = struct {
	Title   lipgloss.Style
	Label   lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
	Box     lipgloss.Style
}{
	Title:   lipgloss.NewStyle().Foreground(accent).Bold(true),
	Label:   lipgloss.NewStyle().Width(12).Foreground(muted),
	Muted:   lipgloss.NewStyle().Foreground(muted),
	Success: lipgloss.NewStyle().Foreground(lipgloss.Color("#16a34a")).Bold(true),
	Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("#dc2626")).Bold(true),
	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accent).
		Padding(0, 1),
}

func row(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, styles.Label.Render(label), value)
}

// printSummary writes a boxed overview of a generated project.
func printSummary(w io.Writer, result orchestrator.Result) {
	categories := map[testgen.Category]int{}
	for _, tc := range result.Tests {
		categories[tc.Category]++
	}
	var counts []string
	for _, category := range []testgen.Category{
		testgen.CategoryRender, testgen.CategoryRequired, testgen.CategoryFormat, testgen.CategorySubmission,
	} {
		if n := categories[category]; n > 0 {
			counts = append(counts, fmt.Sprintf("%d %s", n, category))
		}
	}

	lines := []string{
		styles.Title.Render(result.Schema.Title),
		row("project", result.ProjectID),
		row("layout", string(result.Schema.Layout)),
		row("fields", fmt.Sprint(len(result.Schema.Fields))),
		row("tests", fmt.Sprintf("%d (%s)", len(result.Tests), strings.Join(counts, ", "))),
		row("endpoints", fmt.Sprint(len(result.Endpoints))),
		row("version", fmt.Sprint(result.Schema.Metadata.Version)),
		row("generated", result.GeneratedAt.Format("2006-01-02 15:04:05")),
	}
	fmt.Fprintln(w, styles.Box.Render(lipgloss.JoinVertical(lipgloss.Left, lines...)))
}

// printReport lists failed cases and the totals of a test run.
func printReport(w io.Writer, report testgen.Report) {
	for i, result := range report.Results {
		if result.Status == testgen.StatusPassed {
			continue
		}
		name := result.CaseID
		if i < len(report.Cases) {
			name = report.Cases[i].Name
		}
		fmt.Fprintf(w, "%s %s\n  %s\n", styles.Error.Render("FAIL"), name, styles.Muted.Render(result.Message))
	}
	status := styles.Success.Render("PASS")
	if report.Failed > 0 {
		status = styles.Error.Render("FAIL")
	}
	fmt.Fprintf(w, "%s %d passed, %d failed\n", status, report.Passed, report.Failed)
}

// renderMarkdown styles markdown for the terminal, falling back to the raw
// text when the renderer cannot be built.
func renderMarkdown(markdown string, width int) string {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return markdown
	}
	out, err := renderer.Render(markdown)
	if err != nil {
		return markdown
	}
	return out
}
