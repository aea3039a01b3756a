package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dunamismax/photocompress/internal/runner"
	"github.com/dustin/go-humanize"
)

var (
	colorInk     = lipgloss.Color("#E5E9F0")
	colorDim     = lipgloss.Color("#7A8291")
	colorAccent  = lipgloss.Color("#88C0D0")
	colorSuccess = lipgloss.Color("#A3BE8C")

	labelStyle   = lipgloss.NewStyle().Foreground(colorDim)
	valueStyle   = lipgloss.NewStyle().Foreground(colorInk).Bold(true)
	headingStyle = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	savedStyle   = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(colorDim)
)

type summaryRow struct {
	Label string
	Value string
	Style *lipgloss.Style
}

func renderSummary(rows []summaryRow) string {
	labelWidth, valueWidth := 0, 0
	for _, row := range rows {
		labelWidth = max(labelWidth, len(row.Label))
		valueWidth = max(valueWidth, len(row.Value))
	}

	hline := dimStyle.Render(strings.Repeat("─", labelWidth+valueWidth+3))
	lines := []string{hline}
	for _, row := range rows {
		style := valueStyle
		if row.Style != nil {
			style = *row.Style
		}
		lines = append(lines, fmt.Sprintf("%s │ %s",
			labelStyle.Render(padRight(row.Label, labelWidth)),
			style.Render(row.Value),
		))
	}
	lines = append(lines, hline)
	return strings.Join(lines, "\n")
}

func renderReport(report runner.Report) string {
	rows := []summaryRow{
		{Label: "Run", Value: report.RunID},
		{Label: "Files", Value: fmt.Sprint(report.Files)},
		{Label: "Skipped", Value: fmt.Sprint(len(report.Skipped))},
		{Label: "Format", Value: fmt.Sprintf("%s (%s)", report.Format, report.Backend)},
		{Label: "Before", Value: formatBytes(report.SourceBytes)},
		{Label: "After", Value: formatBytes(report.OutputBytes)},
		{Label: "Saved", Value: savedValue(report), Style: &savedStyle},
	}
	if report.CacheHits > 0 {
		rows = append(rows, summaryRow{Label: "Cached", Value: fmt.Sprint(report.CacheHits)})
	}
	for _, d := range report.Deliveries {
		location := d.Location
		if d.URL != "" {
			location = d.URL
		}
		rows = append(rows, summaryRow{Label: "Archive", Value: location})
	}
	return renderSummary(rows)
}

func savedValue(report runner.Report) string {
	if report.SourceBytes <= 0 {
		return formatBytes(report.BytesSaved)
	}
	pct := float64(report.BytesSaved) / float64(report.SourceBytes) * 100
	return fmt.Sprintf("%s (%.0f%%)", formatBytes(report.BytesSaved), pct)
}

func formatBytes(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.Bytes(uint64(n))
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
