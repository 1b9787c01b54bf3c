package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/studiowebux/sockbench/internal/stresstest"
	"gopkg.in/yaml.v3"
)

// Output formats
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

var (
	styleHeading = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#008b8b", Dark: "#00ffff"})

	styleRule = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#888888"})
)

const ruleWidth = 40

// ValidateFormat checks an output format name
func ValidateFormat(format string) error {
	switch format {
	case "", FormatText, FormatJSON, FormatYAML:
		return nil
	}
	return fmt.Errorf("unsupported output format %q (use text, json or yaml)", format)
}

// marshal encodes v as json or yaml
func marshal(v any, format string) (string, error) {
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return "", err
		}
		return string(data) + "\n", nil
	case FormatYAML:
		data, err := yaml.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	return "", fmt.Errorf("unsupported output format %q", format)
}

// formatSummary renders a finished run in the requested format
func formatSummary(s *stresstest.Summary, format string) (string, error) {
	if format == FormatJSON || format == FormatYAML {
		return marshal(s, format)
	}
	return formatSummaryText(s), nil
}

// formatSummaryText renders the fixed console report
func formatSummaryText(s *stresstest.Summary) string {
	var sb strings.Builder
	rule := styleRule.Render(strings.Repeat("-", ruleWidth))

	sb.WriteString(rule + "\n")
	sb.WriteString(styleHeading.Render(fmt.Sprintf("%s %s", modeTitle(s.Mode), s.Target)) + "\n")
	line := func(label, value string) {
		sb.WriteString(fmt.Sprintf("%-15s: %s\n", label, value))
	}

	if s.Cancelled {
		line("Status", "cancelled")
	}
	line("Total Requests", fmt.Sprintf("%d", s.Total))
	line("Successful", fmt.Sprintf("%d", s.Success))
	line("Failed", fmt.Sprintf("%d", s.Failure))
	line("Success Rate", fmt.Sprintf("%.2f%%", s.SuccessRate*100))
	line("Duration", fmt.Sprintf("%.3f s", s.Duration.Seconds()))
	line("Throughput", fmt.Sprintf("%.2f %s", s.Throughput, s.ThroughputUnit))
	if s.AvgLatency != nil {
		line("Avg Latency", formatMs(*s.AvgLatency))
		line("Min / Max", formatMs(s.MinLatency)+" / "+formatMs(s.MaxLatency))
		line("P50/P95/P99", formatMs(s.P50Latency)+" / "+formatMs(s.P95Latency)+" / "+formatMs(s.P99Latency))
	}
	sb.WriteString(rule + "\n")

	return sb.String()
}

// formatRunsText renders run history as a table
func formatRunsText(runs []*stresstest.Run) string {
	if len(runs) == 0 {
		return "No runs recorded\n"
	}

	var sb strings.Builder
	sb.WriteString(styleHeading.Render(fmt.Sprintf("%-5s %-10s %-22s %-19s %8s %8s %14s %12s",
		"ID", "MODE", "TARGET", "STARTED", "OK", "FAILED", "THROUGHPUT", "AVG")) + "\n")
	for _, r := range runs {
		avg := "-"
		if r.AvgLatencyMs != nil {
			avg = fmt.Sprintf("%.3f ms", *r.AvgLatencyMs)
		}
		sb.WriteString(fmt.Sprintf("%-5d %-10s %-22s %-19s %8d %8d %14s %12s\n",
			r.ID, r.Mode, r.Target, r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Success, r.Failure, fmt.Sprintf("%.2f %s", r.Throughput, r.ThroughputUnit), avg))
	}
	return sb.String()
}

func modeTitle(mode stresstest.Mode) string {
	if mode == stresstest.ModeClose {
		return "Close"
	}
	return "Keep-Alive"
}

func formatMs(d time.Duration) string {
	return fmt.Sprintf("%.3f ms", float64(d)/float64(time.Millisecond))
}
