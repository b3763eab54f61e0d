package main

import (
	"fmt"
	"strings"
	"time"

	"bytemomo/moray/internal/analyzer"
	"bytemomo/moray/internal/domain"
	"bytemomo/moray/internal/usecase"

	"github.com/charmbracelet/lipgloss"
)

var (
	success = lipgloss.Color("#00D26A")
	failure = lipgloss.Color("#FF3838")
	warning = lipgloss.Color("#FFB800")
	muted   = lipgloss.Color("#6B7280")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().Foreground(muted).Width(16)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7D56F4")).
			Padding(0, 1)
)

func levelColor(level string) lipgloss.Color {
	switch level {
	case analyzer.LevelHigh:
		return failure
	case analyzer.LevelMedium:
		return warning
	default:
		return success
	}
}

func stateColor(s domain.AttackState) lipgloss.Color {
	switch s {
	case domain.StateCracked:
		return success
	case domain.StateNotFound, domain.StateCaptureTimedOut:
		return warning
	default:
		return failure
	}
}

// renderSummary formats the outcome of a run for the terminal.
func renderSummary(res *usecase.AttackResult, report analyzer.Report, reportPath string) string {
	var b strings.Builder
	row := func(label, value string) {
		b.WriteString(labelStyle.Render(label) + value + "\n")
	}

	b.WriteString(titleStyle.Render("MORAY RESULTS") + "\n\n")
	row("Network", fmt.Sprintf("%s (%s)", report.SSID, report.BSSID))
	row("Run", res.RunID)
	row("Outcome", lipgloss.NewStyle().Bold(true).Foreground(stateColor(res.State)).Render(string(res.State)))
	switch {
	case res.Cracked():
		row("Credential", res.Credential)
	case res.State == domain.StateNotFound:
		row("Hint", "try a larger wordlist")
	}
	if res.Artifact.Path != "" {
		row("Capture", fmt.Sprintf("%s (%d bytes)", res.Artifact.Path, res.Artifact.Size))
	}
	if res.WordlistSize > 0 {
		row("Wordlist", fmt.Sprintf("%s (%d candidates)", res.Wordlist, res.WordlistSize))
	}
	row("Duration", res.Duration.Round(time.Millisecond).String())

	b.WriteString("\n")
	row("Risk", lipgloss.NewStyle().Bold(true).Foreground(levelColor(report.Level)).
		Render(fmt.Sprintf("%s %d/100", report.Level, report.RiskScore)))
	for _, v := range report.Vulnerabilities {
		b.WriteString("  - " + v + "\n")
	}
	if len(report.Recommendations) > 0 {
		b.WriteString(labelStyle.Render("Recommendations") + "\n")
		for _, r := range report.Recommendations {
			b.WriteString("  - " + r + "\n")
		}
	}
	if reportPath != "" {
		row("Report", reportPath)
	}

	return boxStyle.Render(strings.TrimRight(b.String(), "\n"))
}
