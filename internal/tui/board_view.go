package tui

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/modsmith/modsmith/internal/plugin"
)

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B")).MarginBottom(1)
	panelStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#444444")).Padding(0, 1)
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	problemStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	loadedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50"))
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666")).MarginTop(1)
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801"))
	boardErrStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
)

func (a *App) View() string {
	width := a.width
	if width <= 0 {
		width = 100
	}
	rightWidth := max(36, width/2)
	leftWidth := width - rightWidth - 4
	if leftWidth < 30 {
		leftWidth = width - 4
		rightWidth = 0
	}
	a.modList.SetSize(max(20, leftWidth-4), max(10, a.height-10))

	header := headerStyle.Render("⬡ MODSMITH")
	left := panelStyle.Width(max(20, leftWidth)).Render(a.modList.View())
	body := left
	if rightWidth > 0 {
		right := lipgloss.JoinVertical(lipgloss.Left,
			a.renderDiagnosticsPanel(rightWidth-4),
			a.renderReportPanel(rightWidth-4),
			a.renderLogPanel(rightWidth-4),
		)
		body = lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right)
	}

	var footerParts []string
	if a.boardErr != "" {
		footerParts = append(footerParts, boardErrStyle.Render(a.boardErr))
	}
	if a.statusMsg != "" {
		footerParts = append(footerParts, statusStyle.Render(a.statusMsg))
	}
	footerParts = append(footerParts, footerStyle.Render("enter: load · r: refresh · d: disable · q: quit"))

	return lipgloss.JoinVertical(lipgloss.Left, header, body, strings.Join(footerParts, "\n"))
}

// renderDiagnosticsPanel lists why excluded mods did not make the load order.
func (a *App) renderDiagnosticsPanel(width int) string {
	title := titleStyle.Render("DIAGNOSTICS")
	lines := diagnosticLines(a)
	var body string
	if len(lines) == 0 {
		body = dimStyle.Render("No problems. Every installed mod is loadable.")
	} else {
		body = problemStyle.Render(strings.Join(lines, "\n"))
	}
	return panelStyle.Width(max(20, width)).Render(title + "\n" + body)
}

func diagnosticLines(a *App) []string {
	var lines []string
	if len(a.result.CircularDependencies) > 0 {
		lines = append(lines, fmt.Sprintf("cycle: %s", strings.Join(a.result.CircularDependencies, " -> ")))
	}
	for _, id := range sortedDiagIDs(a.result.MissingDependencies) {
		for _, reason := range a.result.MissingDependencies[id] {
			lines = append(lines, fmt.Sprintf("%s: %s", id, reason))
		}
	}
	for _, id := range sortedDiagIDs(a.result.Incompatibilities) {
		lines = append(lines, fmt.Sprintf("%s: incompatible with %s", id, strings.Join(a.result.Incompatibilities[id], ", ")))
	}
	return lines
}

// renderReportPanel shows the last load session, if one ran.
func (a *App) renderReportPanel(width int) string {
	if a.report == nil {
		return ""
	}
	title := titleStyle.Render(fmt.Sprintf("SESSION %s", shortSession(a.report.Session)))
	var lines []string
	for _, outcome := range a.report.Outcomes {
		line := fmt.Sprintf("%s · %s", outcome.ID, outcome.Status)
		switch outcome.Status {
		case plugin.StatusLoaded:
			line = loadedStyle.Render(line)
		case plugin.StatusFailed:
			line = problemStyle.Render(fmt.Sprintf("%s: %s", line, outcome.Err))
		default:
			line = dimStyle.Render(line)
		}
		lines = append(lines, line)
	}
	if a.report.Halted {
		lines = append(lines, problemStyle.Render("session halted on error"))
	}
	return panelStyle.Width(max(20, width)).Render(title + "\n" + strings.Join(lines, "\n"))
}

func (a *App) renderLogPanel(width int) string {
	if a.logbook == nil {
		return ""
	}
	lines := a.logbook.Tail(8)
	if len(lines) == 0 {
		return ""
	}
	fileName := filepath.Base(a.logbook.Path())
	if fileName == "." || fileName == "" {
		fileName = "log"
	}
	head := titleStyle.Render(fmt.Sprintf("LOG · %s", fileName))
	body := dimStyle.Render(strings.Join(lines, "\n"))
	return panelStyle.Width(max(20, width)).Render(head + "\n" + body)
}

func sortedDiagIDs(values map[string][]string) []string {
	if len(values) == 0 {
		return nil
	}
	ids := make([]string, 0, len(values))
	for id := range values {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
