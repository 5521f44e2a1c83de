package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/focusagent/focusagent/internal/models"
	"github.com/focusagent/focusagent/internal/tui/components"
)

// View renders the whole screen
func (m Model) View() string {
	var b strings.Builder

	if m.state.BannerVisible {
		b.WriteString(m.renderBanner())
		b.WriteString("\n\n")
	}

	b.WriteString(components.HeaderStyle.Render("FocusAgent"))
	b.WriteString("  ")
	b.WriteString(m.renderConnection())
	b.WriteString("\n\n")

	b.WriteString(m.renderFocusState())
	b.WriteString("\n\n")
	b.WriteString(m.renderSession())
	b.WriteString("\n\n")
	b.WriteString(m.renderCheckIn())
	b.WriteString("\n\n")

	if m.mode != modeOverview {
		b.WriteString(m.renderForm())
		b.WriteString("\n\n")
	}

	if m.busy != "" {
		b.WriteString(m.spinner.View())
		b.WriteString(" ")
		b.WriteString(m.busy)
		b.WriteString("\n")
	}
	if m.sessionErr != "" {
		b.WriteString(components.ErrorStyle.Render(m.sessionErr))
		b.WriteString("\n")
	}

	content := components.MainContentStyle.Render(b.String())
	return lipgloss.JoinVertical(lipgloss.Left, content, m.renderFooter())
}

func (m Model) renderBanner() string {
	banner := components.BannerStyle.Render("⚠  You seem off-task")
	if m.width > 0 {
		return lipgloss.PlaceHorizontal(m.width, lipgloss.Center, banner)
	}
	return banner
}

func (m Model) renderConnection() string {
	switch m.state.Connection {
	case models.ConnectionConnected:
		return components.StatusConnectedStyle.Render("● live")
	case models.ConnectionConnecting:
		return components.StatusPendingStyle.Render("● connecting")
	case models.ConnectionRetrying:
		return components.StatusPendingStyle.Render("● reconnecting")
	default:
		return components.StatusDisconnectedStyle.Render("● offline")
	}
}

func (m Model) renderFocusState() string {
	state := m.state.View.FocusState
	style := components.OnTaskStyle
	if state == models.FocusOffTask {
		style = components.OffTaskStyle
	}
	return components.SectionHeaderStyle.Render("CURRENT STATE") + "\n" + style.Render(state.Label())
}

func (m Model) renderSession() string {
	v := m.state.View

	task := "No task selected"
	if v.CurrentTask != nil {
		task = *v.CurrentTask
	}

	var status string
	switch {
	case v.TimerRunning:
		status = components.RunningStyle.Render("Focus mode is running")
	case v.Completed():
		status = components.MutedStyle.Render("Session complete!")
	default:
		status = components.MutedStyle.Render("Start a session to begin the countdown.")
	}

	lines := []string{
		components.SectionHeaderStyle.Render("CURRENT TASK"),
		components.TaskStyle.Render(task),
		"",
		components.SectionHeaderStyle.Render("TIMER"),
		components.TimerStyle.Render(v.FormatRemaining()),
		status,
	}
	return components.ApplyWidth(components.CardStyle, m.cardWidth()).Render(strings.Join(lines, "\n"))
}

func (m Model) renderCheckIn() string {
	v := m.state.View

	header := components.SectionHeaderStyle.Render("AI CHECK-IN")
	if v.LastUpdatedAt != nil {
		header += "  " + components.MutedStyle.Render("Updated "+v.LastUpdatedAt.In(m.location).Format("15:04:05"))
	}

	var body string
	switch {
	case v.LastError != nil:
		body = components.ErrorStyle.Render(*v.LastError)
	case v.LastSummary != nil:
		body = *v.LastSummary
	default:
		body = components.MutedStyle.Render("Start a focus session to receive automatic screen reviews.")
	}

	lines := []string{header, body}
	if m.checkIn != nil {
		lines = append(lines, "", components.MutedStyle.Render(
			fmt.Sprintf("On demand (%s): %s", m.checkIn.State.Label(), m.checkIn.Summary)))
	}
	return components.ApplyWidth(components.CardStyle, m.cardWidth()).Render(strings.Join(lines, "\n"))
}

func (m Model) renderForm() string {
	lines := []string{
		components.SectionHeaderStyle.Render("SESSION PLANNER"),
		m.taskInput.View(),
		m.minutesInput.View(),
		components.MutedStyle.Render("enter to continue, tab to switch, esc to cancel"),
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderFooter() string {
	keys := []struct{ key, label string }{
		{components.KeyStart, "start"},
		{components.KeyEnd, "end"},
		{components.KeyRefresh, "refresh"},
		{components.KeyAnalyze, "check in"},
		{components.KeyQuit, "quit"},
	}
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, components.KeyHighlightStyle.Render(k.key)+" "+k.label)
	}
	return components.ApplyWidth(components.FooterStyle, m.width).Render(strings.Join(parts, "  "))
}

func (m Model) cardWidth() int {
	if m.width == 0 || m.width > 72 {
		return 72
	}
	return m.width - 4
}
