package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// View renders the full TUI.
func (m Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	var sections []string
	sections = append(sections, m.renderHeader())
	sections = append(sections, m.renderTabs())
	sections = append(sections, m.theme.Divider.Render(strings.Repeat("─", m.width)))

	if m.pending != nil {
		sections = append(sections, m.renderPrompt())
	} else {
		switch m.tab {
		case TabAlarms:
			sections = append(sections, m.renderAlarms())
		case TabTimer:
			sections = append(sections, m.renderTimer())
		case TabStopwatch:
			sections = append(sections, m.renderStopwatch())
		}
	}

	sections = append(sections, m.theme.Divider.Render(strings.Repeat("─", m.width)))

	if m.errorMessage != "" {
		sections = append(sections, m.renderErrorBar())
	} else if m.statusText != "" {
		sections = append(sections, m.theme.Status.Render(m.statusText))
	}

	sections = append(sections, m.renderFooter())

	return strings.Join(sections, "\n")
}

func (m Model) renderHeader() string {
	title := m.theme.Title.Render("ALARM CLOCK")
	clock := m.theme.Clock.Render(m.now.Format("15:04:05"))
	gap := m.width - lipgloss.Width(title) - lipgloss.Width(clock)
	if gap < 1 {
		gap = 1
	}
	return title + strings.Repeat(" ", gap) + clock
}

func (m Model) renderTabs() string {
	var tabs []string
	for i, name := range tabNames {
		if Tab(i) == m.tab {
			tabs = append(tabs, m.theme.TabActive.Render(name))
		} else {
			tabs = append(tabs, m.theme.Tab.Render(name))
		}
	}
	return strings.Join(tabs, m.theme.Divider.Render("│"))
}

// contentHeight is the number of rows between the two dividers.
func (m Model) contentHeight() int {
	if m.height == 0 {
		return 12
	}
	// Reserve: header(1) + tabs(1) + dividers(2) + status(1) + footer(1)
	return max(5, m.height-6)
}

func (m Model) renderAlarms() string {
	var lines []string
	if len(m.alarms) == 0 {
		lines = append(lines, m.theme.Dim.Render("  No alarms set."))
		lines = append(lines, m.theme.Dim.Render("  Press n to add one."))
	}
	for i, a := range m.alarms {
		var line string
		if i == m.selected && !m.formOpen {
			line = m.theme.Selected.Render("> " + a.Label())
		} else {
			line = "  " + m.theme.Text.Render(a.Label())
		}
		if a.SnoozeCount > 0 {
			line += m.theme.Dim.Render(fmt.Sprintf("  (snoozed %d×)", a.SnoozeCount))
		}
		lines = append(lines, truncateToWidth(line, m.width))
	}

	if m.formOpen {
		lines = append(lines, "")
		lines = append(lines, m.theme.Title.Render("  NEW ALARM"))
		lines = append(lines, m.form.view(m.theme))
	}
	return padLines(strings.Join(lines, "\n"), m.contentHeight())
}

func (m Model) renderPrompt() string {
	trig := m.pending
	snooze := int(m.engine.SnoozeDuration().Minutes())
	body := strings.Join([]string{
		m.theme.PromptTitle.Render("ALARM  " + trig.Alarm.Time.String()),
		"",
		m.theme.Text.Render(trig.Message()),
		"",
		m.theme.FooterKey.Render("s") + m.theme.FooterDesc.Render(fmt.Sprintf(" Snooze (%d min)", snooze)) +
			"    " +
			m.theme.FooterKey.Render("x") + m.theme.FooterDesc.Render(" Stop"),
	}, "\n")
	box := m.theme.Prompt.Render(body)
	return lipgloss.Place(m.width, m.contentHeight(), lipgloss.Center, lipgloss.Center, box)
}

func (m Model) renderTimer() string {
	var parts []string
	switch m.timer.state {
	case countdownIdle:
		parts = append(parts, m.theme.BigDigits.Render("00:00:00"))
		parts = append(parts, m.timer.form.view(m.theme))
	case countdownRunning:
		parts = append(parts, m.theme.BigDigits.Render(formatClock(m.timer.remaining)))
		parts = append(parts, m.theme.Running.Render("  Running"))
	case countdownPaused:
		parts = append(parts, m.theme.BigDigits.Render(formatClock(m.timer.remaining)))
		parts = append(parts, m.theme.Dim.Render("  Stopped"))
	case countdownDone:
		parts = append(parts, m.theme.BigDigits.Render(formatClock(0)))
		parts = append(parts, m.theme.PromptTitle.Render("  Timer Complete"))
		parts = append(parts, m.theme.Text.Render("  Your timer has finished!"))
	}
	return padLines(strings.Join(parts, "\n"), m.contentHeight())
}

func (m Model) renderStopwatch() string {
	state := m.theme.Dim.Render("  Stopped")
	if m.stopwatch.running {
		state = m.theme.Running.Render("  Running")
	}
	return padLines(m.theme.BigDigits.Render(formatClock(m.stopwatch.elapsed))+"\n"+state, m.contentHeight())
}

func (m Model) renderErrorBar() string {
	return m.theme.Error.Render("Error: ") + m.theme.ErrorText.Render(m.errorMessage)
}

func (m Model) renderFooter() string {
	var parts []string
	hint := func(key, desc string) {
		parts = append(parts, m.theme.FooterKey.Render(key)+m.theme.FooterDesc.Render(" "+desc))
	}

	switch {
	case m.pending != nil:
		hint("s", "Snooze")
		hint("x", "Stop")
		return strings.Join(parts, "  ")
	case m.timer.state == countdownDone:
		hint("any key", "Dismiss")
		return strings.Join(parts, "  ")
	case m.formOpen:
		hint("Enter", "Save")
		hint("Tab", "Next field")
		hint("Esc", "Cancel")
		return strings.Join(parts, "  ")
	}

	switch m.tab {
	case TabAlarms:
		hint("n", "New")
		hint("d", "Delete")
		hint("j/k", "Nav")
	case TabTimer:
		switch m.timer.state {
		case countdownIdle:
			hint("0-9", "Set")
			hint("←→", "Field")
			hint("Enter", "Start")
		case countdownRunning:
			hint("Space", "Stop")
			hint("r", "Reset")
		case countdownPaused:
			hint("Space", "Continue")
			hint("r", "Reset")
		}
	case TabStopwatch:
		switch {
		case m.stopwatch.running:
			hint("Space", "Stop")
		case m.stopwatch.elapsed > 0:
			hint("Space", "Continue")
		default:
			hint("Space", "Start")
		}
		hint("r", "Reset")
	}
	hint("Tab", "Switch")
	hint("t", "Theme")
	hint("q", "Quit")

	return strings.Join(parts, "  ")
}

// Helpers

func padLines(s string, height int) string {
	lines := strings.Split(s, "\n")
	for len(lines) < height {
		lines = append(lines, "")
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	return strings.Join(lines, "\n")
}

func truncateToWidth(s string, width int) string {
	if width <= 0 || lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	if len(runes) > width-1 {
		return string(runes[:width-1]) + "…"
	}
	return s
}
