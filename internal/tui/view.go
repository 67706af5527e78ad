package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/charliek/logview/internal/domain"
)

// View renders the TUI
func (m Model) View() string {
	if !m.ready {
		return "Connecting to logview..."
	}

	if m.mode == ModeHelp {
		return m.helpView()
	}

	var sb strings.Builder
	sb.WriteString(m.header())
	sb.WriteString("\n")
	sb.WriteString(m.viewport.View())
	sb.WriteString("\n")
	sb.WriteString(m.statusBar())
	return sb.String()
}

// formatEntry renders one entry as a single line
func formatEntry(e domain.Entry) string {
	s := domain.Summarize(e.Data)

	parts := []string{dimStyle.Render(fmt.Sprintf("%6d", e.Pos))}
	if s.Time != "" {
		parts = append(parts, dimStyle.Render(s.Time))
	}
	if s.Level != "" {
		parts = append(parts, levelStyle(s.Level).Render(fmt.Sprintf("%-5s", strings.ToUpper(s.Level))))
	}
	if s.Message != "" {
		parts = append(parts, s.Message)
	}
	for _, f := range s.Fields {
		parts = append(parts, dimStyle.Render(f.Key+"=")+f.Value)
	}
	return strings.Join(parts, " ")
}

// header renders the title line
func (m Model) header() string {
	title := "logview"
	if m.opts.Title != "" {
		title += " " + m.opts.Title
	}
	if m.filter != "" {
		title += " | filter: " + m.filter
	}
	return headerStyle.Render(title)
}

// position describes where the window sits in the filtered sequence
func (m Model) position() string {
	if len(m.entries) == 0 {
		return fmt.Sprintf("0 of %s", humanize.Comma(int64(m.size)))
	}
	first := m.entries[0].Pos
	last := m.entries[len(m.entries)-1].Pos
	return fmt.Sprintf("%s-%s of %s",
		humanize.Comma(int64(first)), humanize.Comma(int64(last)), humanize.Comma(int64(m.size)))
}

// statusBar renders the bottom status bar
func (m Model) statusBar() string {
	var left string

	switch {
	case m.mode == ModeFilter:
		left = "Filter: " + m.textInput.View()
	case m.disconnected != nil:
		left = errorStyle.Render(" DISCONNECTED ") + " " + truncateError(m.disconnected, maxErrorDisplayLen)
	case m.sendErr != nil:
		left = errorStyle.Render(" ERROR ") + " " + truncateError(m.sendErr, maxErrorDisplayLen)
	case !m.synced:
		left = "Waiting for server..."
	default:
		left = "/: filter | t: tail | s: pin | ? for help"
	}

	modeIndicator := "[TAIL]"
	if m.viewMode == domain.ModeStatic {
		modeIndicator = "[STATIC]"
	} else if !m.followMode {
		modeIndicator = "[TAIL PAUSED]"
	}

	right := fmt.Sprintf("%s %s", modeIndicator, m.position())
	if m.filter != "" {
		right += fmt.Sprintf(" (%s total)", humanize.Comma(int64(m.totalSize)))
	}
	if n := m.newerCount(); n > 0 {
		right += " " + newerStyle.Render(fmt.Sprintf("+%s newer", humanize.Comma(int64(n))))
	}

	leftWidth := m.width - lipgloss.Width(right) - 4
	if leftWidth < 0 {
		leftWidth = 0
	}

	leftPart := statusStyle.Width(leftWidth).Render(left)
	rightPart := statusStyle.Render(right)

	return lipgloss.JoinHorizontal(lipgloss.Top, leftPart, "  ", rightPart)
}

// helpView renders the help overlay
func (m Model) helpView() string {
	help := `
logview - Log Viewer

Modes:
  t          Tail: follow the newest matches
  s          Static: pin the window at the top visible line
  PgUp/PgDn  Previous/next window (static)

Filtering:
  /          Edit filter (all words must match)
  Enter      Apply filter
  ESC        Cancel editing

Navigation:
  j/↓        Scroll down
  k/↑        Scroll up (pauses auto-follow)
  g/Home     Go to top
  G/End      Go to bottom (resumes auto-follow)
  F          Toggle auto-follow mode

Other:
  ?          Toggle help
  q/Ctrl+C   Quit (server continues running)

Press any key to close help...
`
	return helpStyle.Render(help)
}
