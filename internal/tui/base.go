package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/charliek/logview/internal/domain"
)

// maxErrorDisplayLen is the maximum length of error messages in the status bar
const maxErrorDisplayLen = 60

// nearBottomThreshold is the scroll percentage considered "at the bottom"
const nearBottomThreshold = 0.98

// handleWindowSize handles window resize messages
func (m *Model) handleWindowSize(msg tea.WindowSizeMsg) {
	m.width = msg.Width
	m.height = msg.Height

	headerHeight := 2 // Title line
	footerHeight := 2 // Status bar
	verticalMargins := headerHeight + footerHeight

	viewportHeight := msg.Height - verticalMargins
	if viewportHeight < 1 {
		viewportHeight = 1
	}

	if !m.ready {
		m.viewport = viewport.New(msg.Width, viewportHeight)
		m.viewport.YPosition = headerHeight
		m.ready = true
	} else {
		m.viewport.Width = msg.Width
		m.viewport.Height = viewportHeight
	}
}

// handleNavigationKey handles scrolling within the current window.
// Returns true if the key was handled.
func (m *Model) handleNavigationKey(msg tea.KeyMsg) bool {
	switch msg.String() {
	case "up", "k":
		m.viewport.LineUp(1)
		m.followMode = false
		return true

	case "down", "j":
		m.viewport.LineDown(1)
		if m.isNearBottom() && m.viewMode == domain.ModeTail {
			m.followMode = true
		}
		return true

	case "pgup", "b":
		m.viewport.HalfViewUp()
		m.followMode = false
		return true

	case "pgdown", " ":
		m.viewport.HalfViewDown()
		return true

	case "g", "home":
		m.viewport.GotoTop()
		m.followMode = false
		return true

	case "G", "end":
		m.viewport.GotoBottom()
		m.followMode = m.viewMode == domain.ModeTail
		return true

	case "F":
		m.followMode = !m.followMode
		if m.followMode {
			m.viewport.GotoBottom()
		}
		return true
	}
	return false
}

// isNearBottom returns true if the viewport is at or near the bottom
func (m *Model) isNearBottom() bool {
	if !m.ready {
		return true
	}
	return m.viewport.AtBottom() || m.viewport.ScrollPercent() >= nearBottomThreshold
}

// updateViewport re-renders the window into the viewport
func (m *Model) updateViewport() {
	if !m.ready {
		return
	}

	lines := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		lines = append(lines, formatEntry(e))
	}
	m.viewport.SetContent(strings.Join(lines, "\n"))
}

// truncateError truncates an error message to maxLen characters
func truncateError(err error, maxLen int) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if len(msg) > maxLen {
		return msg[:maxLen-3] + "..."
	}
	return msg
}
