package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/charliek/logview/internal/domain"
)

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.handleWindowSize(msg)
		m.updateViewport()

	case ServerMsg:
		m.handleServerMessage(domain.ServerMessage(msg))
		cmds = append(cmds, m.recvCmd())

	case DisconnectedMsg:
		// No reconnection: the server going away ends the session.
		m.disconnected = msg.Err

	case SendErrorMsg:
		m.sendErr = msg.Err
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// handleServerMessage applies an init or update to the local view
func (m *Model) handleServerMessage(msg domain.ServerMessage) {
	switch {
	case msg.Init != nil:
		m.applyInit(msg.Init)
	case msg.Update != nil:
		m.applyUpdate(msg.Update)
	}
}

func (m *Model) applyInit(resp *domain.InitResponse) {
	m.synced = true
	m.sendErr = nil
	m.viewMode = resp.Mode
	m.totalSize = resp.TotalSize
	m.size = resp.Window.Size
	m.window = resp.Window.MaxMessages
	m.entries = resp.Window.Messages
	m.latest = nil
	m.offset = 0
	if resp.Window.OffsetStart != nil {
		m.offset = *resp.Window.OffsetStart
	}

	m.updateViewport()
	if m.viewMode == domain.ModeTail {
		m.followMode = true
		m.viewport.GotoBottom()
	} else {
		m.followMode = false
		m.viewport.GotoTop()
	}
}

func (m *Model) applyUpdate(update *domain.UpdateResponse) {
	m.size = update.Size
	if m.filter == "" {
		m.totalSize = update.Size
	}

	switch update.Mode {
	case domain.ModeTail:
		wasNearBottom := m.isNearBottom()
		m.entries = append(m.entries, update.Message)
		if len(m.entries) > m.window {
			trimmed := make([]domain.Entry, m.window)
			copy(trimmed, m.entries[len(m.entries)-m.window:])
			m.entries = trimmed
		}
		m.updateViewport()
		if wasNearBottom || m.followMode {
			m.followMode = true
			m.viewport.GotoBottom()
		}

	case domain.ModeStatic:
		m.latest = update.Latest
		// A static window that is not full yet grows in place
		pos := update.Message.Pos
		if pos > m.offset && pos <= m.offset+m.window && len(m.entries) == pos-m.offset-1 {
			m.entries = append(m.entries, update.Message)
			m.updateViewport()
		}
	}
}

// handleKey processes keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case ModeFilter:
		return m.handleFilterKey(msg)
	case ModeHelp:
		m.mode = ModeNormal
		return m, nil
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "?":
		m.mode = ModeHelp
		return m, nil

	case "/":
		m.mode = ModeFilter
		m.textInput.SetValue(m.filter)
		m.textInput.CursorEnd()
		m.textInput.Focus()
		return m, nil

	case "t":
		return m, m.sendCmd(domain.TailRequest(m.filter, m.window))

	case "s":
		return m, m.sendCmd(domain.StaticRequest(m.filter, m.topOffset(), m.window))

	case "pgup", "b":
		if m.viewMode == domain.ModeStatic {
			if m.offset == 0 {
				return m, nil
			}
			return m, m.sendCmd(domain.StaticRequest(m.filter, max(m.offset-m.window, 0), m.window))
		}

	case "pgdown", " ":
		if m.viewMode == domain.ModeStatic {
			next := m.offset + m.window
			if next >= m.size {
				return m, nil
			}
			return m, m.sendCmd(domain.StaticRequest(m.filter, next, m.window))
		}
	}

	m.handleNavigationKey(msg)
	return m, nil
}

// handleFilterKey edits the filter; enter asks the server to re-filter
// in the current mode
func (m Model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = ModeNormal
		m.textInput.Blur()
		return m, nil

	case "enter":
		m.mode = ModeNormal
		m.textInput.Blur()
		m.filter = strings.TrimSpace(m.textInput.Value())
		if m.viewMode == domain.ModeStatic {
			return m, m.sendCmd(domain.StaticRequest(m.filter, 0, m.window))
		}
		return m, m.sendCmd(domain.TailRequest(m.filter, m.window))
	}

	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

// topOffset is the 0-based filtered offset of the first visible line
func (m Model) topOffset() int {
	if len(m.entries) == 0 {
		return 0
	}
	i := m.viewport.YOffset
	if i >= len(m.entries) {
		i = len(m.entries) - 1
	}
	if i < 0 {
		i = 0
	}
	return m.entries[i].Pos - 1
}
