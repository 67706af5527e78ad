package tui

import (
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/charliek/logview/internal/constants"
	"github.com/charliek/logview/internal/domain"
)

// Viewer is the protocol connection the TUI drives. *client.Conn
// implements it.
type Viewer interface {
	Send(req domain.Request) error
	Recv() (domain.ServerMessage, error)
}

// Mode represents the current input mode
type Mode int

const (
	ModeNormal Mode = iota
	ModeFilter
	ModeHelp
)

// ServerMsg carries one message received from the server
type ServerMsg domain.ServerMessage

// DisconnectedMsg is sent when the connection stops delivering messages
type DisconnectedMsg struct {
	Err error
}

// SendErrorMsg is sent when a request could not be written
type SendErrorMsg struct {
	Err error
}

// Options configures the viewer
type Options struct {
	Filter      string // Initial filter
	MaxMessages int    // Window size requested from the server
	Title       string // Shown in the header, usually the server address
}

// Model is the bubbletea model of the log viewer
type Model struct {
	conn Viewer
	opts Options

	// Server view, replaced by every init
	viewMode  domain.Mode
	filter    string
	offset    int
	window    int
	size      int
	totalSize int
	entries   []domain.Entry
	latest    []domain.Entry
	synced    bool

	// Connection state
	disconnected error
	sendErr      error

	// UI components
	viewport  viewport.Model
	textInput textinput.Model
	mode      Mode

	// Auto-scroll in tail mode
	followMode bool

	// Dimensions
	width  int
	height int
	ready  bool
}

// NewModel creates a viewer model on top of an open connection
func NewModel(conn Viewer, opts Options) Model {
	if opts.MaxMessages <= 0 {
		opts.MaxMessages = constants.DefaultMaxMessages
	}
	if opts.MaxMessages > constants.MaxWindow {
		opts.MaxMessages = constants.MaxWindow
	}

	ti := textinput.New()
	ti.Placeholder = "words to match..."
	ti.CharLimit = constants.MaxFilterLength
	ti.Width = 40

	return Model{
		conn:       conn,
		opts:       opts,
		viewMode:   domain.ModeTail,
		filter:     opts.Filter,
		window:     opts.MaxMessages,
		textInput:  ti,
		mode:       ModeNormal,
		followMode: true,
	}
}

// Init asks for the initial tail window and starts receiving
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.sendCmd(domain.TailRequest(m.filter, m.window)),
		m.recvCmd(),
	)
}

// recvCmd blocks for the next server message
func (m Model) recvCmd() tea.Cmd {
	conn := m.conn
	return func() tea.Msg {
		msg, err := conn.Recv()
		if err != nil {
			return DisconnectedMsg{Err: err}
		}
		return ServerMsg(msg)
	}
}

// sendCmd writes a request without blocking the update loop
func (m Model) sendCmd(req domain.Request) tea.Cmd {
	conn := m.conn
	return func() tea.Msg {
		if err := conn.Send(req); err != nil {
			return SendErrorMsg{Err: err}
		}
		return nil
	}
}

// newerCount is how many matches arrived after a static window
func (m Model) newerCount() int {
	if m.viewMode != domain.ModeStatic {
		return 0
	}
	n := m.size - (m.offset + len(m.entries))
	if n < 0 {
		return 0
	}
	return n
}
