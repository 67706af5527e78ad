package tui

import (
	"errors"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charliek/logview/internal/constants"
	"github.com/charliek/logview/internal/domain"
)

// fakeViewer records requests and replays queued server messages
type fakeViewer struct {
	mu       sync.Mutex
	sent     []domain.Request
	incoming []domain.ServerMessage
	sendErr  error
}

func (f *fakeViewer) Send(req domain.Request) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, req)
	return nil
}

func (f *fakeViewer) Recv() (domain.ServerMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.incoming) == 0 {
		return domain.ServerMessage{}, errors.New("connection closed")
	}
	msg := f.incoming[0]
	f.incoming = f.incoming[1:]
	return msg, nil
}

func (f *fakeViewer) lastSent(t *testing.T) domain.Request {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.sent)
	return f.sent[len(f.sent)-1]
}

func entries(positions ...int) []domain.Entry {
	out := make([]domain.Entry, 0, len(positions))
	for _, p := range positions {
		out = append(out, domain.Entry{Seq: p, Pos: p, Data: map[string]any{"message": "line"}})
	}
	return out
}

func tailInit(total, size, window int, msgs []domain.Entry) ServerMsg {
	return ServerMsg{Type: domain.TypeInit, Init: &domain.InitResponse{
		Type:      domain.TypeInit,
		Mode:      domain.ModeTail,
		TotalSize: total,
		Window:    domain.Window{Size: size, MaxMessages: window, Messages: msgs},
	}}
}

func staticInit(size, offset, window int, msgs []domain.Entry) ServerMsg {
	return ServerMsg{Type: domain.TypeInit, Init: &domain.InitResponse{
		Type:      domain.TypeInit,
		Mode:      domain.ModeStatic,
		TotalSize: size,
		Window:    domain.Window{Size: size, MaxMessages: window, OffsetStart: &offset, Messages: msgs},
	}}
}

func update(mode domain.Mode, size int, latest ...domain.Entry) ServerMsg {
	return ServerMsg{Type: domain.TypeUpdate, Update: &domain.UpdateResponse{
		Type:    domain.TypeUpdate,
		Mode:    mode,
		Size:    size,
		Message: domain.Entry{Seq: size, Pos: size, Data: map[string]any{"message": "new"}},
		Latest:  latest,
	}}
}

// newTestModel returns a sized model with maxMessages 2
func newTestModel(conn Viewer) Model {
	m := NewModel(conn, Options{MaxMessages: 2})
	return step(m, tea.WindowSizeMsg{Width: 120, Height: 30})
}

func step(m Model, msg tea.Msg) Model {
	next, _ := m.Update(msg)
	return next.(Model)
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEscape}
	case "pgup":
		return tea.KeyMsg{Type: tea.KeyPgUp}
	case "pgdown":
		return tea.KeyMsg{Type: tea.KeyPgDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNewModel(t *testing.T) {
	m := NewModel(&fakeViewer{}, Options{})

	assert.Equal(t, ModeNormal, m.mode)
	assert.Equal(t, domain.ModeTail, m.viewMode)
	assert.Equal(t, constants.DefaultMaxMessages, m.window)
	assert.False(t, m.ready)
	assert.True(t, m.followMode)

	m = NewModel(&fakeViewer{}, Options{MaxMessages: constants.MaxWindow + 1})
	assert.Equal(t, constants.MaxWindow, m.window)
}

func TestModel_InitRequestsTail(t *testing.T) {
	conn := &fakeViewer{}
	m := NewModel(conn, Options{Filter: "error", MaxMessages: 5})

	cmd := m.Init()
	require.NotNil(t, cmd)

	batch, ok := cmd().(tea.BatchMsg)
	require.True(t, ok)
	for _, c := range batch {
		if c != nil {
			c()
		}
	}

	req := conn.lastSent(t)
	assert.Equal(t, domain.ModeTail, req.Mode)
	assert.Equal(t, "error", req.Filter)
	assert.Equal(t, 5, *req.MaxMessages)
}

func TestModel_TailInitAndUpdates(t *testing.T) {
	m := newTestModel(&fakeViewer{})

	m = step(m, tailInit(5, 5, 2, entries(4, 5)))
	assert.True(t, m.synced)
	assert.Equal(t, domain.ModeTail, m.viewMode)
	assert.Equal(t, 5, m.size)
	assert.Equal(t, []int{4, 5}, positions(m.entries))

	m = step(m, update(domain.ModeTail, 6))
	assert.Equal(t, 6, m.size)
	assert.Equal(t, []int{5, 6}, positions(m.entries))
	assert.Zero(t, m.newerCount())
}

func TestModel_ServerMsgKeepsReceiving(t *testing.T) {
	m := newTestModel(&fakeViewer{})

	_, cmd := m.Update(tailInit(0, 0, 2, nil))
	assert.NotNil(t, cmd)
}

func TestModel_StaticNewerMatches(t *testing.T) {
	m := newTestModel(&fakeViewer{})

	m = step(m, staticInit(8, 5, 2, entries(6, 7)))
	assert.Equal(t, domain.ModeStatic, m.viewMode)
	assert.Equal(t, 5, m.offset)
	assert.False(t, m.followMode)
	assert.Equal(t, 1, m.newerCount())

	latest := entries(8, 9)
	m = step(m, update(domain.ModeStatic, 9, latest...))
	assert.Equal(t, []int{6, 7}, positions(m.entries))
	assert.Equal(t, latest, m.latest)
	assert.Equal(t, 2, m.newerCount())
	assert.Contains(t, m.statusBar(), "+2 newer")
}

func TestModel_StaticWindowFillsIn(t *testing.T) {
	m := newTestModel(&fakeViewer{})

	m = step(m, staticInit(3, 2, 2, entries(3)))
	m = step(m, update(domain.ModeStatic, 4))
	assert.Equal(t, []int{3, 4}, positions(m.entries))

	m = step(m, update(domain.ModeStatic, 5))
	assert.Equal(t, []int{3, 4}, positions(m.entries))
	assert.Equal(t, 1, m.newerCount())
}

func TestModel_FilterKeySendsRequest(t *testing.T) {
	conn := &fakeViewer{}
	m := newTestModel(conn)

	m = step(m, key("/"))
	assert.Equal(t, ModeFilter, m.mode)

	m = step(m, key("error db"))
	next, cmd := m.Update(key("enter"))
	m = next.(Model)
	require.NotNil(t, cmd)
	cmd()

	assert.Equal(t, ModeNormal, m.mode)
	assert.Equal(t, "error db", m.filter)
	assert.Equal(t, domain.TailRequest("error db", 2), conn.lastSent(t))
}

func TestModel_FilterKeyInStaticRestartsAtTop(t *testing.T) {
	conn := &fakeViewer{}
	m := newTestModel(conn)
	m = step(m, staticInit(8, 5, 2, entries(6, 7)))

	m = step(m, key("/"))
	m = step(m, key("x"))
	_, cmd := m.Update(key("enter"))
	require.NotNil(t, cmd)
	cmd()

	assert.Equal(t, domain.StaticRequest("x", 0, 2), conn.lastSent(t))
}

func TestModel_FilterEscCancels(t *testing.T) {
	conn := &fakeViewer{}
	m := newTestModel(conn)

	m = step(m, key("/"))
	m = step(m, key("abc"))
	next, cmd := m.Update(key("esc"))
	m = next.(Model)

	assert.Nil(t, cmd)
	assert.Equal(t, ModeNormal, m.mode)
	assert.Empty(t, m.filter)
}

func TestModel_PinStaticAtTop(t *testing.T) {
	conn := &fakeViewer{}
	m := newTestModel(conn)
	m = step(m, tailInit(5, 5, 2, entries(4, 5)))

	_, cmd := m.Update(key("s"))
	require.NotNil(t, cmd)
	cmd()

	assert.Equal(t, domain.StaticRequest("", 3, 2), conn.lastSent(t))
}

func TestModel_TailKey(t *testing.T) {
	conn := &fakeViewer{}
	m := newTestModel(conn)
	m = step(m, staticInit(8, 5, 2, entries(6, 7)))

	_, cmd := m.Update(key("t"))
	require.NotNil(t, cmd)
	cmd()

	assert.Equal(t, domain.TailRequest("", 2), conn.lastSent(t))
}

func TestModel_StaticPaging(t *testing.T) {
	conn := &fakeViewer{}
	m := newTestModel(conn)
	m = step(m, staticInit(8, 2, 2, entries(3, 4)))

	_, cmd := m.Update(key("pgdown"))
	require.NotNil(t, cmd)
	cmd()
	assert.Equal(t, domain.StaticRequest("", 4, 2), conn.lastSent(t))

	_, cmd = m.Update(key("pgup"))
	require.NotNil(t, cmd)
	cmd()
	assert.Equal(t, domain.StaticRequest("", 0, 2), conn.lastSent(t))
}

func TestModel_StaticPagingStopsAtEdges(t *testing.T) {
	m := newTestModel(&fakeViewer{})

	first := step(m, staticInit(8, 0, 2, entries(1, 2)))
	_, cmd := first.Update(key("pgup"))
	assert.Nil(t, cmd)

	last := step(m, staticInit(8, 6, 2, entries(7, 8)))
	_, cmd = last.Update(key("pgdown"))
	assert.Nil(t, cmd)
}

func TestModel_SendError(t *testing.T) {
	conn := &fakeViewer{sendErr: errors.New("broken pipe")}
	m := newTestModel(conn)

	_, cmd := m.Update(key("t"))
	require.NotNil(t, cmd)
	m = step(m, cmd())

	assert.EqualError(t, m.sendErr, "broken pipe")
	assert.Contains(t, m.statusBar(), "broken pipe")
}

func TestModel_Disconnected(t *testing.T) {
	m := newTestModel(&fakeViewer{})

	m = step(m, DisconnectedMsg{Err: errors.New("connection reset")})

	assert.Contains(t, m.View(), "DISCONNECTED")
}

func TestModel_RecvCmd(t *testing.T) {
	first := tailInit(1, 1, 2, entries(1))
	conn := &fakeViewer{incoming: []domain.ServerMessage{domain.ServerMessage(first)}}
	m := newTestModel(conn)

	msg := m.recvCmd()()
	assert.Equal(t, first, msg)

	msg = m.recvCmd()()
	assert.IsType(t, DisconnectedMsg{}, msg)
}

func TestModel_HelpMode(t *testing.T) {
	m := newTestModel(&fakeViewer{})

	m = step(m, key("?"))
	assert.Equal(t, ModeHelp, m.mode)
	assert.Contains(t, m.View(), "Toggle help")

	m = step(m, key("x"))
	assert.Equal(t, ModeNormal, m.mode)
}

func TestModel_Quit(t *testing.T) {
	m := newTestModel(&fakeViewer{})

	_, cmd := m.Update(key("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestModel_FollowMode(t *testing.T) {
	m := newTestModel(&fakeViewer{})
	m = step(m, tailInit(5, 5, 2, entries(4, 5)))

	m = step(m, key("k"))
	assert.False(t, m.followMode)

	m = step(m, key("G"))
	assert.True(t, m.followMode)

	m = step(m, key("F"))
	assert.False(t, m.followMode)
}

func TestModel_ViewBeforeReady(t *testing.T) {
	m := NewModel(&fakeViewer{}, Options{})
	assert.Equal(t, "Connecting to logview...", m.View())
}

func TestFormatEntry(t *testing.T) {
	line := formatEntry(domain.Entry{Pos: 12, Data: map[string]any{
		"level":   "error",
		"message": "db down",
		"host":    "a1",
	}})

	assert.Contains(t, line, "12")
	assert.Contains(t, line, "ERROR")
	assert.Contains(t, line, "db down")
	assert.Contains(t, line, "host=")
	assert.Contains(t, line, "a1")
}

func TestTruncateError(t *testing.T) {
	assert.Empty(t, truncateError(nil, 10))
	assert.Equal(t, "short", truncateError(errors.New("short"), 10))
	assert.Equal(t, "abcdefg...", truncateError(errors.New("abcdefghijklmnop"), 10))
}

func positions(es []domain.Entry) []int {
	out := make([]int, 0, len(es))
	for _, e := range es {
		out = append(out, e.Pos)
	}
	return out
}
