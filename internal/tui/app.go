package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the viewer on an open connection and blocks until the user
// quits or ctx is canceled. The connection is left open for the caller
// to close.
func Run(ctx context.Context, conn Viewer, opts Options) error {
	model := NewModel(conn, opts)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
