// Package tui is the interactive terminal interface: an overview of the user's checklists and
// an editor for one checklist with mouse and keyboard drag-to-reorder.
package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jaekwang-park/listo/internal/app"
)

// Run starts the interface and blocks until the user quits or ctx is cancelled.
func Run(ctx context.Context, a *app.App) error {
	m := New(ctx, a)
	p := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	_, err := p.Run()
	m.closeEditor()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
