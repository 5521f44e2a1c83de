package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/focusagent/focusagent/internal/logger"
)

// App runs the interactive session screen
type App struct {
	ctrl    Controller
	timeout time.Duration
}

// NewApp creates the TUI for ctrl. timeout bounds each REST action.
func NewApp(ctrl Controller, timeout time.Duration) *App {
	return &App{ctrl: ctrl, timeout: timeout}
}

// Run blocks until the user quits or ctx is cancelled
func (a *App) Run(ctx context.Context) error {
	start := time.Now()
	model := NewModel(a.ctrl, a.timeout)

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	logger.Debugf("TUI starting - elapsed: %v", time.Since(start))

	_, err := p.Run()
	if ctx.Err() != nil {
		// Cancelled from outside; not an error for the caller
		return nil
	}
	return err
}
