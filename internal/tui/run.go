package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rewired-gh/tickerdesk/internal/logger"
	"github.com/rewired-gh/tickerdesk/internal/scheduler"
)

// Run starts the dashboard on the alternate screen and blocks until the user
// quits or ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	m := New(ctx, opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	sched := scheduler.New(ctx, scheduler.Hooks{
		OnFailure: func(name string, err error, consecutive int) {
			logger.Warn("Refresh %s failed (%d in a row): %v", name, consecutive, err)
		},
		OnRecovery: func(name string, failures int) {
			logger.Info("Refresh %s recovered after %d failures", name, failures)
		},
	})
	defer sched.Stop()
	m.StartPolling(sched, p.Send)

	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("dashboard: %w", err)
	}
	return nil
}
