package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/focusagent/focusagent/internal/models"
)

// Actions shown while a request is in flight
const (
	actionStart   = "Starting..."
	actionEnd     = "Ending..."
	actionRefresh = "Refreshing..."
	actionAnalyze = "Analyzing..."
)

// waitForState blocks until the coordinator publishes again
func waitForState(states <-chan models.ClientState) tea.Cmd {
	return func() tea.Msg {
		st, ok := <-states
		if !ok {
			return stateClosedMsg{}
		}
		return stateMsg(st)
	}
}

func (m Model) startSession(task string, minutes int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()

		_, err := m.ctrl.StartSession(ctx, task, minutes)
		return actionResultMsg{action: actionStart, err: err}
	}
}

func (m Model) endSession() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()

		return actionResultMsg{action: actionEnd, err: m.ctrl.EndSession(ctx)}
	}
}

func (m Model) refresh() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()

		return actionResultMsg{action: actionRefresh, err: m.ctrl.Refresh(ctx)}
	}
}

func (m Model) analyze() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()

		result, err := m.ctrl.Analyze(ctx, "")
		return actionResultMsg{action: actionAnalyze, err: err, analysis: result}
	}
}
