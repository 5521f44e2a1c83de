package tui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/focusagent/focusagent/internal/api"
	"github.com/focusagent/focusagent/internal/logger"
	"github.com/focusagent/focusagent/internal/models"
	"github.com/focusagent/focusagent/internal/tui/components"
)

const invalidFormText = "Enter a task and a duration in minutes."

// Init starts listening for state and animating the spinner
func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForState(m.states), m.spinner.Tick)
}

// Update is the main update function that routes messages to handlers
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case stateMsg:
		m.state = models.ClientState(msg)
		return m, waitForState(m.states)
	case stateClosedMsg:
		return m, tea.Quit
	case actionResultMsg:
		return m.handleActionResult(msg)
	}

	return m.updateInputs(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == components.KeyQuitAlt {
		return m.quit()
	}

	if m.mode != modeOverview {
		return m.handleFormKey(msg)
	}

	switch {
	case components.IsQuitKey(key):
		return m.quit()
	case key == components.KeyStart:
		m.mode = modeTask
		m.sessionErr = ""
		m.minutesInput.Blur()
		return m, tea.Batch(m.taskInput.Focus(), textinput.Blink)
	case key == components.KeyEnd && m.busy == "":
		// The view clears at once; the request catches up
		m.busy = actionEnd
		m.sessionErr = ""
		m.checkIn = nil
		return m, m.endSession()
	case key == components.KeyRefresh && m.busy == "":
		m.busy = actionRefresh
		return m, m.refresh()
	case key == components.KeyAnalyze && m.busy == "":
		m.busy = actionAnalyze
		return m, m.analyze()
	}
	return m, nil
}

func (m Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case components.KeyEscape:
		m.mode = modeOverview
		m.taskInput.Blur()
		m.minutesInput.Blur()
		return m, nil
	case components.KeyTab:
		return m.switchField()
	case components.KeyEnter:
		if m.mode == modeTask {
			return m.switchField()
		}
		return m.submit()
	}
	return m.updateInputs(msg)
}

func (m Model) switchField() (tea.Model, tea.Cmd) {
	if m.mode == modeTask {
		m.mode = modeMinutes
		m.taskInput.Blur()
		return m, m.minutesInput.Focus()
	}
	m.mode = modeTask
	m.minutesInput.Blur()
	return m, m.taskInput.Focus()
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	task := strings.TrimSpace(m.taskInput.Value())
	minutes, err := strconv.Atoi(strings.TrimSpace(m.minutesInput.Value()))
	if task == "" || err != nil || minutes <= 0 {
		m.sessionErr = invalidFormText
		return m, nil
	}
	if m.busy != "" {
		return m, nil
	}

	m.mode = modeOverview
	m.taskInput.Blur()
	m.minutesInput.Blur()
	m.busy = actionStart
	m.sessionErr = ""
	m.checkIn = nil
	return m, m.startSession(task, minutes)
}

func (m Model) handleActionResult(msg actionResultMsg) (tea.Model, tea.Cmd) {
	m.busy = ""
	if msg.err != nil {
		logger.Component("tui").Warn().Err(msg.err).Str("action", msg.action).Msg("request failed")
		m.sessionErr = api.FormatError(msg.err)
		return m, nil
	}
	m.sessionErr = ""
	if msg.action == actionStart {
		m.taskInput.Reset()
	}
	if msg.analysis != nil {
		m.checkIn = msg.analysis
	}
	return m, nil
}

func (m Model) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.mode {
	case modeTask:
		m.taskInput, cmd = m.taskInput.Update(msg)
	case modeMinutes:
		m.minutesInput, cmd = m.minutesInput.Update(msg)
	}
	return m, cmd
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
	return m, tea.Quit
}
