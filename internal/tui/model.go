package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"

	"github.com/focusagent/focusagent/internal/models"
	"github.com/focusagent/focusagent/internal/tui/components"
)

// Controller is the part of the focus coordinator the TUI drives
type Controller interface {
	State() models.ClientState
	Subscribe() (<-chan models.ClientState, func())
	StartSession(ctx context.Context, task string, minutes int) (*models.SessionSnapshot, error)
	EndSession(ctx context.Context) error
	Refresh(ctx context.Context) error
	Analyze(ctx context.Context, task string) (*models.AnalyzeResult, error)
}

type inputMode int

const (
	modeOverview inputMode = iota
	modeTask
	modeMinutes
)

const defaultMinutes = "25"

// Model is the bubbletea model for the session screen
type Model struct {
	ctrl        Controller
	states      <-chan models.ClientState
	unsubscribe func()
	timeout     time.Duration
	location    *time.Location

	state models.ClientState

	// Session planner form
	mode         inputMode
	taskInput    textinput.Model
	minutesInput textinput.Model

	spinner    spinner.Model
	busy       string
	sessionErr string
	checkIn    *models.AnalyzeResult

	width  int
	height int
}

// NewModel subscribes to ctrl and builds the initial screen
func NewModel(ctrl Controller, timeout time.Duration) Model {
	states, unsubscribe := ctrl.Subscribe()

	task := textinput.New()
	task.Placeholder = "Rewrite onboarding flow..."
	task.CharLimit = 200
	task.Width = 50
	task.Prompt = "Task: "
	task.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(components.ColorPrimary)).Bold(true)

	minutes := textinput.New()
	minutes.CharLimit = 3
	minutes.Width = 5
	minutes.Prompt = "Duration (minutes): "
	minutes.PromptStyle = task.PromptStyle
	minutes.SetValue(defaultMinutes)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(components.ColorPrimary))

	return Model{
		ctrl:         ctrl,
		states:       states,
		unsubscribe:  unsubscribe,
		timeout:      timeout,
		location:     time.Local,
		state:        ctrl.State(),
		taskInput:    task,
		minutesInput: minutes,
		spinner:      s,
	}
}
