package tui

import "github.com/focusagent/focusagent/internal/models"

// Core message types
type stateMsg models.ClientState
type stateClosedMsg struct{}

// actionResultMsg reports a finished REST action
type actionResultMsg struct {
	action   string
	err      error
	analysis *models.AnalyzeResult
}
