package main

import (
	"context"

	"github.com/focusagent/focusagent/internal/config"
	"github.com/focusagent/focusagent/internal/models"
)

// controller is the slice of the coordinator the desktop shell uses
type controller interface {
	State() models.ClientState
	StartSession(ctx context.Context, task string, minutes int) (*models.SessionSnapshot, error)
	EndSession(ctx context.Context) error
	Refresh(ctx context.Context) error
	Analyze(ctx context.Context, task string) (*models.AnalyzeResult, error)
}

// FocusDesktopService exposes the focus session to the banner window
type FocusDesktopService struct {
	ctrl controller
	cfg  *config.Config
}

// GetState returns the latest published client state
func (f *FocusDesktopService) GetState() models.ClientState {
	return f.ctrl.State()
}

// StartSession starts a timed session on the backend
func (f *FocusDesktopService) StartSession(ctx context.Context, task string, minutes int) (*models.SessionSnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, f.cfg.RequestTimeout)
	defer cancel()
	return f.ctrl.StartSession(ctx, task, minutes)
}

// EndSession ends the active session
func (f *FocusDesktopService) EndSession(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, f.cfg.RequestTimeout)
	defer cancel()
	return f.ctrl.EndSession(ctx)
}

// Refresh re-reads the session from the backend
func (f *FocusDesktopService) Refresh(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, f.cfg.RequestTimeout)
	defer cancel()
	return f.ctrl.Refresh(ctx)
}

// Analyze requests an immediate check-in
func (f *FocusDesktopService) Analyze(ctx context.Context, task string) (*models.AnalyzeResult, error) {
	ctx, cancel := context.WithTimeout(ctx, f.cfg.RequestTimeout)
	defer cancel()
	return f.ctrl.Analyze(ctx, task)
}

// GetAppInfo gets basic app information
func (f *FocusDesktopService) GetAppInfo() map[string]interface{} {
	return map[string]interface{}{
		"name":        "FocusAgent",
		"description": "Focus banner overlay",
		"wsUrl":       f.cfg.WSURL,
		"apiUrl":      f.cfg.APIURL,
	}
}
