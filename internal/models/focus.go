package models

import (
	"fmt"
	"time"
)

// FocusState is the backend's classification of the user's attention
type FocusState string

// Supported focus states
const (
	FocusOnTask  FocusState = "on_task"
	FocusOffTask FocusState = "off_task"
)

// Valid reports whether s is one of the known focus states
func (s FocusState) Valid() bool {
	return s == FocusOnTask || s == FocusOffTask
}

// Label returns the human-readable form of the state
func (s FocusState) Label() string {
	if s == FocusOffTask {
		return "Off task"
	}
	return "On task"
}

// SessionSnapshot is the complete session state returned by the REST API.
// It is treated as immutable once decoded.
type SessionSnapshot struct {
	TaskDescription  string      `json:"task_description"`
	EndsAt           *time.Time  `json:"ends_at,omitempty"`
	SecondsRemaining int         `json:"seconds_remaining"`
	LastSummary      *string     `json:"last_summary,omitempty"`
	LastState        *FocusState `json:"last_state,omitempty"`
	SessionActive    bool        `json:"session_active"`
}

// PushMessage is a partial update delivered over the live connection.
// A nil field carries no information.
type PushMessage struct {
	State         *FocusState `json:"state,omitempty"`
	Summary       *string     `json:"summary,omitempty"`
	Task          *string     `json:"task,omitempty"`
	Timestamp     *string     `json:"timestamp,omitempty"`
	SessionActive *bool       `json:"session_active,omitempty"`
	Error         *string     `json:"error,omitempty"`
}

// Ends reports whether the message explicitly marks the session inactive
func (m PushMessage) Ends() bool {
	return m.SessionActive != nil && !*m.SessionActive
}

// StartSessionRequest is the body of POST /session
type StartSessionRequest struct {
	TaskDescription string `json:"task_description"`
	DurationMinutes int    `json:"duration_minutes"`
}

// AnalyzeRequest is the body of POST /analyze
type AnalyzeRequest struct {
	TaskDescription string `json:"task_description"`
}

// AnalyzeResult is the response of POST /analyze
type AnalyzeResult struct {
	Summary string     `json:"summary"`
	State   FocusState `json:"state"`
}

// SessionView is the reconciled state the presentation layer reads
type SessionView struct {
	FocusState       FocusState `json:"focus_state"`
	CurrentTask      *string    `json:"current_task"`
	SecondsRemaining *int       `json:"seconds_remaining"`
	TimerRunning     bool       `json:"timer_running"`
	LastSummary      *string    `json:"last_summary"`
	LastError        *string    `json:"last_error"`
	LastUpdatedAt    *time.Time `json:"last_updated_at"`
}

// NewSessionView returns the idle view a client starts with
func NewSessionView() SessionView {
	return SessionView{FocusState: FocusOnTask}
}

// Clone returns a deep copy so readers never share pointers with the owner
func (v SessionView) Clone() SessionView {
	out := v
	out.CurrentTask = clonePtr(v.CurrentTask)
	out.SecondsRemaining = clonePtr(v.SecondsRemaining)
	out.LastSummary = clonePtr(v.LastSummary)
	out.LastError = clonePtr(v.LastError)
	out.LastUpdatedAt = clonePtr(v.LastUpdatedAt)
	return out
}

// FormatRemaining renders the countdown as MM:SS, or --:-- when unknown
func (v SessionView) FormatRemaining() string {
	return FormatSeconds(v.SecondsRemaining)
}

// Completed reports whether the countdown ran all the way to zero
func (v SessionView) Completed() bool {
	return !v.TimerRunning && v.SecondsRemaining != nil && *v.SecondsRemaining == 0
}

// FormatSeconds renders seconds as MM:SS, or --:-- when nil or negative
func FormatSeconds(seconds *int) string {
	if seconds == nil || *seconds < 0 {
		return "--:--"
	}
	return fmt.Sprintf("%02d:%02d", *seconds/60, *seconds%60)
}

// String returns a pointer to s
func String(s string) *string {
	return &s
}

// Bool returns a pointer to b
func Bool(b bool) *bool {
	return &b
}

// Int returns a pointer to i
func Int(i int) *int {
	return &i
}

// State returns a pointer to s
func State(s FocusState) *FocusState {
	return &s
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
