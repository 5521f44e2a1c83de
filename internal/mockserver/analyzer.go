package mockserver

import (
	"context"
	"sync"

	"github.com/focusagent/focusagent/internal/models"
)

// Analyzer classifies the user's screen against a task. The real backend
// captures the screen and asks a vision model; the mock plays a script.
type Analyzer interface {
	Analyze(ctx context.Context, task string) (models.AnalyzeResult, error)
}

// CaptureError means the screen could not be captured. It is reported to
// clients instead of dropping the check-in.
type CaptureError struct {
	Reason string
}

func (e *CaptureError) Error() string {
	return e.Reason
}

// ScriptedAnalyzer returns its results in order, wrapping around
type ScriptedAnalyzer struct {
	mu      sync.Mutex
	results []models.AnalyzeResult
	next    int
}

// NewScriptedAnalyzer plays results in a loop
func NewScriptedAnalyzer(results ...models.AnalyzeResult) *ScriptedAnalyzer {
	return &ScriptedAnalyzer{results: results}
}

// DefaultAnalyzer alternates between focused and distracted check-ins
func DefaultAnalyzer() *ScriptedAnalyzer {
	return NewScriptedAnalyzer(
		models.AnalyzeResult{Summary: "Editor open with the task's document in focus.", State: models.FocusOnTask},
		models.AnalyzeResult{Summary: "Still working in the editor.", State: models.FocusOnTask},
		models.AnalyzeResult{Summary: "Browsing a video site unrelated to the task.", State: models.FocusOffTask},
	)
}

func (a *ScriptedAnalyzer) Analyze(ctx context.Context, task string) (models.AnalyzeResult, error) {
	if err := ctx.Err(); err != nil {
		return models.AnalyzeResult{}, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.results) == 0 {
		return models.AnalyzeResult{}, &CaptureError{Reason: "No screen capture available."}
	}
	r := a.results[a.next%len(a.results)]
	a.next++
	return r, nil
}

// AnalyzerFunc adapts a function to Analyzer
type AnalyzerFunc func(ctx context.Context, task string) (models.AnalyzeResult, error)

func (f AnalyzerFunc) Analyze(ctx context.Context, task string) (models.AnalyzeResult, error) {
	return f(ctx, task)
}
