package components

// Key Command Groups:
// 1. Global - always available
// 2. Overview - only when no input is focused
// 3. Form - while entering a task or duration

// Global keys
const (
	KeyQuitAlt = "ctrl+c"
)

// Overview keys
const (
	KeyQuit    = "q"
	KeyStart   = "s"
	KeyEnd     = "e"
	KeyRefresh = "r"
	KeyAnalyze = "a"
)

// Form keys
const (
	KeyEscape = "esc"
	KeyEnter  = "enter"
	KeyTab    = "tab"
)

// IsQuitKey reports whether key leaves the app from the overview
func IsQuitKey(key string) bool {
	return key == KeyQuit || key == KeyQuitAlt
}
