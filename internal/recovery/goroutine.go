package recovery

import (
	"runtime/debug"

	"github.com/focusagent/focusagent/internal/logger"
)

// SafeGo runs a function in a goroutine with automatic panic recovery
// so a single failing reader or broadcaster cannot take the client down.
func SafeGo(name string, fn func()) {
	go func() {
		defer Recover(name)
		fn()
	}()
}

// SafeGoWithCleanup runs a function in a goroutine with panic recovery and cleanup
func SafeGoWithCleanup(name string, fn func(), cleanup func()) {
	go func() {
		defer func() {
			if cleanup != nil {
				cleanup()
			}
			if r := recover(); r != nil {
				logPanic(name, r)
			}
		}()
		fn()
	}()
}

// Recover logs a recovered panic. It only works when deferred directly:
//
//	defer recovery.Recover("reader")
func Recover(name string) {
	if r := recover(); r != nil {
		logPanic(name, r)
	}
}

func logPanic(name string, r interface{}) {
	logger.Logger.Error().
		Str("goroutine", name).
		Interface("panic", r).
		Str("stack", string(debug.Stack())).
		Msg("🚨 PANIC recovered")
}
