package logger

import (
	"sync"
)

var (
	globalLogger   Logger
	globalLoggerMu sync.Mutex
)

// SetGlobal sets the process-wide logger.
// This should be called once during startup after loading configuration.
func SetGlobal(l Logger) {
	globalLoggerMu.Lock()
	defer globalLoggerMu.Unlock()
	globalLogger = l
}

// Global returns the process-wide logger.
// If none has been set, a console logger at warn level is installed and returned,
// which keeps library use quiet by default.
func Global() Logger {
	globalLoggerMu.Lock()
	defer globalLoggerMu.Unlock()

	if globalLogger == nil {
		globalLogger = NewConsoleLogger("", LogLevelWarn)
	}
	return globalLogger
}
