package log

import "sync/atomic"

var defaultLogger atomic.Pointer[Logger]

// SetDefault installs the process-wide logger used by packages that are not
// handed one explicitly. Passing nil restores the built-in default.
func SetDefault(logger *Logger) {
	defaultLogger.Store(logger)
}

// L returns the process-wide logger, creating the default one on first use.
func L() *Logger {
	if l := defaultLogger.Load(); l != nil {
		return l
	}
	l := Default()
	if defaultLogger.CompareAndSwap(nil, l) {
		return l
	}
	return defaultLogger.Load()
}
