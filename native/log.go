package native

import (
	"log/slog"
	"sync/atomic"
)

var (
	discardLogger = slog.New(slog.DiscardHandler)
	currentLogger atomic.Pointer[slog.Logger]
)

// SetLogger sets the logger used for lifetime diagnostics. Passing nil
// restores the default, which discards everything.
func SetLogger(l *slog.Logger) {
	currentLogger.Store(l)
}

func logger() *slog.Logger {
	if l := currentLogger.Load(); l != nil {
		return l
	}
	return discardLogger
}
