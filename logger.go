package gpures

import (
	"log/slog"
	"sync/atomic"
)

// silent drops every record. Its handler reports every level disabled, so
// log calls cost no formatting.
var silent = slog.New(slog.DiscardHandler)

var current atomic.Pointer[slog.Logger]

func init() { current.Store(silent) }

// SetLogger routes the log output of gpures and its sub-packages to l.
// Nothing is logged until it is called; nil silences logging again. It is
// safe to call while other goroutines log.
//
// Debug records trace atlas growth, buffer rebinding and texture
// recreation. Warn records flag caller mistakes that were tolerated, such
// as releasing a handle twice.
//
//	gpures.SetLogger(slog.New(slog.NewTextHandler(os.Stderr,
//		&slog.HandlerOptions{Level: slog.LevelDebug})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = silent
	}
	current.Store(l)
}

// Logger returns the logger set by SetLogger.
func Logger() *slog.Logger { return current.Load() }
