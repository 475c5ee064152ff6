// Package gclog is the collector's trivial diagnostic sink: a thin,
// injectable wrapper around [log/slog]. The collector surfaces errors
// through return values; this package exists only for its side-channel
// warnings (freeing an unknown address, and releasing a host block the
// registry could not record).
package gclog

import (
	"log/slog"
	"sync/atomic"
)

var logger atomic.Pointer[slog.Logger]

// SetDefault installs l as the logger used by [Default]. Passing nil
// reverts to [slog.Default].
func SetDefault(l *slog.Logger) {
	logger.Store(l)
}

// Default returns the currently installed logger, or [slog.Default] if
// none was installed via [SetDefault].
func Default() *slog.Logger {
	if l := logger.Load(); l != nil {
		return l
	}

	return slog.Default()
}
