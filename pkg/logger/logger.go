package logger

import (
	"fmt"
	"log"
	"log/slog"
)

// New returns a stdlib logger for component that forwards to base at the
// error level. net/http reports its internal failures through it.
func New(component string, base *slog.Logger) *log.Logger {
	if base == nil {
		base = slog.Default()
	}
	l := slog.NewLogLogger(base.With("component", component).Handler(), slog.LevelError)
	l.SetPrefix(fmt.Sprintf("[%s] ", component))
	return l
}
