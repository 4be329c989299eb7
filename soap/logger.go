package soap

import (
	"github.com/rs/zerolog"
)

// Level is the severity of a log event.
type Level string

const (
	LevelError Level = "error"
	LevelInfo  Level = "info"
	LevelTrace Level = "trace"
)

// Logger receives every loggable event of a client.
type Logger interface {
	Log(level Level, msg string)
}

// LoggerFunc adapts a plain callback to Logger.
type LoggerFunc func(msg string, level Level)

func (f LoggerFunc) Log(level Level, msg string) {
	f(msg, level)
}

// NopLogger discards everything. It is used when no logger is configured.
type NopLogger struct{}

func (NopLogger) Log(Level, string) {}

type zerologLogger struct {
	logger zerolog.Logger
}

// NewZerologLogger returns a Logger writing to l. Trace events are logged at
// debug level.
func NewZerologLogger(l zerolog.Logger) Logger {
	return &zerologLogger{logger: l}
}

func (z *zerologLogger) Log(level Level, msg string) {
	var ev *zerolog.Event
	switch level {
	case LevelError:
		ev = z.logger.Error()
	case LevelInfo:
		ev = z.logger.Info()
	default:
		ev = z.logger.Debug()
	}
	ev.Str("component", "soap").Msg(msg)
}
