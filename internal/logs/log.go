// Package logs wraps charmbracelet/log for lbkit components. A Logger is
// created once by the CLI and passed down explicitly.
package logs

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// Output selects where log lines are written.
type Output string

const (
	OutputStdout Output = "stdout"
	OutputStderr Output = "stderr"
)

// Logger wraps the charm logger.
type Logger struct {
	*log.Logger
}

// Config holds logger settings.
type Config struct {
	// Level is one of debug, info, warn, error.
	Level  string
	Prefix string
	Output Output
	// Writer overrides Output when set.
	Writer io.Writer
}

func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Prefix: "lbkit",
		Output: OutputStderr,
	}
}

func parseLevel(level string) log.Level {
	parsed, err := log.ParseLevel(level)
	if err != nil {
		return log.InfoLevel
	}
	return parsed
}

func New(cfg Config) *Logger {
	writer := cfg.Writer
	if writer == nil {
		switch cfg.Output {
		case OutputStdout:
			writer = os.Stdout
		default:
			writer = os.Stderr
		}
	}

	return &Logger{
		Logger: log.NewWithOptions(writer, log.Options{
			Level:           parseLevel(cfg.Level),
			Prefix:          cfg.Prefix,
			ReportTimestamp: true,
			TimeFormat:      "2006-01-02T15:04:05",
		}),
	}
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return New(Config{Level: "error", Writer: io.Discard})
}

// With returns a child logger carrying keyvals on every line.
func (l *Logger) With(keyvals ...interface{}) *Logger {
	return &Logger{Logger: l.Logger.With(keyvals...)}
}
