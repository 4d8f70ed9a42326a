// ABOUTME: Structured logging built on charmbracelet/log
// ABOUTME: Level comes from config or TIMELINE_LOG_LEVEL; output defaults to stderr
package logging

import (
	"io"
	"os"
	"strings"
	"sync"

	charmlog "github.com/charmbracelet/log"
)

var (
	defaultLogger *charmlog.Logger
	defaultOnce   sync.Once
)

// Config controls logger construction.
type Config struct {
	Level  string
	Output io.Writer
	JSON   bool
}

// ParseLevel maps a level name to a charm level, defaulting to info.
func ParseLevel(level string) charmlog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return charmlog.DebugLevel
	case "warn", "warning":
		return charmlog.WarnLevel
	case "error":
		return charmlog.ErrorLevel
	default:
		return charmlog.InfoLevel
	}
}

// New builds a logger from cfg.
func New(cfg Config) *charmlog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	logger := charmlog.NewWithOptions(out, charmlog.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
		Level:           ParseLevel(cfg.Level),
		Prefix:          "timeline",
	})
	if cfg.JSON {
		logger.SetFormatter(charmlog.JSONFormatter)
	}
	return logger
}

// Default returns the process-wide logger.
func Default() *charmlog.Logger {
	defaultOnce.Do(func() {
		if defaultLogger == nil {
			defaultLogger = New(Config{Level: os.Getenv("TIMELINE_LOG_LEVEL")})
		}
	})
	return defaultLogger
}

// SetDefault replaces the process-wide logger.
func SetDefault(logger *charmlog.Logger) {
	defaultOnce.Do(func() {})
	defaultLogger = logger
}

// Discard returns a logger that drops everything, for tests.
func Discard() *charmlog.Logger {
	return charmlog.New(io.Discard)
}
