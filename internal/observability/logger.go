package observability

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// EnvLogLevel overrides the configured level when set.
const EnvLogLevel = "SEED_ESTIMATOR_LOG_LEVEL"

// LogOptions selects level, format and an optional rotated log file.
type LogOptions struct {
	Level  string
	Format string // "console" or "json"
	File   string

	// Out replaces stderr. Used by tests.
	Out io.Writer
}

// InitLogger builds the process logger, installs it as the zerolog global
// and returns it with a closer for the log file (a no-op without one).
func InitLogger(app string, opts LogOptions) (zerolog.Logger, io.Closer) {
	out := opts.Out
	if out == nil {
		out = os.Stderr
	}

	var console io.Writer = out
	if opts.Format != "json" {
		console = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}
	}

	writer := console
	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		rotated := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    50, // megabytes
			MaxBackups: 5,
			MaxAge:     28, // days
		}
		writer = zerolog.MultiLevelWriter(console, rotated)
		closer = rotated
	}

	level := zerolog.InfoLevel
	if lvl, ok := parseLevel(opts.Level); ok {
		level = lvl
	}
	if lvl, ok := parseLevel(os.Getenv(EnvLogLevel)); ok {
		level = lvl
	}

	logger := zerolog.New(writer).Level(level).With().Timestamp().Str("app", app).Logger()
	log.Logger = logger
	return logger, closer
}

func parseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return zerolog.InfoLevel, false
	case "trace":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "off", "disabled":
		return zerolog.Disabled, true
	default:
		return zerolog.InfoLevel, false
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
