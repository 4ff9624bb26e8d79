package sigkv

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

func parseLevel(s string) (zerolog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return zerolog.DebugLevel, nil
	case "", "info":
		return zerolog.InfoLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	}
	return zerolog.NoLevel, fmt.Errorf("log_level must be one of debug, info, warn, error; got '%v'", s)
}

// NewLogger writes to stderr; see NewLoggerTo.
func NewLogger(app, level, format string) (zerolog.Logger, error) {
	return NewLoggerTo(os.Stderr, app, level, format)
}

// NewLoggerTo builds the process logger. format "json" is
// one object per line, anything else is the console writer.
func NewLoggerTo(w io.Writer, app, level, format string) (zerolog.Logger, error) {
	lvl, err := parseLevel(level)
	if err != nil {
		return zerolog.Nop(), err
	}
	out := w
	if format != "json" {
		out = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
		}
	}
	logger := zerolog.New(out).Level(lvl).With().Timestamp().Str("app", app).Logger()
	return logger, nil
}
