// Package logging builds the zerolog loggers shared by the server and client.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// New returns a logger writing to w at the named level. Unknown levels fall
// back to info; the console format is meant for local development.
func New(w io.Writer, level, format string) zerolog.Logger {
	zerolog.TimestampFieldName = "timestamp"

	if strings.EqualFold(format, FormatConsole) {
		consoleWriter := zerolog.NewConsoleWriter()
		consoleWriter.TimeFormat = time.DateTime
		consoleWriter.Out = w
		w = consoleWriter
	}

	return zerolog.New(w).
		Level(ParseLevel(level)).
		With().
		Timestamp().
		Int("pid", os.Getpid()).
		Logger()
}

func ParseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// Discard is a logger for tests and callers that do not care about output.
func Discard() zerolog.Logger {
	return zerolog.Nop()
}
