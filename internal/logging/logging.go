// Package logging builds the zerolog loggers used across testsync.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New returns a console logger writing to w (stderr when nil).
// Verbose enables debug level.
func New(w io.Writer, verbose bool) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}

	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339Nano,
	}).Level(level).With().Timestamp().Logger()
}

// Nop returns a logger that discards everything. Used as the zero value in tests.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}
