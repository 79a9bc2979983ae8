// Package logging builds the zerolog logger shared by the cantus command.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// New returns a logger writing to stderr at the named level. Pretty output
// goes through a zerolog.ConsoleWriter, otherwise lines are JSON.
func New(level string, pretty bool) (zerolog.Logger, error) {
	return NewTo(os.Stderr, level, pretty)
}

// NewTo is New with an explicit destination.
func NewTo(w io.Writer, level string, pretty bool) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), eris.Wrapf(err, "log level %q", level)
	}
	// The global level caps every logger; trace is below its default.
	if lvl < zerolog.GlobalLevel() {
		zerolog.SetGlobalLevel(lvl)
	}
	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}

// Component returns a sub-logger tagged with the component name.
func Component(logger zerolog.Logger, name string) zerolog.Logger {
	return logger.With().Str("component", name).Logger()
}
