// Package logging builds the process logger. Per-request logs are written
// by the HTTP layer; this logger covers startup, shutdown and the CLI.
package logging

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
)

const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// New returns a timestamped logger writing to `w` at `level` in `format`
// (`FormatJSON` or `FormatConsole`).
func New(w io.Writer, level, format string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("parsing log level: %w", err)
	}

	switch format {
	case FormatJSON:
	case FormatConsole:
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	default:
		return zerolog.Nop(), fmt.Errorf(
			"log format: wanted `%s` or `%s`; found `%s`",
			FormatJSON,
			FormatConsole,
			format,
		)
	}

	return zerolog.New(w).With().Timestamp().Logger().Level(lvl), nil
}
