// Package logging builds the process-wide slog.Logger: colorized output for
// terminals, JSON everywhere else.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"golang.org/x/term"
)

// Output formats accepted by Options.Format.
const (
	FormatAuto   = "auto"
	FormatPretty = "pretty"
	FormatJSON   = "json"
)

// Options configures New.
type Options struct {
	// Level is one of debug, info, warn or error. Empty means info.
	Level string
	// Format is auto, pretty or json. Auto picks pretty when Output is a terminal.
	Format string
	// Output defaults to os.Stderr.
	Output io.Writer
}

// New returns a logger for opts. Unknown levels and formats are rejected.
func New(opts Options) (*slog.Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	format := strings.ToLower(strings.TrimSpace(opts.Format))
	switch format {
	case "", FormatAuto:
		if isTerminal(out) {
			format = FormatPretty
		} else {
			format = FormatJSON
		}
	case FormatPretty, FormatJSON:
	default:
		return nil, fmt.Errorf("unknown log format %q", opts.Format)
	}

	var handler slog.Handler
	if format == FormatPretty {
		handler = tint.NewHandler(out, &tint.Options{
			Level:      level,
			TimeFormat: time.TimeOnly,
			NoColor:    !isTerminal(out),
		})
	} else {
		handler = slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level})
	}
	return slog.New(handler), nil
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
