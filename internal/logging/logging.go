// Package logging builds the process logger: colored tint output for
// terminals, text or JSON otherwise.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/lmittmann/tint"

	"github.com/joeblew999/plat-carto/internal/errdefs"
)

// Formats are the accepted output formats.
var Formats = []string{"auto", "terminal", "text", "json"}

// Options configure New.
type Options struct {
	Level  string
	Format string
	Output io.Writer
}

// ParseLevel maps debug, info, warn and error to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return 0, errdefs.Invalid("log level", s, "debug", "info", "warn", "error")
	}
	return lvl, nil
}

// New builds a logger. The "auto" format picks the terminal handler when
// the output is a character device.
func New(o Options) (*slog.Logger, error) {
	lvl, err := ParseLevel(o.Level)
	if err != nil {
		return nil, err
	}
	out := o.Output
	if out == nil {
		out = os.Stderr
	}

	format := strings.ToLower(o.Format)
	if format == "" || format == "auto" {
		format = "text"
		if isTerminal(out) {
			format = "terminal"
		}
	}

	var h slog.Handler
	switch format {
	case "terminal":
		h = tint.NewHandler(out, &tint.Options{
			AddSource: lvl <= slog.LevelDebug,
			Level:     lvl,
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				if a.Key == slog.TimeKey && len(groups) == 0 {
					return slog.Attr{}
				}
				return a
			},
		})
	case "text":
		h = slog.NewTextHandler(out, &slog.HandlerOptions{
			Level: lvl,
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				if a.Key == slog.LevelKey {
					a.Value = slog.StringValue(strings.ToLower(a.Value.Any().(slog.Level).String()))
				}
				return a
			},
		})
	case "json":
		h = slog.NewJSONHandler(out, &slog.HandlerOptions{Level: lvl})
	default:
		return nil, errdefs.Invalid("log format", o.Format, Formats...)
	}
	return slog.New(h), nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
