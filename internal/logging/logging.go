// Package logging builds the process-wide slog logger on top of a
// charmbracelet/log handler.
package logging

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/charmbracelet/log"
)

// New returns a slog.Logger writing to w at the given level. Format is one of
// text, json or logfmt.
func New(w io.Writer, level, format string) (*slog.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	var formatter log.Formatter
	switch format {
	case "", "text":
		formatter = log.TextFormatter
	case "json":
		formatter = log.JSONFormatter
	case "logfmt":
		formatter = log.LogfmtFormatter
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}

	handler := log.NewWithOptions(w, log.Options{
		Prefix:          "roadrage",
		Level:           lvl,
		Formatter:       formatter,
		ReportTimestamp: true,
	})
	return slog.New(handler), nil
}
