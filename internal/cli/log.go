// Package cli implements the typescout command-line interface.
//
// The root command checks a project for missing @types packages; the
// cache and completion subcommands are housekeeping. The CLI is built with
// cobra, logs through charmbracelet/log, styles status lines with lipgloss,
// and renders interactive prompts with bubbletea.
//
// # Logging
//
// Logs go to stderr at info level; --verbose (-v) enables debug output,
// including per-lookup failures and the package manager's output. Status
// lines meant for people go to stdout.
package cli

import (
	"io"

	"github.com/charmbracelet/log"
)

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}
