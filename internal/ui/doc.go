// Package ui provides the color themes shared by the CLI and the TUI. CLI
// output uses ANSI escape codes from the active Theme; the TUI uses the
// matching lipgloss palette.
package ui
