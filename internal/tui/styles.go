package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/agbru/picalc/internal/ui"
)

// Style variables for the TUI dashboard.
// Initialized from the ui theme system via initTUIStyles().
var (
	panelStyle         lipgloss.Style
	headerStyle        lipgloss.Style
	titleStyle         lipgloss.Style
	versionStyle       lipgloss.Style
	elapsedStyle       lipgloss.Style
	labelStyle         lipgloss.Style
	valueStyle         lipgloss.Style
	piStyle            lipgloss.Style
	errorTextStyle     lipgloss.Style
	statusRunningStyle lipgloss.Style
	statusPausedStyle  lipgloss.Style
	statusDoneStyle    lipgloss.Style
	statusErrorStyle   lipgloss.Style
)

// barColor is the solid fill of the progress bar.
var barColor = "#5FAFFF"

func init() {
	initTUIStyles()
}

// initTUIStyles rebuilds all TUI styles from the current ui theme.
// Called at package init and again from Run() after InitTheme has been invoked.
func initTUIStyles() {
	t := ui.GetCurrentTUITheme()

	panelStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Border).
		Foreground(t.Text).
		Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(t.Accent).
		Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(t.Accent)

	versionStyle = lipgloss.NewStyle().
		Foreground(t.Dim)

	elapsedStyle = lipgloss.NewStyle().
		Foreground(t.Accent)

	labelStyle = lipgloss.NewStyle().
		Foreground(t.Dim)

	valueStyle = lipgloss.NewStyle().
		Foreground(t.Accent).
		Bold(true)

	piStyle = lipgloss.NewStyle().
		Foreground(t.Success).
		Bold(true)

	errorTextStyle = lipgloss.NewStyle().
		Foreground(t.Error)

	statusRunningStyle = lipgloss.NewStyle().
		Foreground(t.Success).
		Bold(true)

	statusPausedStyle = lipgloss.NewStyle().
		Foreground(t.Warning).
		Bold(true)

	statusDoneStyle = lipgloss.NewStyle().
		Foreground(t.Accent).
		Bold(true)

	statusErrorStyle = lipgloss.NewStyle().
		Foreground(t.Error).
		Bold(true)

	if c, ok := t.Border.(lipgloss.Color); ok {
		barColor = string(c)
	} else {
		barColor = ""
	}
}
