package ui

import (
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines a color scheme for CLI output.
// Each field contains an ANSI escape code for the corresponding color category.
type Theme struct {
	// Name is the identifier of the theme.
	Name string
	// Primary highlights the approximation and headings.
	Primary string
	// Secondary is used for labels and less prominent values.
	Secondary string
	// Success marks completed runs.
	Success string
	// Warning marks timeouts and cancellations.
	Warning string
	// Error marks failures.
	Error string
	// Bold is the escape code for bold text.
	Bold string
	// Reset clears all formatting.
	Reset string
}

var (
	// DarkTheme is optimized for dark terminal backgrounds.
	DarkTheme = Theme{
		Name:      "dark",
		Primary:   "\033[38;5;75m",  // Sky blue
		Secondary: "\033[38;5;245m", // Grey
		Success:   "\033[38;5;114m", // Soft green
		Warning:   "\033[38;5;221m", // Amber
		Error:     "\033[38;5;203m", // Salmon red
		Bold:      "\033[1m",
		Reset:     "\033[0m",
	}

	// LightTheme is optimized for light terminal backgrounds.
	LightTheme = Theme{
		Name:      "light",
		Primary:   "\033[38;5;25m",  // Navy
		Secondary: "\033[38;5;240m", // Dark grey
		Success:   "\033[38;5;28m",  // Dark green
		Warning:   "\033[38;5;130m", // Brown orange
		Error:     "\033[38;5;124m", // Dark red
		Bold:      "\033[1m",
		Reset:     "\033[0m",
	}

	// NoColorTheme disables all color output.
	// Used when NO_COLOR is set or --no-color flag is provided.
	NoColorTheme = Theme{Name: "none"}

	currentTheme = DarkTheme
	themeMutex   sync.RWMutex
)

// TUITheme defines lipgloss-compatible colors for the TUI dashboard.
type TUITheme struct {
	Text    lipgloss.TerminalColor
	Border  lipgloss.TerminalColor
	Accent  lipgloss.TerminalColor
	Success lipgloss.TerminalColor
	Warning lipgloss.TerminalColor
	Error   lipgloss.TerminalColor
	Dim     lipgloss.TerminalColor
}

var (
	// DarkTUITheme is the default dashboard palette.
	DarkTUITheme = TUITheme{
		Text:    lipgloss.Color("#E4E4E4"),
		Border:  lipgloss.Color("#5FAFFF"),
		Accent:  lipgloss.Color("#87D7FF"),
		Success: lipgloss.Color("#87D787"),
		Warning: lipgloss.Color("#FFD75F"),
		Error:   lipgloss.Color("#FF5F5F"),
		Dim:     lipgloss.Color("#6C6C6C"),
	}

	// NoColorTUITheme renders text with the terminal's default colors.
	NoColorTUITheme = TUITheme{
		Text:    lipgloss.NoColor{},
		Border:  lipgloss.NoColor{},
		Accent:  lipgloss.NoColor{},
		Success: lipgloss.NoColor{},
		Warning: lipgloss.NoColor{},
		Error:   lipgloss.NoColor{},
		Dim:     lipgloss.NoColor{},
	}
)

// GetCurrentTUITheme returns the TUI theme matching the currently active theme.
func GetCurrentTUITheme() TUITheme {
	themeMutex.RLock()
	defer themeMutex.RUnlock()

	if currentTheme.Name == NoColorTheme.Name {
		return NoColorTUITheme
	}
	return DarkTUITheme
}

// GetCurrentTheme returns the currently active theme in a thread-safe manner.
func GetCurrentTheme() Theme {
	themeMutex.RLock()
	defer themeMutex.RUnlock()
	return currentTheme
}

// SetCurrentTheme sets the currently active theme in a thread-safe manner.
// This is primarily used for testing purposes to restore state.
func SetCurrentTheme(t Theme) {
	themeMutex.Lock()
	defer themeMutex.Unlock()
	currentTheme = t
}

// SetTheme changes the active theme by name ("dark", "light", "none").
// Unknown names select the dark theme.
func SetTheme(name string) {
	themeMutex.Lock()
	defer themeMutex.Unlock()
	currentTheme = themeByName(name)
}

func themeByName(name string) Theme {
	switch name {
	case LightTheme.Name:
		return LightTheme
	case NoColorTheme.Name:
		return NoColorTheme
	default:
		return DarkTheme
	}
}

// ThemeEnv names the environment variable selecting the theme by name.
const ThemeEnv = "PICALC_THEME"

// InitTheme initializes the theme based on the noColor flag and environment.
// It respects the NO_COLOR environment variable (https://no-color.org/):
// any value disables colors, as does noColor. Otherwise PICALC_THEME picks
// "dark" (default), "light" or "none".
func InitTheme(noColor bool) {
	themeMutex.Lock()
	defer themeMutex.Unlock()

	if _, exists := os.LookupEnv("NO_COLOR"); noColor || exists {
		currentTheme = NoColorTheme
		return
	}
	currentTheme = themeByName(os.Getenv(ThemeEnv))
}
