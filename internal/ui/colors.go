package ui

// ColorPrimary returns the primary color code of the active theme.
func ColorPrimary() string { return GetCurrentTheme().Primary }

// ColorSecondary returns the secondary color code of the active theme.
func ColorSecondary() string { return GetCurrentTheme().Secondary }

// ColorSuccess returns the success color code of the active theme.
func ColorSuccess() string { return GetCurrentTheme().Success }

// ColorWarning returns the warning color code of the active theme.
func ColorWarning() string { return GetCurrentTheme().Warning }

// ColorError returns the error color code of the active theme.
func ColorError() string { return GetCurrentTheme().Error }

// ColorBold returns the bold code of the active theme.
func ColorBold() string { return GetCurrentTheme().Bold }

// ColorReset returns the reset code of the active theme.
func ColorReset() string { return GetCurrentTheme().Reset }

// CLIColorProvider exposes the active theme to the error handler.
type CLIColorProvider struct{}

func (CLIColorProvider) Red() string    { return ColorError() }
func (CLIColorProvider) Yellow() string { return ColorWarning() }
func (CLIColorProvider) Reset() string  { return ColorReset() }
