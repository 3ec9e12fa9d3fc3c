package apperrors

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// ColorProvider supplies the ANSI sequences used when printing errors.
// A nil ColorProvider prints without colors.
type ColorProvider interface {
	Red() string
	Yellow() string
	Reset() string
}

// ExitCodeFor maps an error to the process exit code.
func ExitCodeFor(err error) int {
	var cfgErr ConfigError
	var valErr ValidationError
	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &cfgErr), errors.As(err, &valErr):
		return ExitErrorConfig
	case errors.Is(err, context.DeadlineExceeded):
		return ExitErrorTimeout
	case errors.Is(err, context.Canceled):
		return ExitErrorCanceled
	default:
		return ExitErrorGeneric
	}
}

// HandleCalculationError prints a run failure to out and returns the exit
// code matching the error class.
//
// Parameters:
//   - err: The error returned by the run (nil means success).
//   - duration: How long the run lasted before failing (0 if unknown).
//   - out: The writer for the error message.
//   - colors: Optional color provider.
//
// Returns:
//   - int: The exit code for the error.
func HandleCalculationError(err error, duration time.Duration, out io.Writer, colors ColorProvider) int {
	if err == nil {
		return ExitSuccess
	}

	red, yellow, reset := "", "", ""
	if colors != nil {
		red, yellow, reset = colors.Red(), colors.Yellow(), colors.Reset()
	}
	suffix := ""
	if duration > 0 {
		suffix = fmt.Sprintf(" after %s", duration)
	}

	code := ExitCodeFor(err)
	switch code {
	case ExitErrorTimeout:
		fmt.Fprintf(out, "%sStatus: Timeout%s. The run exceeded its deadline%s: %v\n", yellow, reset, suffix, err)
	case ExitErrorCanceled:
		fmt.Fprintf(out, "%sStatus: Canceled%s. The run was interrupted%s.\n", yellow, reset, suffix)
	case ExitErrorConfig:
		fmt.Fprintf(out, "%sConfiguration error:%s %v\n", red, reset, err)
	default:
		fmt.Fprintf(out, "%sStatus: Failure%s%s: %v\n", red, reset, suffix, err)
	}
	return code
}
