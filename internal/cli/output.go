// # Naming Conventions
//
// Functions in this package follow consistent naming patterns based on their behavior:
//
//   - Display* functions write formatted output to an [io.Writer].
//     They handle presentation logic and colorization.
//     Examples: [DisplayResult], [DisplayQuietResult], [DisplayProgress].
//
//   - Format* functions return a formatted string without performing I/O.
//     They are pure functions suitable for composition.
//     Examples: [FormatResult], [FormatQuietResult].
//
//   - Write* functions write data to files on the filesystem.
//     They handle file creation, directory setup, and error handling.
//     Examples: [WriteResultToFile].

package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/agbru/picalc/internal/format"
	"github.com/agbru/picalc/internal/orchestration"
	"github.com/agbru/picalc/internal/ui"
)

// OutputConfig holds configuration for result output.
type OutputConfig struct {
	// OutputFile is the path to save the result (empty for no file output).
	OutputFile string
	// Quiet mode prints the bare value only.
	Quiet bool
	// Verbose adds a result header.
	Verbose bool
	// Details adds the accuracy and job breakdown.
	Details bool
}

// FormatResult returns the report line "Pi: <value>, in <seconds>s".
func FormatResult(pi float64, elapsed time.Duration) string {
	return fmt.Sprintf("Pi: %v, in %ss", pi, format.FormatSeconds(elapsed))
}

// FormatQuietResult formats the approximation for quiet mode output.
// Returns a single value suitable for scripting.
func FormatQuietResult(pi float64) string {
	return strconv.FormatFloat(pi, 'g', -1, 64)
}

// DisplayQuietResult outputs a result in quiet mode (minimal output).
func DisplayQuietResult(out io.Writer, pi float64) {
	fmt.Fprintln(out, FormatQuietResult(pi))
}

// WriteResultToFile writes a run result to a file.
//
// Parameters:
//   - result: The outcome of the run.
//   - path: The destination file. Missing directories are created.
//
// Returns:
//   - error: An error if the file cannot be written.
func WriteResultToFile(result orchestration.RunResult, path string) (err error) {
	if path == "" {
		return nil
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close output file: %w", cerr)
		}
	}()

	// Write header
	fmt.Fprintf(file, "# Leibniz Series Result\n")
	fmt.Fprintf(file, "# Generated: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(file, "# Length: %d\n", result.TotalLength)
	fmt.Fprintf(file, "# Workers: %d\n", result.Workers)
	fmt.Fprintf(file, "# Duration: %s\n", result.Duration)
	fmt.Fprintf(file, "\n")

	_, err = fmt.Fprintln(file, FormatResult(result.Pi, result.Duration))
	return err
}

// DisplayResultWithConfig displays a result with the given output configuration.
// This is a unified function that handles all output modes.
//
// Returns:
//   - error: An error if file output fails.
func DisplayResultWithConfig(out io.Writer, result orchestration.RunResult, config OutputConfig) error {
	if config.Quiet {
		DisplayQuietResult(out, result.Pi)
	} else {
		DisplayResult(result, orchestration.PresentationOptions{Verbose: config.Verbose, Details: config.Details}, out)
	}

	if config.OutputFile != "" {
		if err := WriteResultToFile(result, config.OutputFile); err != nil {
			return err
		}
		if !config.Quiet {
			fmt.Fprintf(out, "\n%s✓ Result saved to: %s%s%s\n",
				ui.ColorSuccess(), ui.ColorPrimary(), config.OutputFile, ui.ColorReset())
		}
	}
	return nil
}
