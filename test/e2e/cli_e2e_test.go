package e2e

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// buildBinary compiles cmd/picalc into a temporary directory.
func buildBinary(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping binary build in short mode")
	}

	binName := "picalc"
	if runtime.GOOS == "windows" {
		binName = "picalc.exe"
	}
	binPath := filepath.Join(t.TempDir(), binName)

	// go test runs with the package directory as CWD.
	cmd := exec.Command("go", "build", "-o", binPath, "./cmd/picalc")
	cmd.Dir = "../.."
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		t.Fatalf("Failed to build picalc: %v", err)
	}
	return binPath
}

// TestCLI_E2E verifies the built binary functions correctly
func TestCLI_E2E(t *testing.T) {
	binPath := buildBinary(t)

	tests := []struct {
		name     string
		args     []string
		env      []string
		wantOut  string // substring match (case-insensitive)
		wantCode int
	}{
		{
			name:     "Basic Run",
			args:     []string{"-length", "100000", "-workers", "4"},
			wantOut:  "Pi: 3.1415",
			wantCode: 0,
		},
		{
			name:     "Help",
			args:     []string{"--help"},
			wantOut:  "usage",
			wantCode: 0,
		},
		{
			name:     "Quiet Mode",
			args:     []string{"-l", "100000", "-w", "2", "--quiet"},
			wantOut:  "3.1415",
			wantCode: 0,
		},
		{
			name:     "Details",
			args:     []string{"-l", "1000", "-w", "3", "-d"},
			wantOut:  "Correct digits",
			wantCode: 0,
		},
		{
			name:     "Environment Override",
			args:     []string{"-w", "2"},
			env:      []string{"PICALC_LENGTH=1000"},
			wantOut:  "Pi: 3.14",
			wantCode: 0,
		},
		{
			name:     "Very Short Timeout",
			args:     []string{"-l", "1000000000000", "-w", "2", "--timeout", "1ms"},
			wantOut:  "Timeout",
			wantCode: 2,
		},
		{
			name:     "More Workers Than Terms",
			args:     []string{"-l", "3", "-w", "8"},
			wantOut:  "Pi: 3.4666",
			wantCode: 0,
		},
		{
			name:     "Zero Length",
			args:     []string{"-l", "0"},
			wantOut:  "length",
			wantCode: 4,
		},
		{
			name:     "Version Flag",
			args:     []string{"--version"},
			wantOut:  "picalc",
			wantCode: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := exec.Command(binPath, tt.args...)
			cmd.Env = append(os.Environ(), "NO_COLOR=1")
			cmd.Env = append(cmd.Env, tt.env...)
			output, err := cmd.CombinedOutput()
			outStr := string(output)

			code := 0
			if err != nil {
				var exitErr *exec.ExitError
				if !errors.As(err, &exitErr) {
					t.Fatalf("Command did not run: %v", err)
				}
				code = exitErr.ExitCode()
			}
			if code != tt.wantCode {
				t.Errorf("exit code = %d, want %d\nOutput:\n%s", code, tt.wantCode, outStr)
			}

			if tt.wantOut != "" && !strings.Contains(strings.ToLower(outStr), strings.ToLower(tt.wantOut)) {
				t.Errorf("Output missing expected string.\nExpected: %q\nGot:\n%s", tt.wantOut, outStr)
			}
		})
	}
}
