package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	apperrors "github.com/agbru/picalc/internal/errors"
	"github.com/agbru/picalc/internal/leibniz"
	"github.com/agbru/picalc/internal/metrics"
	"github.com/agbru/picalc/internal/orchestration"
	"github.com/agbru/picalc/internal/ui"
)

func sampleResult() orchestration.RunResult {
	return orchestration.RunResult{
		Pi:          3.1415926525880504,
		Duration:    1500 * time.Millisecond,
		Jobs:        leibniz.Split(10, 3),
		Workers:     3,
		TotalLength: 10,
	}
}

func TestDisplayResult(t *testing.T) {
	ui.SetCurrentTheme(ui.NoColorTheme)
	t.Cleanup(func() { ui.InitTheme(false) })

	tests := []struct {
		name        string
		opts        orchestration.PresentationOptions
		contains    []string
		notContains []string
	}{
		{
			name:        "Default",
			contains:    []string{"Pi: 3.1415926525880504, in 1.5s"},
			notContains: []string{"--- Result ---", "Detailed result analysis"},
		},
		{
			name:     "Verbose",
			opts:     orchestration.PresentationOptions{Verbose: true},
			contains: []string{"--- Result ---", "Pi: "},
		},
		{
			name: "Details",
			opts: orchestration.PresentationOptions{Details: true},
			contains: []string{
				"Detailed result analysis", "Absolute error:", "Correct digits:",
				"Jobs:            3 over 3 workers", "[0, 4) (4 terms)", "[7, 10) (3 terms)",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			DisplayResult(sampleResult(), tt.opts, &buf)
			output := buf.String()
			for _, s := range tt.contains {
				if !strings.Contains(output, s) {
					t.Errorf("Expected output to contain %q, but got:\n%s", s, output)
				}
			}
			for _, s := range tt.notContains {
				if strings.Contains(output, s) {
					t.Errorf("Expected output not to contain %q, but got:\n%s", s, output)
				}
			}
		})
	}
}

func TestCLIResultPresenter_HandleError(t *testing.T) {
	ui.SetCurrentTheme(ui.NoColorTheme)
	t.Cleanup(func() { ui.InitTheme(false) })

	tests := []struct {
		name     string
		err      error
		wantCode int
		wantText string
	}{
		{"timeout", apperrors.TimeoutError{Operation: "leibniz run", Limit: time.Second}, apperrors.ExitErrorTimeout, "Status: Timeout"},
		{"canceled", context.Canceled, apperrors.ExitErrorCanceled, "Status: Canceled"},
		{"config", apperrors.NewConfigError("workers must be positive, got 0"), apperrors.ExitErrorConfig, "Configuration error:"},
		{"failure", errors.New("worker 1: panic"), apperrors.ExitErrorGeneric, "Status: Failure"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			code := CLIResultPresenter{}.HandleError(tt.err, time.Second, &buf)
			if code != tt.wantCode {
				t.Errorf("code = %d, want %d", code, tt.wantCode)
			}
			if !strings.Contains(buf.String(), tt.wantText) {
				t.Errorf("output %q should contain %q", buf.String(), tt.wantText)
			}
		})
	}
}

func TestPresentRunThroughCLIPresenter(t *testing.T) {
	ui.SetCurrentTheme(ui.NoColorTheme)
	t.Cleanup(func() { ui.InitTheme(false) })

	var buf bytes.Buffer
	p := CLIResultPresenter{}
	code := orchestration.PresentRun(sampleResult(), orchestration.PresentationOptions{}, p, p, &buf)
	if code != apperrors.ExitSuccess {
		t.Errorf("code = %d, want success", code)
	}
	if !strings.HasPrefix(buf.String(), "Pi: ") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestDisplayMemoryStats(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	DisplayMemoryStats(metrics.MemoryDelta{Allocated: 2048, GCCycles: 3, PauseNs: 1_500_000, Goroutines: 9}, &buf)
	out := buf.String()
	for _, want := range []string{"Memory Stats:", "Allocated:       2.0 KiB", "GC cycles:       3", "GC pause total:  1.50ms", "Goroutines:      9"} {
		if !strings.Contains(out, want) {
			t.Errorf("output should contain %q, got:\n%s", want, out)
		}
	}
}
