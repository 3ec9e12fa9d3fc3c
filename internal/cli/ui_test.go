package cli

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/briandowns/spinner"
	"github.com/golang/mock/gomock"

	"github.com/agbru/picalc/internal/cli/mocks"
	"github.com/agbru/picalc/internal/orchestration"
	"github.com/agbru/picalc/internal/progress"
	"github.com/agbru/picalc/internal/ui"
)

// withMockSpinner replaces newSpinner for the duration of the test.
// Tests using it must not run in parallel.
func withMockSpinner(t *testing.T, s Spinner) {
	t.Helper()
	orig := newSpinner
	newSpinner = func(...spinner.Option) Spinner { return s }
	t.Cleanup(func() { newSpinner = orig })
}

func TestProgressBar(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		fraction float64
		length   int
		filled   int
	}{
		{"empty", 0, 10, 0},
		{"half", 0.5, 10, 5},
		{"full", 1, 10, 10},
		{"clamped above", 1.7, 10, 10},
		{"clamped below", -0.3, 10, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			bar := progressBar(tt.fraction, tt.length)
			if n := utf8.RuneCountInString(bar); n != tt.length {
				t.Errorf("bar has %d runes, want %d", n, tt.length)
			}
			if n := strings.Count(bar, "█"); n != tt.filled {
				t.Errorf("bar has %d filled cells, want %d", n, tt.filled)
			}
		})
	}
}

func TestRealSpinner(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	s := spinner.New(spinner.CharSets[11], 100*time.Millisecond, spinner.WithWriter(&buf))
	rs := &realSpinner{s}

	// Just verify these methods don't panic
	rs.Start()
	rs.UpdateSuffix(" test")
	rs.Stop()
}

func TestFormatProgressLine(t *testing.T) {
	ui.SetCurrentTheme(ui.NoColorTheme)
	t.Cleanup(func() { ui.InitTheme(false) })

	line := FormatProgressLine(orchestration.AggregatedProgress{Received: 2, Expected: 8, Fraction: 0.25})
	for _, want := range []string{"2/8 partial sums", " 25.00%", "ETA: calculating..."} {
		if !strings.Contains(line, want) {
			t.Errorf("line %q should contain %q", line, want)
		}
	}
}

func TestDisplayProgress_SpinnerLifecycle(t *testing.T) {
	ctrl := gomock.NewController(t)
	m := mocks.NewMockSpinner(ctrl)
	withMockSpinner(t, m)

	gomock.InOrder(
		m.EXPECT().UpdateSuffix(gomock.Any()),
		m.EXPECT().Start(),
	)
	m.EXPECT().UpdateSuffix(gomock.Any()).MinTimes(2)
	m.EXPECT().Stop().Times(1)

	ch := make(chan progress.ProgressUpdate, 2)
	ch <- progress.ProgressUpdate{Received: 1, Expected: 2}
	ch <- progress.ProgressUpdate{Received: 2, Expected: 2}
	close(ch)

	var buf bytes.Buffer
	var wg sync.WaitGroup
	wg.Add(1)
	DisplayProgress(&wg, ch, 2, &buf)
	wg.Wait()

	if !strings.Contains(buf.String(), "2/2 partial sums") {
		t.Errorf("final line missing, got %q", buf.String())
	}
}

func TestDisplayProgress_NoExpectedDrains(t *testing.T) {
	ctrl := gomock.NewController(t)
	m := mocks.NewMockSpinner(ctrl)
	withMockSpinner(t, m)
	// No expectations: the spinner must not be touched.

	ch := make(chan progress.ProgressUpdate, 1)
	ch <- progress.ProgressUpdate{Received: 1, Expected: 1}
	close(ch)

	var wg sync.WaitGroup
	wg.Add(1)
	DisplayProgress(&wg, ch, 0, &bytes.Buffer{})
	wg.Wait()
}
