package tui

import (
	"time"

	"github.com/agbru/picalc/internal/orchestration"
)

// ProgressMsg carries an aggregated progress update.
type ProgressMsg struct {
	Received   int
	Expected   int
	Fraction   float64
	ETA        time.Duration
	Generation uint64
}

// ProgressDoneMsg signals that the progress channel was closed.
type ProgressDoneMsg struct {
	Generation uint64
}

// FinalResultMsg carries the result of a successful run.
type FinalResultMsg struct {
	Result     orchestration.RunResult
	Options    orchestration.PresentationOptions
	Generation uint64
}

// ErrorMsg carries the error of a failed run.
type ErrorMsg struct {
	Err        error
	Duration   time.Duration
	Generation uint64
}

// TickMsg drives periodic sampling.
type TickMsg time.Time

// MemStatsMsg carries a runtime memory sample.
type MemStatsMsg struct {
	Alloc        uint64
	HeapInuse    uint64
	NumGC        uint32
	PauseTotalNs uint64
	NumGoroutine int
}

// SysStatsMsg carries a system-wide CPU and memory sample.
type SysStatsMsg struct {
	CPUPercent float64
	MemPercent float64
}

// RunCompleteMsg is sent when a run started by the model has returned.
type RunCompleteMsg struct {
	ExitCode   int
	Generation uint64
}

// ContextCancelledMsg is sent when the run context is cancelled.
type ContextCancelledMsg struct {
	Err        error
	Generation uint64
}
