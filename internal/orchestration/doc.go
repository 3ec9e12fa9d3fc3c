// Package orchestration runs a complete Leibniz computation: it splits the
// series into jobs, wires the worker pool to the accumulator, and relays
// progress to the presentation layer through the ProgressReporter and
// ResultPresenter interfaces.
package orchestration
