// Package tui implements the interactive dashboard (-tui) with bubbletea.
// It runs the same orchestration as the CLI and receives progress and results
// as bubbletea messages through the bridge types.
package tui
