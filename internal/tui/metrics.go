package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/agbru/picalc/internal/format"
)

// MetricsModel displays runtime memory, system load and throughput.
type MetricsModel struct {
	alloc        uint64
	heapInuse    uint64
	numGC        uint32
	pauseTotalNs uint64
	numGoroutine int
	cpuPercent   float64
	memPercent   float64
	speed        float64 // completed fraction per second
	lastProgress float64
	lastUpdate   time.Time
	width        int
	height       int
}

// NewMetricsModel creates a new metrics panel.
func NewMetricsModel() MetricsModel {
	return MetricsModel{
		lastUpdate: time.Now(),
	}
}

// SetSize updates dimensions.
func (m *MetricsModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// UpdateMemStats updates memory statistics.
func (m *MetricsModel) UpdateMemStats(msg MemStatsMsg) {
	m.alloc = msg.Alloc
	m.heapInuse = msg.HeapInuse
	m.numGC = msg.NumGC
	m.pauseTotalNs = msg.PauseTotalNs
	m.numGoroutine = msg.NumGoroutine
}

// UpdateSysStats updates the system-wide load.
func (m *MetricsModel) UpdateSysStats(msg SysStatsMsg) {
	m.cpuPercent = msg.CPUPercent
	m.memPercent = msg.MemPercent
}

// UpdateProgress updates the speed metric from a completion fraction.
func (m *MetricsModel) UpdateProgress(fraction float64) {
	now := time.Now()
	dt := now.Sub(m.lastUpdate).Seconds()
	if dt > 0.05 {
		dp := fraction - m.lastProgress
		if dp > 0 {
			instantSpeed := dp / dt
			if m.speed > 0 {
				m.speed = 0.7*m.speed + 0.3*instantSpeed
			} else {
				m.speed = instantSpeed
			}
		}
		m.lastProgress = fraction
		m.lastUpdate = now
	}
}

// View renders the metrics panel.
func (m MetricsModel) View() string {
	colWidth := max((m.width-6)/2, 0)

	speed := "-"
	if m.speed > 0 {
		speed = fmt.Sprintf("%.1f%%/s", m.speed*100)
	}

	left := []string{
		formatMetricCol("Memory:", format.FormatBytes(m.alloc), colWidth),
		formatMetricCol("GC Runs:", fmt.Sprintf("%d (%.1fms)", m.numGC, float64(m.pauseTotalNs)/1e6), colWidth),
		formatMetricCol("CPU:", fmt.Sprintf("%.1f%%", m.cpuPercent), colWidth),
	}
	right := []string{
		formatMetricCol("Heap:", format.FormatBytes(m.heapInuse), colWidth),
		formatMetricCol("Goroutines:", fmt.Sprintf("%d", m.numGoroutine), colWidth),
		formatMetricCol("Speed:", speed, colWidth),
	}

	var rows strings.Builder
	rows.WriteString(titleStyle.Render("Metrics"))
	for i := range left {
		rows.WriteString("\n")
		rows.WriteString(left[i])
		rows.WriteString(right[i])
	}
	rows.WriteString("\n")
	rows.WriteString(formatMetricCol("System Mem:", fmt.Sprintf("%.1f%%", m.memPercent), colWidth))

	return panelStyle.
		Width(max(m.width-2, 0)).
		Render(rows.String())
}

func formatMetricCol(label, value string, colWidth int) string {
	cell := fmt.Sprintf(" %s %s",
		labelStyle.Render(fmt.Sprintf("%-12s", label)),
		valueStyle.Render(value))
	// Pad to fixed column width using lipgloss-aware width
	visible := lipgloss.Width(cell)
	if visible < colWidth {
		cell += strings.Repeat(" ", colWidth-visible)
	}
	return cell
}
