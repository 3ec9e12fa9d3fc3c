// Package metrics collects run statistics: Prometheus instruments for the
// lifecycle of a computation and runtime memory snapshots for the details
// report.
package metrics

import "runtime"

// MemorySnapshot holds a point-in-time memory reading.
type MemorySnapshot struct {
	HeapAlloc    uint64 // bytes in use by application
	TotalAlloc   uint64 // cumulative bytes allocated
	Sys          uint64 // total bytes obtained from OS
	NumGC        uint32 // number of completed GC cycles
	PauseTotalNs uint64 // cumulative GC pause time
	NumGoroutine int    // goroutines alive at snapshot time
}

// MemoryDelta is the difference between two snapshots taken around a run.
type MemoryDelta struct {
	Allocated  uint64 // bytes allocated between the snapshots
	GCCycles   uint32 // GC cycles completed between the snapshots
	PauseNs    uint64 // GC pause time between the snapshots
	Sys        uint64 // Sys at the later snapshot
	HeapInUse  uint64 // HeapAlloc at the later snapshot
	Goroutines int    // goroutines alive at the later snapshot
}

// MemoryCollector reads runtime memory statistics.
type MemoryCollector struct{}

// NewMemoryCollector creates a new memory collector.
func NewMemoryCollector() *MemoryCollector {
	return &MemoryCollector{}
}

// Snapshot reads current memory statistics.
func (mc *MemoryCollector) Snapshot() MemorySnapshot {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return MemorySnapshot{
		HeapAlloc:    m.HeapAlloc,
		TotalAlloc:   m.TotalAlloc,
		Sys:          m.Sys,
		NumGC:        m.NumGC,
		PauseTotalNs: m.PauseTotalNs,
		NumGoroutine: runtime.NumGoroutine(),
	}
}

// Since returns the change from before to s. Counters that went backwards
// (which the runtime never does) are reported as zero.
func (s MemorySnapshot) Since(before MemorySnapshot) MemoryDelta {
	d := MemoryDelta{
		Sys:        s.Sys,
		HeapInUse:  s.HeapAlloc,
		Goroutines: s.NumGoroutine,
	}
	if s.TotalAlloc >= before.TotalAlloc {
		d.Allocated = s.TotalAlloc - before.TotalAlloc
	}
	if s.NumGC >= before.NumGC {
		d.GCCycles = s.NumGC - before.NumGC
	}
	if s.PauseTotalNs >= before.PauseTotalNs {
		d.PauseNs = s.PauseTotalNs - before.PauseTotalNs
	}
	return d
}
