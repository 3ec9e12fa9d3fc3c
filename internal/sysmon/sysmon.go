// Package sysmon describes the host a run executes on: a live CPU and memory
// sample for the dashboard and a static description for verbose output.
package sysmon

import (
	"context"
	"runtime"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
	syscpu "golang.org/x/sys/cpu"
)

// Stats holds a single snapshot of system-wide resource usage.
type Stats struct {
	CPUPercent float64 // 0.0 .. 100.0
	MemPercent float64 // 0.0 .. 100.0
}

// Sample collects a single system-wide CPU and memory snapshot.
// CPU uses interval=0 (delta since last call). Returns zero values on error.
func Sample() Stats {
	return SampleContext(context.Background())
}

// SampleContext is Sample with a context bounding the underlying reads.
func SampleContext(ctx context.Context) Stats {
	var s Stats
	if pcts, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(pcts) > 0 {
		s.CPUPercent = pcts[0]
	}
	if vmem, err := mem.VirtualMemoryWithContext(ctx); err == nil && vmem != nil {
		s.MemPercent = vmem.UsedPercent
	}
	return s
}

// HostInfo is a static description of the machine.
type HostInfo struct {
	OS            string
	Arch          string
	CPUModel      string
	LogicalCores  int
	PhysicalCores int
	GOMAXPROCS    int
	TotalMemory   uint64 // bytes, 0 if unknown
	Features      []string
}

// Host describes the current machine. Fields that cannot be read are left
// at their zero value.
func Host(ctx context.Context) HostInfo {
	h := HostInfo{
		OS:           runtime.GOOS,
		Arch:         runtime.GOARCH,
		LogicalCores: runtime.NumCPU(),
		GOMAXPROCS:   runtime.GOMAXPROCS(0),
		Features:     Features(),
	}
	if infos, err := cpu.InfoWithContext(ctx); err == nil && len(infos) > 0 {
		h.CPUModel = infos[0].ModelName
	}
	if n, err := cpu.CountsWithContext(ctx, false); err == nil {
		h.PhysicalCores = n
	}
	if vmem, err := mem.VirtualMemoryWithContext(ctx); err == nil && vmem != nil {
		h.TotalMemory = vmem.Total
	}
	return h
}

// Features lists the SIMD extensions relevant to floating-point loops
// that the CPU supports.
func Features() []string {
	var f []string
	add := func(ok bool, name string) {
		if ok {
			f = append(f, name)
		}
	}
	switch runtime.GOARCH {
	case "amd64", "386":
		add(syscpu.X86.HasSSE41, "SSE4.1")
		add(syscpu.X86.HasSSE42, "SSE4.2")
		add(syscpu.X86.HasAVX, "AVX")
		add(syscpu.X86.HasFMA, "FMA")
		add(syscpu.X86.HasAVX2, "AVX2")
		add(syscpu.X86.HasAVX512F, "AVX-512F")
	case "arm64":
		add(syscpu.ARM64.HasFP, "FP")
		add(syscpu.ARM64.HasASIMD, "ASIMD")
		add(syscpu.ARM64.HasSVE, "SVE")
	}
	return f
}
