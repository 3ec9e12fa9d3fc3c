package cli

import (
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/agbru/picalc/internal/config"
	"github.com/agbru/picalc/internal/format"
	"github.com/agbru/picalc/internal/leibniz"
	"github.com/agbru/picalc/internal/sysmon"
	"github.com/agbru/picalc/internal/ui"
)

// PrintExecutionConfig displays the run parameters and the host description.
//
// Parameters:
//   - cfg: The application configuration.
//   - host: The host description from sysmon.Host.
//   - out: The writer for standard output.
func PrintExecutionConfig(cfg config.AppConfig, host sysmon.HostInfo, out io.Writer) {
	timeout := "none"
	if cfg.Timeout > 0 {
		timeout = cfg.Timeout.String()
	}
	mailbox := cfg.Mailbox
	if mailbox == 0 {
		mailbox = leibniz.DefaultMailboxCapacity
	}

	fmt.Fprintf(out, "--- Execution Configuration ---\n")
	fmt.Fprintf(out, "Summing %s%d%s Leibniz terms over %s%d%s workers (mailbox %d) with a timeout of %s%s%s.\n",
		ui.ColorPrimary(), cfg.Length, ui.ColorReset(),
		ui.ColorPrimary(), cfg.Workers, ui.ColorReset(),
		mailbox,
		ui.ColorWarning(), timeout, ui.ColorReset())
	fmt.Fprintf(out, "Environment: %s/%s, %s%d%s logical processors (GOMAXPROCS %d), Go %s.\n",
		host.OS, host.Arch, ui.ColorPrimary(), host.LogicalCores, ui.ColorReset(), host.GOMAXPROCS, runtime.Version())
	if host.CPUModel != "" {
		fmt.Fprintf(out, "CPU: %s", host.CPUModel)
		if host.PhysicalCores > 0 {
			fmt.Fprintf(out, " (%d physical cores)", host.PhysicalCores)
		}
		fmt.Fprintln(out)
	}
	if host.TotalMemory > 0 {
		fmt.Fprintf(out, "Memory: %s\n", format.FormatBytes(host.TotalMemory))
	}
	if len(host.Features) > 0 {
		fmt.Fprintf(out, "CPU features: %s\n", strings.Join(host.Features, ", "))
	}
	fmt.Fprintf(out, "\n--- Starting Execution ---\n")
}
