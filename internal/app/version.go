package app

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
	"slices"
)

// Version is the application version, overridden at build time with
// -ldflags "-X github.com/agbru/picalc/internal/app.Version=v1.2.3".
var Version = "dev"

// Commit and BuildDate are filled the same way as Version.
var (
	Commit    = ""
	BuildDate = ""
)

// HasVersionFlag reports whether args request the version banner.
func HasVersionFlag(args []string) bool {
	return slices.ContainsFunc(args, func(a string) bool {
		return a == "--version" || a == "-version" || a == "-V"
	})
}

// PrintVersion writes the version banner to out.
func PrintVersion(out io.Writer) {
	commit, date := Commit, BuildDate
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				if commit == "" {
					commit = s.Value
				}
			case "vcs.time":
				if date == "" {
					date = s.Value
				}
			}
		}
	}
	fmt.Fprintf(out, "picalc %s\n", Version)
	if commit != "" {
		fmt.Fprintf(out, "  commit: %s\n", commit)
	}
	if date != "" {
		fmt.Fprintf(out, "  built:  %s\n", date)
	}
	fmt.Fprintf(out, "  go:     %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
