package version

import (
	"runtime/debug"
	"strings"
)

// These can be overridden at build time via -ldflags "-X cwhy/internal/version.Version=...".
var (
	Version   = ""
	GitCommit = ""
	BuildDate = ""
)

// Resolve returns Version, falling back to the module version recorded by
// the Go toolchain, then "dev".
func Resolve() string {
	if Version != "" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "dev"
}

// String is the one-line --version output.
func String() string {
	var b strings.Builder
	b.WriteString("cwhy version ")
	b.WriteString(Resolve())
	if GitCommit != "" {
		b.WriteString(" (" + GitCommit + ")")
	}
	if BuildDate != "" {
		b.WriteString(" built " + BuildDate)
	}
	return b.String()
}
