package backend

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/sevir/botshell/internal/locate"
)

// Info assembles the human-readable diagnostic text shown in the shell's
// diagnostics panel: newline-separated key: value lines, not meant for
// machine parsing.
func Info(loc *locate.Locator, probe *Probe) string {
	var b strings.Builder

	fmt.Fprintf(&b, "platform: %s\n", runtime.GOOS)
	fmt.Fprintf(&b, "arch: %s\n", runtime.GOARCH)

	if dir, ok := loc.ResourceDir(executableDir()); ok {
		fmt.Fprintf(&b, "resources: %s\n", dir)
	} else {
		b.WriteString("resources: not found\n")
	}

	if node, ok := loc.FindRuntime(); ok {
		fmt.Fprintf(&b, "runtime: %s\n", node)
	} else {
		b.WriteString("runtime: not found\n")
	}

	status := "not running"
	if probe.Check() {
		status = "running"
	}
	fmt.Fprintf(&b, "backend: %s\n", status)

	return b.String()
}
