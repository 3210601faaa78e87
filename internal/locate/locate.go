// Package locate resolves how a runnable backend can be obtained on the
// current machine: a globally installed CLI, the CLI through a package
// runner, or a bundled entry script run with a local node runtime.
package locate

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/sevir/botshell/internal/config"
	"github.com/sevir/botshell/internal/platform"
)

// Strategy is one concrete way to launch the backend.
type Strategy struct {
	Name string   // short label used in logs and the launch journal
	Cmd  string   // executable name or path
	Args []string // arguments, already in final form
	Dir  string   // working directory; empty means inherit
}

// String returns the strategy as a loggable command line.
func (s Strategy) String() string {
	return fmt.Sprintf("%s: %s %v", s.Name, s.Cmd, s.Args)
}

// Locator produces launch candidates for the configured deployment mode.
type Locator struct {
	ops platform.Ops
	cfg config.LaunchConfig
}

// New creates a Locator using the host platform's operations.
func New(cfg config.LaunchConfig) *Locator {
	return &Locator{ops: platform.Current, cfg: cfg}
}

// NewWithOps creates a Locator with explicit platform operations. Tests use
// this to exercise other OS families' path layouts.
func NewWithOps(cfg config.LaunchConfig, ops platform.Ops) *Locator {
	return &Locator{ops: ops, cfg: cfg}
}

// ResourceDir returns the first existing bundled-resource directory for the
// host binary in exeDir, or false if none exists.
func (l *Locator) ResourceDir(exeDir string) (string, bool) {
	for _, dir := range l.ops.ResourceDirs(exeDir) {
		if st, err := os.Stat(dir); err == nil && st.IsDir() {
			return dir, true
		}
	}
	return "", false
}

// FindRuntime locates a node executable: PATH first, then the fixed
// per-platform locations.
func (l *Locator) FindRuntime() (string, bool) {
	name := "node"
	if runtime.GOOS == "windows" {
		name = "node.exe"
	}
	if path, err := exec.LookPath(name); err == nil {
		return path, true
	}
	for _, path := range l.ops.RuntimePaths() {
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
	}
	return "", false
}

// Candidates returns the ordered launch strategies to attempt, most
// preferred first. An empty list is not an error: the host keeps running
// without a backend.
func (l *Locator) Candidates(exeDir string, backendArgs []string) []Strategy {
	if l.cfg.Mode == config.ModeSidecar {
		return []Strategy{{
			Name: "sidecar",
			Cmd:  l.cfg.Sidecar,
			Args: backendArgs,
		}}
	}

	var out []Strategy

	// Global CLI and package runner are always attempted: spawn failure is
	// the cheapest existence check and falls through to the next candidate.
	cmd, args := l.ops.Command(l.cfg.CLI, "serve")
	out = append(out, Strategy{Name: "global-cli", Cmd: cmd, Args: args})

	cmd, args = l.ops.Command(l.cfg.Runner, l.cfg.CLI, "serve")
	out = append(out, Strategy{Name: "package-runner", Cmd: cmd, Args: args})

	// Embedded entry script needs the resource dir, the script, and a node
	// runtime to all be present before it is worth offering.
	resourceDir, ok := l.ResourceDir(exeDir)
	if !ok {
		return out
	}
	entry := filepath.Join(resourceDir, l.cfg.Entry)
	if _, err := os.Stat(entry); err != nil {
		return out
	}
	node, ok := l.FindRuntime()
	if !ok {
		return out
	}
	out = append(out, Strategy{
		Name: "embedded-script",
		Cmd:  node,
		Args: []string{entry},
		Dir:  resourceDir,
	})

	return out
}
