//go:build !windows && !darwin

package platform

import (
	"path/filepath"
	"syscall"
)

// Current is the Ops implementation for Linux and other Unix systems.
var Current Ops = unixOps{}

type unixOps struct{}

func (unixOps) Terminate(pid int) error {
	return syscall.Kill(pid, syscall.SIGTERM)
}

func (unixOps) Command(name string, args ...string) (string, []string) {
	return name, args
}

// ResourceDirs prefers resources next to the binary, then the system-wide
// install location used by distro packages.
func (unixOps) ResourceDirs(exeDir string) []string {
	return []string{
		filepath.Join(exeDir, "resources"),
		"/usr/share/wqbot/resources",
	}
}

func (unixOps) RuntimePaths() []string {
	return []string{
		"/usr/local/bin/node",
		"/usr/bin/node",
		"/opt/homebrew/bin/node",
	}
}
