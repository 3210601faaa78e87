//go:build darwin

package platform

import (
	"path/filepath"
	"syscall"
)

// Current is the Ops implementation for macOS app bundles.
var Current Ops = darwinOps{}

type darwinOps struct{}

func (darwinOps) Terminate(pid int) error {
	return syscall.Kill(pid, syscall.SIGTERM)
}

func (darwinOps) Command(name string, args ...string) (string, []string) {
	return name, args
}

// ResourceDirs points at the Resources folder of the .app bundle: the binary
// lives in Contents/MacOS, resources in the sibling Contents/Resources.
func (darwinOps) ResourceDirs(exeDir string) []string {
	return []string{filepath.Join(filepath.Dir(exeDir), "Resources")}
}

func (darwinOps) RuntimePaths() []string {
	return []string{
		"/usr/local/bin/node",
		"/usr/bin/node",
		"/opt/homebrew/bin/node",
	}
}
