//go:build windows

package platform

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
)

// Current is the Ops implementation for Windows.
var Current Ops = windowsOps{}

type windowsOps struct{}

// Terminate tree-kills the process group. Child processes spawned through
// cmd /C would otherwise survive a plain kill of the wrapper.
func (windowsOps) Terminate(pid int) error {
	out, err := exec.Command("taskkill", "/PID", strconv.Itoa(pid), "/T").CombinedOutput()
	if err != nil {
		return fmt.Errorf("taskkill pid %d: %v (%s)", pid, err, out)
	}
	return nil
}

func (windowsOps) Command(name string, args ...string) (string, []string) {
	return "cmd", append([]string{"/C", name}, args...)
}

func (windowsOps) ResourceDirs(exeDir string) []string {
	return []string{filepath.Join(exeDir, "resources")}
}

func (windowsOps) RuntimePaths() []string {
	return []string{
		`C:\Program Files\nodejs\node.exe`,
		`C:\Program Files (x86)\nodejs\node.exe`,
	}
}
