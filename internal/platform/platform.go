// Package platform isolates the OS-specific parts of backend supervision:
// how to terminate a process tree, how to wrap a command so shells resolve
// it, and where bundled resources and the node runtime live.
package platform

// Ops groups the operations that differ per OS family. The package-level
// Current value is selected by build tags so the supervisor itself stays
// platform-agnostic.
type Ops interface {
	// Terminate asks the process (and its children, where the OS supports
	// it) to shut down gracefully.
	Terminate(pid int) error

	// Command rewrites a command invocation for the host shell. On Windows
	// this routes through "cmd /C" so .cmd/.bat shims (npm installs) resolve.
	Command(name string, args ...string) (string, []string)

	// ResourceDirs returns the candidate bundled-resource directories for a
	// host binary located in exeDir, most preferred first.
	ResourceDirs(exeDir string) []string

	// RuntimePaths returns well-known node executable locations to probe
	// after a PATH lookup fails.
	RuntimePaths() []string
}
