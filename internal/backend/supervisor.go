// Package backend owns the lifecycle of the supervised backend server
// process: spawning it via the locator's candidates, draining its output,
// probing its port, and tearing it down.
package backend

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sevir/botshell/internal/history"
	"github.com/sevir/botshell/internal/locate"
	"github.com/sevir/botshell/internal/platform"
)

// restartDelay gives the OS time to release the backend's listen port
// between stop and start.
const restartDelay = 500 * time.Millisecond

// Handle is the supervisor's reference to a running backend process.
type Handle struct {
	LaunchID string
	Strategy string
	PID      int

	cmd  *exec.Cmd
	done chan struct{} // closed once cmd.Wait has returned
}

// Supervisor holds at most one backend process at a time. A single mutex
// guards the handle slot; it is held only while taking or storing the
// handle, never across a wait.
type Supervisor struct {
	locator     *locate.Locator
	journal     *history.Journal // may be nil
	ops         platform.Ops
	backendArgs []string

	mu     sync.Mutex
	handle *Handle

	lines chan outputLine
}

type outputLine struct {
	stream string
	text   string
}

// Options configures a Supervisor.
type Options struct {
	Locator     *locate.Locator
	Journal     *history.Journal
	BackendArgs []string // passed to the sidecar, e.g. --port/--host
}

// NewSupervisor creates a Supervisor and starts its output-drain task.
func NewSupervisor(opts Options) *Supervisor {
	s := &Supervisor{
		locator:     opts.Locator,
		journal:     opts.Journal,
		ops:         platform.Current,
		backendArgs: opts.BackendArgs,
		lines:       make(chan outputLine, 256),
	}

	// Single consumer for all backend output; capture goroutines feed the
	// channel so spawning never blocks on log I/O.
	go s.drainLoop()

	return s
}

func (s *Supervisor) drainLoop() {
	for line := range s.lines {
		if line.stream == "stderr" {
			log.Printf("backend [stderr]: %s", line.text)
		} else {
			log.Printf("backend: %s", line.text)
		}
	}
}

// Running reports whether a handle is currently stored.
func (s *Supervisor) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handle != nil
}

// Start attempts the locator's candidates in order and stores the first
// successfully spawned process. It returns true if a backend was started.
// Exhausting all candidates is not fatal: the host keeps running without a
// backend and the condition is logged. Once started there is no
// cancellation; Stop is the only way to end the process.
func (s *Supervisor) Start() bool {
	s.mu.Lock()
	if s.handle != nil {
		s.mu.Unlock()
		log.Printf("backend already running (pid=%d), refusing second start", s.handle.PID)
		return false
	}
	s.mu.Unlock()

	log.Println("starting backend service...")

	exeDir := executableDir()
	candidates := s.locator.Candidates(exeDir, s.backendArgs)
	if len(candidates) == 0 {
		log.Println("WARNING: no backend launch candidates available")
		log.Println("install the wqbot CLI (npm install -g wqbot) or a node runtime")
		return false
	}

	for _, cand := range candidates {
		handle, err := s.spawn(cand)
		if err != nil {
			log.Printf("candidate %s failed: %v", cand.Name, err)
			continue
		}

		s.mu.Lock()
		// Slot may have been filled while we were spawning; restart()'s
		// sequencing makes this unreachable in practice, but never leak.
		if s.handle != nil {
			s.mu.Unlock()
			log.Printf("handle slot occupied, terminating duplicate backend pid=%d", handle.PID)
			s.terminateAndWait(handle)
			return false
		}
		s.handle = handle
		s.mu.Unlock()

		log.Printf("backend started strategy=%s pid=%d launch_id=%s", handle.Strategy, handle.PID, handle.LaunchID)
		return true
	}

	log.Println("WARNING: failed to start backend service, continuing degraded")
	return false
}

func (s *Supervisor) spawn(cand locate.Strategy) (*Handle, error) {
	cmd := exec.Command(cand.Cmd, cand.Args...)
	cmd.Dir = cand.Dir

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("spawn: %w", err)
	}

	handle := &Handle{
		LaunchID: uuid.New().String(),
		Strategy: cand.Name,
		PID:      cmd.Process.Pid,
		cmd:      cmd,
		done:     make(chan struct{}),
	}

	if s.journal != nil {
		if err := s.journal.Started(history.Record{
			LaunchID:  handle.LaunchID,
			Strategy:  handle.Strategy,
			PID:       handle.PID,
			StartedAt: time.Now(),
		}); err != nil {
			log.Printf("failed to record launch: %v", err)
		}
	}

	go s.capture("stdout", stdout)
	go s.capture("stderr", stderr)
	go s.waitForExit(handle)

	return handle, nil
}

func (s *Supervisor) capture(stream string, r io.Reader) {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	for scanner.Scan() {
		s.lines <- outputLine{stream: stream, text: scanner.Text()}
	}
}

func (s *Supervisor) waitForExit(handle *Handle) {
	defer close(handle.done)

	err := handle.cmd.Wait()

	exitCode := 0
	if err != nil {
		exitCode = -1
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		}
	}

	log.Printf("backend exited pid=%d code=%d", handle.PID, exitCode)

	if s.journal != nil {
		if err := s.journal.Ended(handle.LaunchID, exitCode); err != nil {
			log.Printf("failed to record launch exit: %v", err)
		}
	}
}

// Stop takes the stored handle, signals the process, and blocks until it
// has exited so no orphan remains. Calling Stop with no handle stored is a
// no-op. Signal-send failures are logged and swallowed; the exit wait still
// happens, so Stop can block indefinitely on a process that ignores the
// signal.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	handle := s.handle
	s.handle = nil
	s.mu.Unlock()

	if handle == nil {
		return
	}

	log.Printf("stopping backend service pid=%d...", handle.PID)
	s.terminateAndWait(handle)
	log.Println("backend service stopped")
}

func (s *Supervisor) terminateAndWait(handle *Handle) {
	if err := s.ops.Terminate(handle.PID); err != nil {
		log.Printf("failed to signal backend pid=%d: %v", handle.PID, err)
	}
	<-handle.done
}

// Restart stops the backend, waits for the listen port to be released, and
// starts it again. It returns true only if the new backend was spawned.
// The delay is not interruptible.
func (s *Supervisor) Restart() bool {
	s.Stop()
	time.Sleep(restartDelay)
	return s.Start()
}

func executableDir() string {
	exe, err := os.Executable()
	if err != nil {
		return ""
	}
	return filepath.Dir(exe)
}
