// Package process wraps one managed child process with lifecycle
// tracking, exit-state capture, and piped standard I/O.
package process

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"
)

// State represents the state of a process.
type State int

const (
	// StateCreated indicates the process has been created but not started.
	StateCreated State = iota
	// StateRunning indicates the process is currently running.
	StateRunning
	// StateExited indicates the process has exited normally or with an error.
	StateExited
	// StateKilled indicates the process was killed by a signal.
	StateKilled
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunning:
		return "running"
	case StateExited:
		return "exited"
	case StateKilled:
		return "killed"
	default:
		return fmt.Sprintf("unknown(%d)", s)
	}
}

// Sentinel errors.
var (
	// ErrNotStarted is returned when operations require a started process.
	ErrNotStarted = errors.New("process not started")

	// ErrAlreadyStarted is returned when starting an already started process.
	ErrAlreadyStarted = errors.New("process already started")
)

// Process is the handle for one subordinate process: its identity, the
// executable used to launch it, and its piped standard channels. At
// most one Process should be live per supervisor at a time; that
// invariant is enforced by the caller, not here.
type Process struct {
	// ID uniquely identifies this handle across restarts.
	ID string

	// ExecPath is the executable used to launch the process.
	ExecPath string

	// Cmd is the underlying exec.Cmd.
	Cmd *exec.Cmd

	// Stdin provides write access to the process's stdin.
	Stdin io.WriteCloser

	// Stdout provides read access to the process's stdout.
	Stdout io.ReadCloser

	// Stderr provides read access to the process's stderr.
	Stderr io.ReadCloser

	// Started is the time the process was started.
	Started time.Time

	// done is closed when the process exits.
	done chan struct{}

	state    atomic.Int32
	exitCode atomic.Int32

	// mu protects exitErr and exited.
	mu      sync.RWMutex
	exitErr error
	exited  time.Time

	waitOnce sync.Once
}

// New creates a handle wrapping the given command. The command must
// not have been started yet; call Start to launch it with tracking.
func New(execPath string, cmd *exec.Cmd) *Process {
	p := &Process{
		ID:       uuid.New().String(),
		ExecPath: execPath,
		Cmd:      cmd,
		done:     make(chan struct{}),
	}
	p.state.Store(int32(StateCreated))
	p.exitCode.Store(-1) // -1 indicates not exited
	return p
}

// Start pipes the command's standard channels, launches it, and begins
// exit tracking. Pipes created here are closed again if the launch
// fails.
func (p *Process) Start() error {
	if p.State() != StateCreated {
		return ErrAlreadyStarted
	}

	var created []io.Closer
	cleanup := func() {
		for _, c := range created {
			_ = c.Close()
		}
	}

	stdin, err := p.Cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe: %w", err)
	}
	created = append(created, stdin)

	stdout, err := p.Cmd.StdoutPipe()
	if err != nil {
		cleanup()
		return fmt.Errorf("stdout pipe: %w", err)
	}
	created = append(created, stdout)

	stderr, err := p.Cmd.StderrPipe()
	if err != nil {
		cleanup()
		return fmt.Errorf("stderr pipe: %w", err)
	}
	created = append(created, stderr)

	if err := p.Cmd.Start(); err != nil {
		cleanup()
		return fmt.Errorf("start process: %w", err)
	}

	p.Stdin = stdin
	p.Stdout = stdout
	p.Stderr = stderr
	p.Started = time.Now()
	p.state.Store(int32(StateRunning))

	go p.waitLoop()

	return nil
}

// waitLoop waits for the process to exit and records its exit state.
func (p *Process) waitLoop() {
	p.waitOnce.Do(func() {
		err := p.Cmd.Wait()

		p.mu.Lock()
		p.exitErr = err
		p.exited = time.Now()
		p.mu.Unlock()

		exitCode := 0
		state := StateExited

		if err != nil {
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				exitCode = exitErr.ExitCode()
				if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
					state = StateKilled
				}
			} else {
				exitCode = -1
			}
		}

		p.exitCode.Store(int32(exitCode))
		p.state.Store(int32(state))
		close(p.done)
	})
}

// State returns the current process state.
func (p *Process) State() State {
	return State(p.state.Load())
}

// IsRunning returns true if the process is currently running.
func (p *Process) IsRunning() bool {
	return p.State() == StateRunning
}

// HasExited returns true if the process has exited (normally or killed).
func (p *Process) HasExited() bool {
	state := p.State()
	return state == StateExited || state == StateKilled
}

// ExitCode returns the process exit code, or -1 if it has not exited.
func (p *Process) ExitCode() int {
	return int(p.exitCode.Load())
}

// ExitError returns any error from waiting on the process.
func (p *Process) ExitError() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.exitErr
}

// Done returns a channel that is closed when the process exits.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// PID returns the operating-system process ID, or -1 if not started.
func (p *Process) PID() int {
	if p.Cmd.Process == nil {
		return -1
	}
	return p.Cmd.Process.Pid
}

// Signal sends a signal to the process.
func (p *Process) Signal(sig os.Signal) error {
	if !p.IsRunning() || p.Cmd.Process == nil {
		return ErrNotStarted
	}
	return p.Cmd.Process.Signal(sig)
}

// Terminate sends SIGTERM to the process.
func (p *Process) Terminate() error {
	return p.Signal(syscall.SIGTERM)
}

// Kill sends SIGKILL to the process.
func (p *Process) Kill() error {
	return p.Signal(syscall.SIGKILL)
}

// Close closes all piped I/O handles. It does not kill the process.
func (p *Process) Close() error {
	var errs []error

	if p.Stdin != nil {
		if err := p.Stdin.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close stdin: %w", err))
		}
	}
	if p.Stdout != nil {
		if err := p.Stdout.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close stdout: %w", err))
		}
	}
	if p.Stderr != nil {
		if err := p.Stderr.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close stderr: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close process I/O: %v", errs)
	}
	return nil
}

// Runtime returns how long the process has been running, or its total
// runtime if it has exited.
func (p *Process) Runtime() time.Duration {
	if p.Started.IsZero() {
		return 0
	}

	p.mu.RLock()
	exited := p.exited
	p.mu.RUnlock()

	if !exited.IsZero() {
		return exited.Sub(p.Started)
	}
	return time.Since(p.Started)
}
