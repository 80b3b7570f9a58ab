// Package server supervises the subordinate Java language-server
// process: it prepares the packaged launch resources, spawns the
// process with a pre-validated runtime, attaches a framed message
// transport, and reacts to transport error/close events.
//
// The supervisor never restarts the process on its own. Every failure
// is terminal for the current attempt and reported as an event; the
// only recovery path is an explicit Restart, which re-runs runtime
// discovery from scratch.
package server

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sourcegraph/jsonrpc2"

	"github.com/dshills/jdtbridge/internal/jdk"
	"github.com/dshills/jdtbridge/internal/process"
)

// State represents the supervisor's position in its lifecycle.
type State int

const (
	// StateIdle means no subordinate process exists.
	StateIdle State = iota
	// StateStarting means a spawn attempt is in flight.
	StateStarting
	// StateRunning means the process is live with an attached transport.
	StateRunning
	// StateStopping means a graceful shutdown is in progress.
	StateStopping
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// EventType identifies the type of supervisor event.
type EventType int

const (
	// EventStarted indicates the process is running with a transport.
	EventStarted EventType = iota
	// EventStopped indicates an expected, explicit stop completed.
	EventStopped
	// EventTransportError indicates the transport failed while the
	// process was still alive; the supervisor shut everything down.
	EventTransportError
	// EventUnexpectedExit indicates the process terminated without
	// being asked to; the supervisor shut the transport down.
	EventUnexpectedExit
)

// String returns a human-readable event type name.
func (t EventType) String() string {
	switch t {
	case EventStarted:
		return "started"
	case EventStopped:
		return "stopped"
	case EventTransportError:
		return "transport error"
	case EventUnexpectedExit:
		return "unexpected exit"
	default:
		return "unknown"
	}
}

// Event is a lifecycle notification delivered to the host.
type Event struct {
	Type     EventType
	Err      error
	PID      int
	JavaPath string
}

// TransportEvent is an error or closure observed on the transport.
type TransportEvent int

const (
	// TransportClosed means the connection closed without an explicit stop.
	TransportClosed TransportEvent = iota
	// TransportExited means the subordinate process itself terminated.
	TransportExited
)

// Action is the declarative response to a transport event.
type Action int

const (
	// ActionIgnore means the event is expected and needs no reaction.
	ActionIgnore Action = iota
	// ActionShutdown means tear down the process and transport, report
	// to the host, and settle in StateIdle. Never a reconnect.
	ActionShutdown
)

// transition is the supervisor's state-machine transition function.
// It is pure: side effects are performed by the caller according to
// the returned action. Events arriving outside StateRunning are
// expected teardown noise and ignored.
func transition(s State, ev TransportEvent) (State, Action) {
	if s == StateRunning {
		return StateIdle, ActionShutdown
	}
	return s, ActionIgnore
}

// LocateFunc produces a validated runtime for (re)starts.
type LocateFunc func(ctx context.Context) (*jdk.Runtime, error)

// Supervisor owns the lifecycle of one subordinate language-server
// process. At most one process is live at a time: Start, Stop, and
// Restart are serialized through a single mutex, so a restart issued
// while a start is still in flight blocks until the start settles
// rather than racing it.
type Supervisor struct {
	mu sync.Mutex

	locate LocateFunc
	assets Assets

	// handler receives server-initiated traffic on the transport.
	handler jsonrpc2.Handler

	// diag receives the subordinate process's stderr and is the
	// operator-visible diagnostic surface.
	diag io.Writer

	stopTimeout  time.Duration
	startupGrace time.Duration

	// state uses atomic for lock-free reads; proc/tr are protected by mu.
	state atomic.Int32
	proc  *process.Process
	tr    *Transport

	// gen invalidates stale monitor goroutines across restarts.
	gen uint64

	events chan Event
}

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithHandler attaches a handler for server-initiated messages.
func WithHandler(h jsonrpc2.Handler) Option {
	return func(s *Supervisor) {
		s.handler = h
	}
}

// WithDiagWriter sets the diagnostic output surface for the
// subordinate process's stderr.
func WithDiagWriter(w io.Writer) Option {
	return func(s *Supervisor) {
		s.diag = w
	}
}

// WithStopTimeout bounds the graceful-termination wait before SIGKILL.
func WithStopTimeout(d time.Duration) Option {
	return func(s *Supervisor) {
		s.stopTimeout = d
	}
}

// WithStartupGrace sets how long a freshly spawned process must stay
// alive before the start is considered successful.
func WithStartupGrace(d time.Duration) Option {
	return func(s *Supervisor) {
		s.startupGrace = d
	}
}

// New creates a supervisor. locate is re-run on every Restart so a
// configuration fixed after a failure takes effect without restarting
// the host.
func New(locate LocateFunc, assets Assets, opts ...Option) *Supervisor {
	s := &Supervisor{
		locate:       locate,
		assets:       assets,
		diag:         io.Discard,
		stopTimeout:  5 * time.Second,
		startupGrace: 200 * time.Millisecond,
		events:       make(chan Event, 16),
	}
	s.state.Store(int32(StateIdle))
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current lifecycle state.
func (s *Supervisor) State() State {
	return State(s.state.Load())
}

// Events returns the lifecycle event channel. Events are dropped if
// the host does not drain the channel.
func (s *Supervisor) Events() <-chan Event {
	return s.events
}

// Transport returns the live message transport, or nil when idle.
func (s *Supervisor) Transport() *Transport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tr
}

// Handle returns the live process handle, or nil when idle.
func (s *Supervisor) Handle() *process.Process {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.proc
}

// Start launches the subordinate process with a pre-validated runtime
// executable. Validation is the locator's job; Start only checks its
// own preconditions (packaged resources on disk).
func (s *Supervisor) Start(ctx context.Context, javaPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startLocked(ctx, javaPath)
}

func (s *Supervisor) startLocked(ctx context.Context, javaPath string) error {
	if State(s.state.Load()) != StateIdle {
		return ErrAlreadyRunning
	}

	// Fatal precondition failures are reported before any spawn attempt.
	if err := s.assets.Preflight(); err != nil {
		return err
	}

	s.state.Store(int32(StateStarting))

	cmd := exec.Command(javaPath, s.assets.LaunchArgs()...)
	proc := process.New(javaPath, cmd)

	if err := proc.Start(); err != nil {
		s.state.Store(int32(StateIdle))
		return classifySpawn(javaPath, err)
	}

	// Stream subordinate logs to the diagnostic surface immediately so
	// startup output is visible without extra action.
	go func() {
		_, _ = io.Copy(s.diag, proc.Stderr)
	}()

	tr := newTransport(ctx, proc.Stdout, proc.Stdin, s.handler)

	// Handshake: the transport is attached and the process survives
	// its startup grace window. A process that dies this early failed
	// to launch, whatever its exit code says.
	select {
	case <-proc.Done():
		_ = tr.Close()
		_ = proc.Close()
		s.state.Store(int32(StateIdle))
		return fmt.Errorf("language server exited during startup (exit code %d): %w",
			proc.ExitCode(), errOrExit(proc))
	case <-time.After(s.startupGrace):
	}

	s.gen++
	s.proc = proc
	s.tr = tr
	s.state.Store(int32(StateRunning))

	go s.monitor(proc, tr, s.gen)

	s.emit(Event{Type: EventStarted, PID: proc.PID(), JavaPath: javaPath})
	return nil
}

// exitSettle is how long a transport closure waits for the process's
// exit status to land before the closure is treated as a transport
// failure rather than a process death.
const exitSettle = 100 * time.Millisecond

// monitor waits for the transport to disconnect or the process to
// exit, then feeds the transition function. It never restarts
// anything.
func (s *Supervisor) monitor(proc *process.Process, tr *Transport, gen uint64) {
	var ev TransportEvent
	select {
	case <-proc.Done():
		ev = TransportExited
	case <-tr.Disconnected():
		ev = TransportClosed
	}
	s.handleTransportEvent(proc, tr, gen, ev)
}

func (s *Supervisor) handleTransportEvent(proc *process.Process, tr *Transport, gen uint64, ev TransportEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// A stop or restart bumped the generation; this event belongs to a
	// handle that was already torn down.
	if gen != s.gen {
		return
	}

	next, action := transition(State(s.state.Load()), ev)
	if action != ActionShutdown {
		return
	}

	// Which channel woke the monitor does not identify the cause: a
	// dying process closes its pipes before its exit status lands, so
	// the transport's reader usually loses the race against Done. Wait
	// out the settle window and classify by process state instead.
	exited := ev == TransportExited
	if !exited {
		select {
		case <-proc.Done():
			exited = true
		case <-time.After(exitSettle):
		}
	}

	_ = tr.Close()
	if proc.IsRunning() {
		_ = proc.Kill()
		<-proc.Done()
	}
	_ = proc.Close()

	s.proc = nil
	s.tr = nil
	s.gen++
	s.state.Store(int32(next))

	if exited {
		s.emit(Event{
			Type:     EventUnexpectedExit,
			Err:      fmt.Errorf("language server terminated unexpectedly (exit code %d)", proc.ExitCode()),
			JavaPath: proc.ExecPath,
		})
		return
	}
	s.emit(Event{
		Type:     EventTransportError,
		Err:      fmt.Errorf("connection to the language server closed"),
		JavaPath: proc.ExecPath,
	})
}

// Stop gracefully terminates the subordinate process and closes the
// transport. Stopping an idle supervisor is a no-op: explicit stops
// are expected terminations and report no error.
func (s *Supervisor) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopLocked(ctx)
}

func (s *Supervisor) stopLocked(ctx context.Context) error {
	if State(s.state.Load()) == StateIdle {
		return nil
	}

	s.state.Store(int32(StateStopping))
	s.gen++ // detach any live monitor

	proc := s.proc
	tr := s.tr
	s.proc = nil
	s.tr = nil

	if tr != nil {
		_ = tr.Close()
	}

	if proc != nil && proc.IsRunning() {
		_ = proc.Terminate()
		select {
		case <-proc.Done():
		case <-time.After(s.stopTimeout):
			_ = proc.Kill()
			<-proc.Done()
		case <-ctx.Done():
			_ = proc.Kill()
			<-proc.Done()
		}
	}
	if proc != nil {
		_ = proc.Close()
	}

	s.state.Store(int32(StateIdle))
	s.emit(Event{Type: EventStopped})
	return nil
}

// Restart tears the current process down (if any), re-runs runtime
// discovery from scratch, and starts fresh with the result. The
// previously used executable path is never reused.
func (s *Supervisor) Restart(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.stopLocked(ctx); err != nil {
		return err
	}

	rt, err := s.locate(ctx)
	if err != nil {
		return err
	}

	return s.startLocked(ctx, rt.JavaPath)
}

// emit delivers an event without blocking; events are dropped if the
// channel is full.
func (s *Supervisor) emit(ev Event) {
	select {
	case s.events <- ev:
	default:
	}
}

func errOrExit(p *process.Process) error {
	if err := p.ExitError(); err != nil {
		return err
	}
	return fmt.Errorf("exit code %d", p.ExitCode())
}
