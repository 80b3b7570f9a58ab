package process

import (
	"bufio"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func skipWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fixtures require a POSIX shell")
	}
}

// writeScript writes an executable shell script and returns its path.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state    State
		expected string
	}{
		{StateCreated, "created"},
		{StateRunning, "running"},
		{StateExited, "exited"},
		{StateKilled, "killed"},
		{State(99), "unknown(99)"},
	}

	for _, tt := range tests {
		got := tt.state.String()
		if got != tt.expected {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.expected)
		}
	}
}

func TestNew(t *testing.T) {
	p := New("/usr/bin/true", exec.Command("/usr/bin/true"))

	if p.ID == "" {
		t.Error("expected non-empty ID")
	}
	if p.ExecPath != "/usr/bin/true" {
		t.Errorf("expected exec path /usr/bin/true, got %q", p.ExecPath)
	}
	if p.State() != StateCreated {
		t.Errorf("expected state created, got %v", p.State())
	}
	if p.ExitCode() != -1 {
		t.Errorf("expected exit code -1 before exit, got %d", p.ExitCode())
	}
	if p.PID() != -1 {
		t.Errorf("expected PID -1 before start, got %d", p.PID())
	}
}

func TestStartAndExit(t *testing.T) {
	skipWindows(t)

	script := writeScript(t, "exit 0\n")
	p := New(script, exec.Command(script))

	if err := p.Start(); err != nil {
		t.Fatalf("unexpected start error: %v", err)
	}
	if p.PID() <= 0 {
		t.Errorf("expected positive PID, got %d", p.PID())
	}

	select {
	case <-p.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for exit")
	}

	if p.State() != StateExited {
		t.Errorf("expected state exited, got %v", p.State())
	}
	if p.ExitCode() != 0 {
		t.Errorf("expected exit code 0, got %d", p.ExitCode())
	}
	if !p.HasExited() {
		t.Error("expected HasExited")
	}
}

func TestStartTwice(t *testing.T) {
	skipWindows(t)

	script := writeScript(t, "cat\n")
	p := New(script, exec.Command(script))

	if err := p.Start(); err != nil {
		t.Fatalf("unexpected start error: %v", err)
	}
	defer func() {
		_ = p.Kill()
		<-p.Done()
	}()

	if err := p.Start(); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("expected ErrAlreadyStarted, got %v", err)
	}
}

func TestStartFailure(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "no-such-binary")
	p := New(missing, exec.Command(missing))

	if err := p.Start(); err == nil {
		t.Fatal("expected start error for missing executable")
	}
	if p.State() != StateCreated {
		t.Errorf("expected state to remain created, got %v", p.State())
	}
}

func TestNonZeroExitCode(t *testing.T) {
	skipWindows(t)

	script := writeScript(t, "exit 3\n")
	p := New(script, exec.Command(script))

	if err := p.Start(); err != nil {
		t.Fatalf("unexpected start error: %v", err)
	}

	select {
	case <-p.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for exit")
	}

	if p.ExitCode() != 3 {
		t.Errorf("expected exit code 3, got %d", p.ExitCode())
	}
	if p.State() != StateExited {
		t.Errorf("expected state exited, got %v", p.State())
	}
	if p.ExitError() == nil {
		t.Error("expected non-nil exit error")
	}
}

func TestKill(t *testing.T) {
	skipWindows(t)

	script := writeScript(t, "cat\n")
	p := New(script, exec.Command(script))

	if err := p.Start(); err != nil {
		t.Fatalf("unexpected start error: %v", err)
	}
	if !p.IsRunning() {
		t.Fatal("expected running state after start")
	}

	if err := p.Kill(); err != nil {
		t.Fatalf("unexpected kill error: %v", err)
	}

	select {
	case <-p.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for killed process")
	}

	if p.State() != StateKilled {
		t.Errorf("expected state killed, got %v", p.State())
	}
}

func TestSignalBeforeStart(t *testing.T) {
	p := New("/usr/bin/true", exec.Command("/usr/bin/true"))

	if err := p.Terminate(); !errors.Is(err, ErrNotStarted) {
		t.Errorf("expected ErrNotStarted, got %v", err)
	}
}

func TestPipedIO(t *testing.T) {
	skipWindows(t)

	// Echoes each stdin line back on stdout.
	script := writeScript(t, "read line\necho \"got:$line\"\n")
	p := New(script, exec.Command(script))

	if err := p.Start(); err != nil {
		t.Fatalf("unexpected start error: %v", err)
	}

	if _, err := p.Stdin.Write([]byte("hello\n")); err != nil {
		t.Fatalf("stdin write: %v", err)
	}

	line, err := bufio.NewReader(p.Stdout).ReadString('\n')
	if err != nil {
		t.Fatalf("stdout read: %v", err)
	}
	if strings.TrimSpace(line) != "got:hello" {
		t.Errorf("expected echoed line, got %q", line)
	}

	select {
	case <-p.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for exit")
	}
}

func TestStderrCapture(t *testing.T) {
	skipWindows(t)

	script := writeScript(t, "echo oops >&2\n")
	p := New(script, exec.Command(script))

	if err := p.Start(); err != nil {
		t.Fatalf("unexpected start error: %v", err)
	}

	line, err := bufio.NewReader(p.Stderr).ReadString('\n')
	if err != nil {
		t.Fatalf("stderr read: %v", err)
	}
	if strings.TrimSpace(line) != "oops" {
		t.Errorf("expected 'oops' on stderr, got %q", line)
	}

	select {
	case <-p.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for exit")
	}
}

func TestRuntime(t *testing.T) {
	p := New("/usr/bin/true", exec.Command("/usr/bin/true"))
	if p.Runtime() != 0 {
		t.Errorf("expected zero runtime before start, got %v", p.Runtime())
	}
}

func TestRuntime_FrozenAfterExit(t *testing.T) {
	skipWindows(t)

	script := writeScript(t, "exit 0\n")
	p := New(script, exec.Command(script))

	if err := p.Start(); err != nil {
		t.Fatalf("unexpected start error: %v", err)
	}

	select {
	case <-p.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for exit")
	}

	first := p.Runtime()
	time.Sleep(30 * time.Millisecond)
	second := p.Runtime()

	if first != second {
		t.Errorf("runtime kept growing after exit: %v then %v", first, second)
	}
	if first <= 0 {
		t.Errorf("expected positive total runtime, got %v", first)
	}
}
