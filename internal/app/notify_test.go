package app

import (
	"bytes"
	"strings"
	"sync"
	"testing"
)

// recordingNotifier captures every surfaced notification.
type recordingNotifier struct {
	mu   sync.Mutex
	msgs []string
}

func (n *recordingNotifier) record(msg string) {
	n.mu.Lock()
	n.msgs = append(n.msgs, msg)
	n.mu.Unlock()
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.msgs)
}

func (n *recordingNotifier) Info(msg string, actions ...Action)  { n.record(msg) }
func (n *recordingNotifier) Warn(msg string, actions ...Action)  { n.record(msg) }
func (n *recordingNotifier) Error(msg string, actions ...Action) { n.record(msg) }

func TestLogNotifier_RendersActions(t *testing.T) {
	var buf bytes.Buffer
	notifier := NewLogNotifier(NewLogger(&buf, LogLevelInfo))

	notifier.Error("no usable runtime found", ActionDownloadJDK, ActionOpenConfig, ActionDismiss)

	out := buf.String()
	if !strings.Contains(out, "no usable runtime found") {
		t.Errorf("expected message, got %q", out)
	}
	if !strings.Contains(out, "Download JDK: https://adoptium.net/") {
		t.Errorf("expected link action with URL, got %q", out)
	}
	if !strings.Contains(out, "[Open Settings]") {
		t.Errorf("expected plain action, got %q", out)
	}

	// Dismiss is meaningless in a log rendering.
	if strings.Contains(out, "Dismiss") {
		t.Errorf("expected dismiss action omitted, got %q", out)
	}
}

func TestRateLimited_SurfacesUpToLimit(t *testing.T) {
	inner := &recordingNotifier{}
	limited := NewRateLimited(inner, NewLogger(&bytes.Buffer{}, LogLevelError), 3)

	for i := 0; i < 5; i++ {
		limited.Notify("transport", "error", "connection lost")
	}

	if got := inner.count(); got != 3 {
		t.Errorf("expected 3 surfaced notifications, got %d", got)
	}
}

func TestRateLimited_KeysAreIndependent(t *testing.T) {
	inner := &recordingNotifier{}
	limited := NewRateLimited(inner, nil, 1)

	limited.Notify("transport", "error", "a")
	limited.Notify("transport", "error", "b")
	limited.Notify("exit", "error", "c")

	if got := inner.count(); got != 2 {
		t.Errorf("expected one per key, got %d", got)
	}
}

func TestRateLimited_ResetRestoresBudget(t *testing.T) {
	inner := &recordingNotifier{}
	limited := NewRateLimited(inner, nil, 1)

	limited.Notify("transport", "error", "first")
	limited.Notify("transport", "error", "suppressed")
	limited.Reset("transport")
	limited.Notify("transport", "error", "after reset")

	if got := inner.count(); got != 2 {
		t.Errorf("expected budget restored after reset, got %d surfaced", got)
	}

	inner.mu.Lock()
	defer inner.mu.Unlock()
	if inner.msgs[1] != "after reset" {
		t.Errorf("expected post-reset message surfaced, got %q", inner.msgs[1])
	}
}

func TestRateLimited_SuppressedGoesToDebugLog(t *testing.T) {
	var buf bytes.Buffer
	inner := &recordingNotifier{}
	limited := NewRateLimited(inner, NewLogger(&buf, LogLevelDebug), 1)

	limited.Notify("transport", "error", "first")
	limited.Notify("transport", "error", "second")

	if !strings.Contains(buf.String(), "suppressed") {
		t.Errorf("expected suppression logged at debug, got %q", buf.String())
	}
}

func TestRateLimited_SeverityRouting(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&buf, LogLevelDebug)
	limited := NewRateLimited(NewLogNotifier(log), log, 10)

	limited.Notify("k1", "info", "informational")
	limited.Notify("k2", "warn", "warning")
	limited.Notify("k3", "error", "failure")

	out := buf.String()
	if !strings.Contains(out, "INFO") || !strings.Contains(out, "informational") {
		t.Errorf("expected info routing, got %q", out)
	}
	if !strings.Contains(out, "WARN") || !strings.Contains(out, "warning") {
		t.Errorf("expected warn routing, got %q", out)
	}
	if !strings.Contains(out, "ERROR") || !strings.Contains(out, "failure") {
		t.Errorf("expected error routing, got %q", out)
	}
}
