package app

import (
	"sync"
)

// Action is a named remediation offered alongside a notification.
type Action struct {
	// Label is the user-visible choice.
	Label string

	// URL is opened when the action is a link (download page).
	URL string
}

// Standard remediation actions.
var (
	ActionDownloadJDK = Action{Label: "Download JDK", URL: "https://adoptium.net/"}
	ActionOpenConfig  = Action{Label: "Open Settings"}
	ActionDismiss     = Action{Label: "Dismiss"}
)

// Notifier is the host's user-facing message surface. An embedding
// host shows these as modal or toast notifications; the CLI prints
// them through the logger.
type Notifier interface {
	Info(msg string, actions ...Action)
	Warn(msg string, actions ...Action)
	Error(msg string, actions ...Action)
}

// LogNotifier renders notifications through the host logger.
type LogNotifier struct {
	log *Logger
}

// NewLogNotifier creates a Notifier backed by the given logger.
func NewLogNotifier(log *Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

// Info implements Notifier.
func (n *LogNotifier) Info(msg string, actions ...Action) {
	n.log.Info("%s%s", msg, renderActions(actions))
}

// Warn implements Notifier.
func (n *LogNotifier) Warn(msg string, actions ...Action) {
	n.log.Warn("%s%s", msg, renderActions(actions))
}

// Error implements Notifier.
func (n *LogNotifier) Error(msg string, actions ...Action) {
	n.log.Error("%s%s", msg, renderActions(actions))
}

func renderActions(actions []Action) string {
	out := ""
	for _, a := range actions {
		if a.URL != "" {
			out += " [" + a.Label + ": " + a.URL + "]"
			continue
		}
		if a.Label != ActionDismiss.Label {
			out += " [" + a.Label + "]"
		}
	}
	return out
}

// RateLimited wraps a Notifier and surfaces only the first Limit
// occurrences per key, so a flapping transport cannot flood the user.
// Everything beyond the limit is still logged at debug level.
type RateLimited struct {
	mu     sync.Mutex
	inner  Notifier
	log    *Logger
	counts map[string]int

	// Limit is the number of notifications surfaced per key.
	Limit int
}

// NewRateLimited creates a rate-limited notifier surfacing at most
// limit notifications per key.
func NewRateLimited(inner Notifier, log *Logger, limit int) *RateLimited {
	return &RateLimited{
		inner:  inner,
		log:    log,
		counts: make(map[string]int),
		Limit:  limit,
	}
}

// Notify surfaces msg under the given key unless the key's budget is
// exhausted. severity is one of "info", "warn", "error".
func (r *RateLimited) Notify(key, severity, msg string, actions ...Action) {
	r.mu.Lock()
	r.counts[key]++
	n := r.counts[key]
	r.mu.Unlock()

	if n > r.Limit {
		if r.log != nil {
			r.log.Debug("suppressed notification (%s #%d): %s", key, n, msg)
		}
		return
	}

	switch severity {
	case "error":
		r.inner.Error(msg, actions...)
	case "warn":
		r.inner.Warn(msg, actions...)
	default:
		r.inner.Info(msg, actions...)
	}
}

// Reset clears the budget for a key. Called when a new supervisor
// generation starts so fresh failures surface again.
func (r *RateLimited) Reset(key string) {
	r.mu.Lock()
	delete(r.counts, key)
	r.mu.Unlock()
}
