// Package jdk discovers and validates local Java development kit
// installations.
//
// Discovery probes a fixed sequence of sources (explicit override,
// JAVA_HOME, the process search path) and returns the first
// installation that passes validation. Candidates are evaluated one at
// a time and are never cached across invocations.
package jdk

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/dshills/jdtbridge/internal/platform"
)

// Supported major-version bounds for the subordinate server's runtime.
const (
	MinVersion = 17
	MaxVersion = 99
)

// Candidate is a filesystem path purporting to be a JDK installation
// root, with its derived executable paths. Candidates are transient:
// constructed per probe attempt and discarded after evaluation.
type Candidate struct {
	Root      string
	JavaPath  string
	JavacPath string
}

// NewCandidate derives a candidate's executable paths from an
// installation root.
func NewCandidate(p platform.Platform, root string) Candidate {
	return Candidate{
		Root:      root,
		JavaPath:  filepath.Join(root, "bin", p.ExecName("java")),
		JavacPath: filepath.Join(root, "bin", p.ExecName("javac")),
	}
}

// Result is the outcome of validating one candidate root.
type Result struct {
	// Valid reports whether the candidate passed all checks.
	Valid bool

	// JavaPath is the validated interpreter path (set when Valid).
	JavaPath string

	// Version is the detected major version (set when Valid).
	Version int

	// Reason describes why validation failed (set when !Valid).
	Reason string
}

func invalid(format string, args ...any) Result {
	return Result{Reason: fmt.Sprintf(format, args...)}
}

// Runtime is a successfully located development kit.
type Runtime struct {
	Root     string
	JavaPath string
	Version  int
}

// Probe records one discovery attempt, for diagnostic output.
type Probe struct {
	// Source identifies where the candidate came from: "override",
	// "JAVA_HOME", or "PATH".
	Source string

	// Root is the candidate installation root.
	Root string

	// Result is the validation outcome.
	Result Result
}

// Locator locates a usable development kit.
//
// Locator is stateless between calls: every Locate runs the full probe
// sequence from scratch, so configuration fixed between two calls takes
// effect without any cache invalidation.
type Locator struct {
	platform platform.Platform

	// override is the explicit user-configured installation root.
	// When set and invalid, discovery fails hard without consulting
	// other sources.
	override string

	// getenv is injectable for tests; defaults to os.LookupEnv.
	getenv func(string) (string, bool)
}

// Option configures a Locator.
type Option func(*Locator)

// WithOverride sets the explicit installation-root override.
func WithOverride(root string) Option {
	return func(l *Locator) {
		l.override = root
	}
}

// WithEnvLookup replaces the environment lookup function.
func WithEnvLookup(fn func(string) (string, bool)) Option {
	return func(l *Locator) {
		l.getenv = fn
	}
}

// NewLocator creates a locator for the given platform.
func NewLocator(p platform.Platform, opts ...Option) *Locator {
	l := &Locator{
		platform: p,
		getenv:   os.LookupEnv,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Locate returns the first development kit that validates, or a
// terminal error describing how to remediate.
func (l *Locator) Locate(ctx context.Context) (*Runtime, error) {
	rt, _, err := l.Discover(ctx)
	return rt, err
}

// Discover is Locate plus a record of every probe attempted, in order.
func (l *Locator) Discover(ctx context.Context) (*Runtime, []Probe, error) {
	var probes []Probe

	// 1. Explicit override. An invalid override is a hard failure:
	// a misconfiguration must be surfaced, not silently bypassed.
	if l.override != "" {
		res := l.Validate(ctx, l.override)
		probes = append(probes, Probe{Source: "override", Root: l.override, Result: res})
		if !res.Valid {
			return nil, probes, &OverrideError{Path: l.override, Reason: res.Reason}
		}
		return runtimeFrom(l.override, res), probes, nil
	}

	// 2. JAVA_HOME, consulted only when no override is configured.
	// An invalid value here falls through to the search path.
	if home, ok := l.getenv("JAVA_HOME"); ok && home != "" {
		res := l.Validate(ctx, home)
		probes = append(probes, Probe{Source: "JAVA_HOME", Root: home, Result: res})
		if res.Valid {
			return runtimeFrom(home, res), probes, nil
		}
	}

	// 3. Every java executable on the search path, first valid wins.
	for _, javaPath := range platform.FindExecutables(l.platform, "java") {
		root := rootFromExecutable(javaPath)
		res := l.Validate(ctx, root)
		probes = append(probes, Probe{Source: "PATH", Root: root, Result: res})
		if res.Valid {
			return runtimeFrom(root, res), probes, nil
		}
	}

	return nil, probes, &ExhaustedError{Min: MinVersion, Max: MaxVersion}
}

// Validate checks one candidate root, short-circuiting on the first
// failure. Expected failures are returned as an invalid Result, never
// as an error.
func (l *Locator) Validate(ctx context.Context, root string) Result {
	cand := NewCandidate(l.platform, root)

	info, err := os.Stat(cand.Root)
	if err != nil || !info.IsDir() {
		return invalid("directory does not exist")
	}

	if !fileExists(cand.JavaPath) {
		return invalid("%s does not exist", cand.JavaPath)
	}

	if !fileExists(cand.JavacPath) {
		return invalid("not a full development kit (missing compiler executable)")
	}

	banner, err := l.versionBanner(ctx, cand.JavaPath)
	if err != nil {
		return invalid("could not determine version")
	}

	major, ok := ParseMajorVersion(banner)
	if !ok {
		return invalid("could not determine version")
	}

	if major < MinVersion || major > MaxVersion {
		return invalid("version %d outside supported range %d-%d", major, MinVersion, MaxVersion)
	}

	return Result{Valid: true, JavaPath: cand.JavaPath, Version: major}
}

// versionBanner runs the interpreter's version query and returns its
// combined output. The banner appears on stdout or stderr depending on
// the vendor, so both are captured.
func (l *Locator) versionBanner(ctx context.Context, javaPath string) (string, error) {
	cmd := exec.CommandContext(ctx, javaPath, "-version")
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("run %s -version: %w", javaPath, err)
	}
	return string(out), nil
}

// rootFromExecutable derives the installation root from an interpreter
// found on the search path. Symlinks are resolved best-effort so that
// a linked /usr/bin/java points back at its real installation.
func rootFromExecutable(javaPath string) string {
	if resolved, err := filepath.EvalSymlinks(javaPath); err == nil {
		javaPath = resolved
	}
	// root/bin/java -> root
	return filepath.Dir(filepath.Dir(javaPath))
}

func runtimeFrom(root string, res Result) *Runtime {
	return &Runtime{
		Root:     root,
		JavaPath: res.JavaPath,
		Version:  res.Version,
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
