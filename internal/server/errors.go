package server

import (
	"errors"
	"fmt"
	"io/fs"
	"syscall"
)

// Standard errors returned by the supervisor.
var (
	// ErrAlreadyRunning indicates a start was requested while a
	// subordinate process is live.
	ErrAlreadyRunning = errors.New("language server already running")

	// ErrMissingArtifact indicates the packaged server artifact is not
	// on disk. This is a precondition failure: reinstalling is the
	// only remediation.
	ErrMissingArtifact = errors.New("packaged server artifact not found; reinstall to restore it")

	// ErrMissingConfigDir indicates the packaged configuration
	// directory is not on disk.
	ErrMissingConfigDir = errors.New("packaged server configuration directory not found; reinstall to restore it")
)

// SpawnKind categorizes a spawn failure for user-readable reporting.
type SpawnKind int

const (
	// SpawnUnknown is a spawn failure with no more specific category.
	SpawnUnknown SpawnKind = iota
	// SpawnNotFound means the executable was missing at spawn time.
	SpawnNotFound
	// SpawnNotExecutable means the executable could not be executed
	// (permission denied or a bad format).
	SpawnNotExecutable
)

// String returns a human-readable category name.
func (k SpawnKind) String() string {
	switch k {
	case SpawnNotFound:
		return "not found"
	case SpawnNotExecutable:
		return "not executable"
	default:
		return "unknown"
	}
}

// SpawnError reports a failed attempt to launch the subordinate
// process, classified from the underlying system error.
type SpawnError struct {
	Path string
	Kind SpawnKind
	Err  error
}

// Error implements the error interface.
func (e *SpawnError) Error() string {
	switch e.Kind {
	case SpawnNotFound:
		return fmt.Sprintf("language server runtime %s not found", e.Path)
	case SpawnNotExecutable:
		return fmt.Sprintf("language server runtime %s is not executable", e.Path)
	default:
		return fmt.Sprintf("failed to launch language server with %s: %v", e.Path, e.Err)
	}
}

// Unwrap returns the underlying error.
func (e *SpawnError) Unwrap() error {
	return e.Err
}

// classifySpawn converts a raw spawn error into a SpawnError.
func classifySpawn(path string, err error) *SpawnError {
	kind := SpawnUnknown
	switch {
	case errors.Is(err, fs.ErrNotExist):
		kind = SpawnNotFound
	case errors.Is(err, fs.ErrPermission), errors.Is(err, syscall.ENOEXEC):
		kind = SpawnNotExecutable
	}
	return &SpawnError{Path: path, Kind: kind, Err: err}
}
