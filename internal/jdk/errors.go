package jdk

import (
	"errors"
	"fmt"
)

// ErrNoRuntime indicates discovery exhausted every source without
// finding a usable development kit.
var ErrNoRuntime = errors.New("no compatible Java development kit found")

// OverrideError indicates the explicit user-configured installation
// root failed validation. This is a configuration error: discovery
// stops without consulting other sources.
type OverrideError struct {
	Path   string
	Reason string
}

// Error implements the error interface.
func (e *OverrideError) Error() string {
	return fmt.Sprintf("configured Java home %q is not usable: %s", e.Path, e.Reason)
}

// ExhaustedError indicates no source produced a valid development kit.
// Its message enumerates the remediation options.
type ExhaustedError struct {
	Min int
	Max int
}

// Error implements the error interface.
func (e *ExhaustedError) Error() string {
	return fmt.Sprintf(
		"no Java development kit (version %d-%d) was found; install a compatible JDK, set the JAVA_HOME environment variable, or set java.home in your configuration",
		e.Min, e.Max)
}

// Unwrap lets errors.Is(err, ErrNoRuntime) match.
func (e *ExhaustedError) Unwrap() error {
	return ErrNoRuntime
}
