package server

import (
	"fmt"
	"os"
)

// Assets are the companion resources the subordinate process needs on
// disk: the packaged server artifact, its packaged configuration
// directory, and a writable per-install data directory.
type Assets struct {
	// ServerJar is the packaged server artifact. Its absence is a
	// fatal precondition failure.
	ServerJar string

	// ConfigDir is the packaged configuration directory shipped next
	// to the artifact.
	ConfigDir string

	// DataDir is the writable workspace-data directory. It is created
	// on demand.
	DataDir string
}

// Preflight verifies the packaged resources exist and prepares the
// data directory. It is checked before any spawn attempt so a broken
// install is reported without side effects on the process table.
func (a Assets) Preflight() error {
	if !regularFileExists(a.ServerJar) {
		return fmt.Errorf("%w (expected at %s)", ErrMissingArtifact, a.ServerJar)
	}

	if info, err := os.Stat(a.ConfigDir); err != nil || !info.IsDir() {
		return fmt.Errorf("%w (expected at %s)", ErrMissingConfigDir, a.ConfigDir)
	}

	if err := os.MkdirAll(a.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data directory %s: %w", a.DataDir, err)
	}

	return nil
}

// LaunchArgs returns the fixed argument list for the subordinate
// process. These are not user-configurable.
func (a Assets) LaunchArgs() []string {
	return []string{
		"-jar", a.ServerJar,
		"-configuration", a.ConfigDir,
		"-data", a.DataDir,
	}
}

func regularFileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
