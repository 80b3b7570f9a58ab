// Package platform abstracts the OS-specific details of locating
// executables so that runtime discovery stays platform-agnostic.
package platform

import (
	"os"
	"path/filepath"
	"runtime"
)

// Platform provides executable-name resolution and search-path access.
type Platform interface {
	// ExecName returns the platform-specific file name for a base
	// executable name (e.g. "java" -> "java.exe" on Windows).
	ExecName(base string) string

	// PathDirs returns the directories on the process search path, in
	// search order.
	PathDirs() []string
}

// Native is the Platform implementation for the running OS.
type Native struct{}

// ExecName returns the executable file name for the current OS.
func (Native) ExecName(base string) string {
	if runtime.GOOS == "windows" {
		return base + ".exe"
	}
	return base
}

// PathDirs returns the directories listed in $PATH.
func (Native) PathDirs() []string {
	return filepath.SplitList(os.Getenv("PATH"))
}

// FindExecutables returns every existing occurrence of the named
// executable across p's search path, in search order. Empty path
// entries are skipped rather than treated as the current directory.
func FindExecutables(p Platform, base string) []string {
	name := p.ExecName(base)

	var found []string
	for _, dir := range p.PathDirs() {
		if dir == "" {
			continue
		}
		candidate := filepath.Join(dir, name)
		info, err := os.Stat(candidate)
		if err != nil || info.IsDir() {
			continue
		}
		found = append(found, candidate)
	}
	return found
}
