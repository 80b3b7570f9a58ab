package server

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// testAssets lays out a complete packaged install in a temp directory.
func testAssets(t *testing.T) Assets {
	t.Helper()

	root := t.TempDir()
	jar := filepath.Join(root, "server", "jdt-language-server.jar")
	cfg := filepath.Join(root, "server", "config")

	if err := os.MkdirAll(cfg, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(jar, []byte("stub"), 0o644); err != nil {
		t.Fatal(err)
	}

	return Assets{
		ServerJar: jar,
		ConfigDir: cfg,
		DataDir:   filepath.Join(root, "data", "workspace"),
	}
}

func TestPreflight(t *testing.T) {
	assets := testAssets(t)

	if err := assets.Preflight(); err != nil {
		t.Fatalf("unexpected preflight error: %v", err)
	}

	// The data directory is created on demand.
	info, err := os.Stat(assets.DataDir)
	if err != nil {
		t.Fatalf("expected data directory to exist: %v", err)
	}
	if !info.IsDir() {
		t.Error("expected data path to be a directory")
	}
}

func TestPreflight_MissingArtifact(t *testing.T) {
	assets := testAssets(t)
	if err := os.Remove(assets.ServerJar); err != nil {
		t.Fatal(err)
	}

	err := assets.Preflight()
	if !errors.Is(err, ErrMissingArtifact) {
		t.Fatalf("expected ErrMissingArtifact, got %v", err)
	}
	if !strings.Contains(err.Error(), assets.ServerJar) {
		t.Errorf("expected message to name the missing path: %v", err)
	}
}

func TestPreflight_ArtifactIsDirectory(t *testing.T) {
	assets := testAssets(t)
	if err := os.Remove(assets.ServerJar); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(assets.ServerJar, 0o755); err != nil {
		t.Fatal(err)
	}

	if err := assets.Preflight(); !errors.Is(err, ErrMissingArtifact) {
		t.Errorf("expected ErrMissingArtifact for directory artifact, got %v", err)
	}
}

func TestPreflight_MissingConfigDir(t *testing.T) {
	assets := testAssets(t)
	if err := os.RemoveAll(assets.ConfigDir); err != nil {
		t.Fatal(err)
	}

	if err := assets.Preflight(); !errors.Is(err, ErrMissingConfigDir) {
		t.Errorf("expected ErrMissingConfigDir, got %v", err)
	}
}

func TestLaunchArgs(t *testing.T) {
	assets := Assets{
		ServerJar: "/opt/install/server/server.jar",
		ConfigDir: "/opt/install/server/config",
		DataDir:   "/home/u/.cache/workspace",
	}

	got := assets.LaunchArgs()
	want := []string{
		"-jar", "/opt/install/server/server.jar",
		"-configuration", "/opt/install/server/config",
		"-data", "/home/u/.cache/workspace",
	}

	if len(got) != len(want) {
		t.Fatalf("expected %d args, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("arg %d: got %q, want %q", i, got[i], want[i])
		}
	}
}
