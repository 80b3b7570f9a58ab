// Package config manages jdtbridge configuration: a YAML config file,
// environment overrides, and an optional editor settings.json whose
// java.home key takes precedence. Components subscribe to change
// notifications so an edited java.home triggers a server restart.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// Config is the effective jdtbridge configuration.
type Config struct {
	// JavaHome is the explicit JDK installation-root override. When
	// set and invalid, discovery fails hard rather than falling back.
	JavaHome string `yaml:"javaHome"`

	// InstallDir is the root of the installed extension payload. The
	// packaged server artifact and configuration directory live under
	// it. Defaults to the directory of the running executable.
	InstallDir string `yaml:"installDir"`

	// DataDir is the writable workspace-data directory handed to the
	// subordinate process. Defaults under the user cache directory.
	DataDir string `yaml:"dataDir"`

	// LogLevel controls host logging (debug, info, warn, error).
	LogLevel string `yaml:"logLevel"`

	// SettingsFile is an optional editor settings.json consulted for
	// the java.home key.
	SettingsFile string `yaml:"settingsFile"`
}

// Packaged resource names under InstallDir.
const (
	ServerJarName = "jdt-language-server.jar"
	ServerSubdir  = "server"
	ConfigSubdir  = "config"
	dataSubdir    = "jdtbridge"
)

// ServerJarPath returns the expected path of the packaged artifact.
func (c Config) ServerJarPath() string {
	return filepath.Join(c.InstallDir, ServerSubdir, ServerJarName)
}

// ServerConfigDir returns the packaged configuration directory.
func (c Config) ServerConfigDir() string {
	return filepath.Join(c.InstallDir, ServerSubdir, ConfigSubdir)
}

// Observer is called with the previous and new configuration after a
// reload changes anything.
type Observer func(old, new Config)

// Manager loads configuration, answers reads, and notifies observers
// on change. It is safe for concurrent use.
type Manager struct {
	mu sync.RWMutex

	configPath string
	cfg        Config

	observers map[uint64]Observer
	nextID    uint64
}

// NewManager creates a manager reading the given YAML config file.
// An empty path uses the default location; a missing file is not an
// error, defaults and environment apply.
func NewManager(configPath string) (*Manager, error) {
	if configPath == "" {
		configPath = DefaultConfigPath()
	}

	m := &Manager{
		configPath: configPath,
		observers:  make(map[uint64]Observer),
	}

	cfg, err := m.load()
	if err != nil {
		return nil, err
	}
	m.cfg = cfg

	return m, nil
}

// DefaultConfigPath returns the per-user config file location.
func DefaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "jdtbridge", "config.yaml")
}

// Config returns a copy of the effective configuration.
func (m *Manager) Config() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg
}

// ConfigPath returns the YAML config file path in use.
func (m *Manager) ConfigPath() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.configPath
}

// Subscribe registers an observer for configuration changes. The
// returned function removes the subscription.
func (m *Manager) Subscribe(obs Observer) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	m.observers[id] = obs

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.observers, id)
	}
}

// Reload re-reads every layer. Observers fire only when the effective
// configuration actually changed.
func (m *Manager) Reload() error {
	cfg, err := m.load()
	if err != nil {
		return err
	}

	m.mu.Lock()
	old := m.cfg
	changed := old != cfg
	m.cfg = cfg

	var observers []Observer
	if changed {
		observers = make([]Observer, 0, len(m.observers))
		for _, obs := range m.observers {
			observers = append(observers, obs)
		}
	}
	m.mu.Unlock()

	for _, obs := range observers {
		obs(old, cfg)
	}

	return nil
}

// load assembles the effective configuration: defaults, then the YAML
// file, then environment overrides, then the settings.json java.home.
func (m *Manager) load() (Config, error) {
	cfg := defaults()

	if err := mergeFile(&cfg, m.configPath); err != nil {
		return Config{}, err
	}

	mergeEnv(&cfg)

	if cfg.SettingsFile != "" {
		home, err := ReadSetting(cfg.SettingsFile, JavaHomeKey)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("read %s: %w", cfg.SettingsFile, err)
		}
		if home != "" {
			cfg.JavaHome = home
		}
	}

	return cfg, nil
}

func defaults() Config {
	cfg := Config{
		LogLevel: "info",
	}

	if exe, err := os.Executable(); err == nil {
		cfg.InstallDir = filepath.Dir(exe)
	}

	if cache, err := os.UserCacheDir(); err == nil {
		cfg.DataDir = filepath.Join(cache, dataSubdir, "workspace")
	}

	return cfg
}

// mergeFile overlays non-empty values from the YAML file. A missing
// file is not an error.
func mergeFile(cfg *Config, path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	overlay(cfg, file)
	return nil
}

func overlay(dst *Config, src Config) {
	if src.JavaHome != "" {
		dst.JavaHome = src.JavaHome
	}
	if src.InstallDir != "" {
		dst.InstallDir = src.InstallDir
	}
	if src.DataDir != "" {
		dst.DataDir = src.DataDir
	}
	if src.LogLevel != "" {
		dst.LogLevel = src.LogLevel
	}
	if src.SettingsFile != "" {
		dst.SettingsFile = src.SettingsFile
	}
}
