package config

import (
	"github.com/joeshaw/envdecode"
)

// envOverrides are ambient environment settings. JAVA_HOME is
// deliberately absent: it is a discovery fallback consulted by the
// runtime locator, not a configuration override.
type envOverrides struct {
	InstallDir   string `env:"JDTBRIDGE_INSTALL_DIR"`
	DataDir      string `env:"JDTBRIDGE_DATA_DIR"`
	LogLevel     string `env:"JDTBRIDGE_LOG_LEVEL"`
	SettingsFile string `env:"JDTBRIDGE_SETTINGS"`
}

// mergeEnv overlays JDTBRIDGE_* environment variables onto cfg.
func mergeEnv(cfg *Config) {
	var env envOverrides
	// Unset variables simply leave their fields empty.
	_ = envdecode.Decode(&env)

	if env.InstallDir != "" {
		cfg.InstallDir = env.InstallDir
	}
	if env.DataDir != "" {
		cfg.DataDir = env.DataDir
	}
	if env.LogLevel != "" {
		cfg.LogLevel = env.LogLevel
	}
	if env.SettingsFile != "" {
		cfg.SettingsFile = env.SettingsFile
	}
}
