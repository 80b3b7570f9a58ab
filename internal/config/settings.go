package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// JavaHomeKey is the settings.json key holding the explicit JDK
// installation-root override.
const JavaHomeKey = "java.home"

// ReadSetting returns the string value at a dotted key in a JSON
// settings file. A key that is absent returns "". Dots inside the key
// are literal (settings.json style), not path separators.
func ReadSetting(path, key string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	if !gjson.ValidBytes(data) {
		return "", fmt.Errorf("%s is not valid JSON", path)
	}

	return gjson.GetBytes(data, escapeKey(key)).String(), nil
}

// WriteSetting sets a dotted key in a JSON settings file, creating the
// file and its directory if needed.
func WriteSetting(path, key, value string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return err
		}
		data = []byte("{}")
	}

	if !gjson.ValidBytes(data) {
		return fmt.Errorf("%s is not valid JSON", path)
	}

	updated, err := sjson.SetBytes(data, escapeKey(key), value)
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	return os.WriteFile(path, updated, 0o644)
}

// escapeKey makes the dots in a settings key literal for gjson/sjson
// path syntax.
func escapeKey(key string) string {
	out := make([]byte, 0, len(key)+4)
	for i := 0; i < len(key); i++ {
		if key[i] == '.' {
			out = append(out, '\\')
		}
		out = append(out, key[i])
	}
	return string(out)
}
