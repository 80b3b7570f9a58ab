package jdk

import (
	"regexp"
	"strconv"
)

// versionPattern matches the first quoted dotted-version token in a
// version banner, e.g. `openjdk version "21.0.2" 2024-01-16` or
// `java version "1.8.0_292"`. The first capture group is the integer
// before the first dot; a bare quoted integer also matches.
var versionPattern = regexp.MustCompile(`"(\d+)(?:\.\d+)*[^"]*"`)

// ParseMajorVersion extracts the major version from a version banner.
// It returns false when no version token is present.
func ParseMajorVersion(banner string) (int, bool) {
	m := versionPattern.FindStringSubmatch(banner)
	if m == nil {
		return 0, false
	}

	major, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return major, true
}
