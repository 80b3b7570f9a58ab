package jdk

import "testing"

func TestParseMajorVersion(t *testing.T) {
	tests := []struct {
		name   string
		banner string
		major  int
		ok     bool
	}{
		{
			name:   "modern openjdk",
			banner: `openjdk version "21.0.2" 2024-01-16`,
			major:  21,
			ok:     true,
		},
		{
			name:   "oracle hotspot",
			banner: `java version "17.0.9" 2023-10-17 LTS`,
			major:  17,
			ok:     true,
		},
		{
			name:   "legacy one-dot-eight",
			banner: `openjdk version "1.8.0_292"`,
			major:  1,
			ok:     true,
		},
		{
			name:   "bare major",
			banner: `openjdk version "21"`,
			major:  21,
			ok:     true,
		},
		{
			name: "multiline stderr banner",
			banner: `openjdk version "17.0.1" 2021-10-19
OpenJDK Runtime Environment Temurin-17.0.1+12 (build 17.0.1+12)
OpenJDK 64-Bit Server VM Temurin-17.0.1+12 (build 17.0.1+12, mixed mode)`,
			major: 17,
			ok:    true,
		},
		{
			name:   "early access suffix",
			banner: `openjdk version "23-ea" 2024-09-17`,
			major:  23,
			ok:     true,
		},
		{
			name:   "no quoted version",
			banner: "command not found",
			ok:     false,
		},
		{
			name:   "empty",
			banner: "",
			ok:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			major, ok := ParseMajorVersion(tt.banner)
			if ok != tt.ok {
				t.Fatalf("ok=%v, want %v", ok, tt.ok)
			}
			if ok && major != tt.major {
				t.Errorf("major=%d, want %d", major, tt.major)
			}
		})
	}
}
