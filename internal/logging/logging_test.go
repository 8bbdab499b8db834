package logging

import (
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected LogLevel
	}{
		{
			name:     "Debug",
			value:    "debug",
			expected: LevelDebug,
		},
		{
			name:     "Info",
			value:    "info",
			expected: LevelInfo,
		},
		{
			name:     "Warn",
			value:    "warn",
			expected: LevelWarn,
		},
		{
			name:     "Warning alias",
			value:    "warning",
			expected: LevelWarn,
		},
		{
			name:     "Error",
			value:    "error",
			expected: LevelError,
		},
		{
			name:     "Case insensitive",
			value:    "DEBUG",
			expected: LevelDebug,
		},
		{
			name:     "Unknown defaults to info",
			value:    "verbose",
			expected: LevelInfo,
		},
		{
			name:     "Empty defaults to info",
			value:    "",
			expected: LevelInfo,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseLevel(tt.value); got != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.value, got, tt.expected)
			}
		})
	}
}

func TestLogLevelString(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{LevelDebug, "debug"},
		{LevelInfo, "info"},
		{LevelWarn, "warn"},
		{LevelError, "error"},
		{LogLevel(42), "unknown(42)"},
	}

	for _, tt := range tests {
		if got := tt.level.String(); got != tt.expected {
			t.Errorf("LogLevel(%d).String() = %q, want %q", tt.level, got, tt.expected)
		}
	}
}
