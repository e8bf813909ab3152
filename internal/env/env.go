// Package env holds small helpers for reading settings out of the
// process environment.
package env

import (
	"os"
	"strconv"
	"strings"
)

// ParseInt reads key as an integer, falling back when unset or malformed.
func ParseInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

// ParseBool reads key as a boolean, falling back when unset or not a
// recognized spelling.
func ParseBool(key string, fallback bool) bool {
	return ParseBoolString(os.Getenv(key), fallback)
}

// ParseBoolString interprets the usual truthy and falsy spellings.
func ParseBoolString(raw string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

// FirstNonEmpty returns the first value that is not blank after trimming.
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
