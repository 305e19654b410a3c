package util

import (
	"log/slog"
	"os"
	"strings"
)

// ParseBoolEnv reads a boolean from the environment. Truthy values are
// true/1/yes/on, falsy values false/0/no/off, with case and surrounding
// whitespace ignored. Unset or unrecognized values fall back to def, with
// a warning logged for the unrecognized case.
func ParseBoolEnv(key string, def bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	}
	slog.Warn("ParseBoolEnv unrecognized value, using default", "key", key, "value", raw, "default", def)
	return def
}
